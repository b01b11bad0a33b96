package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/infrastructure/payments"
	"lumikid.backend/internal/interfaces/http/middleware"
	"lumikid.backend/internal/usecases"
	"lumikid.backend/pkg/crypto"
	"lumikid.backend/pkg/token"
)

// fakeAccountRepo is an in-memory AccountRepository for handler tests
type fakeAccountRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[uuid.UUID]*entities.Account{}}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entities.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.TokenExpire.IsZero() {
		account.TokenExpire = entities.TokenExpireSentinel
	}
	cp := *account
	r.byID[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeAccountRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeAccountRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "password_hash":
			a.PasswordHash = v.(string)
		case "activated":
			a.Activated = v.(entities.ActivationStatus)
		case "current_plan":
			a.CurrentPlan = v.(string)
		case "token":
			a.Token = v.(string)
		case "token_expire":
			a.TokenExpire = v.(time.Time)
		case "reset_verified":
			a.ResetVerified = v.(bool)
		case "parent_password":
			a.ParentPassword = null.StringFrom(v.(string))
		case "name":
			a.Name = v.(string)
		case "email":
			a.Email = v.(string)
		case "profile_picture_url":
			a.ProfilePictureURL = v.(string)
		case "gender":
			a.Gender = v.(string)
		case "age":
			a.Age = v.(int)
		}
	}
	return nil
}

func (r *fakeAccountRepo) SetToken(_ context.Context, id uuid.UUID, tok string, expire time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	a.Token = tok
	a.TokenExpire = expire
	return nil
}

func (r *fakeAccountRepo) SetVerificationCode(_ context.Context, id uuid.UUID, code int, expire time.Time, resetVerified null.Bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	a.VerificationCode = null.IntFrom(code)
	a.CodeExpire = null.TimeFrom(expire)
	if resetVerified.Valid {
		a.ResetVerified = resetVerified.Bool
	}
	return nil
}

func (r *fakeAccountRepo) ClearVerificationCode(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	a.VerificationCode = null.Int{}
	a.CodeExpire = null.Time{}
	return nil
}

// fakeSubscriptionRepo keeps one subscription row per account
type fakeSubscriptionRepo struct {
	mu        sync.Mutex
	byAccount map[uuid.UUID]*entities.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{byAccount: map[uuid.UUID]*entities.Subscription{}}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *entities.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	cp := *sub
	r.byAccount[sub.AccountID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) GetByAccountID(_ context.Context, accountID uuid.UUID) (*entities.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAccount[accountID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *entities.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAccount[sub.AccountID]; !ok {
		return domainerrors.ErrNotFound
	}
	cp := *sub
	r.byAccount[sub.AccountID] = &cp
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*entities.SubscriptionHistory
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *entities.SubscriptionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*entities.SubscriptionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SubscriptionHistory
	for _, e := range r.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *fakeEventRepo) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[eventID] {
		return false, nil
	}
	r.seen[eventID] = true
	return true, nil
}

// recordingSender captures outgoing mail instead of delivering it
type recordingSender struct {
	mu     sync.Mutex
	sent   []string
	lastTo []string
	err    error
}

func (s *recordingSender) Send(_ context.Context, to []string, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, subject)
	s.lastTo = to
	return nil
}

type fakeCheckout struct {
	session *payments.CheckoutSession
	err     error
	got     payments.CheckoutParams
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

// handlerEnv wires real usecases over the in-memory fakes
type handlerEnv struct {
	accounts      *fakeAccountRepo
	subs          *fakeSubscriptionRepo
	history       *fakeHistoryRepo
	events        *fakeEventRepo
	sender        *recordingSender
	checkout      *fakeCheckout
	tokens        *token.Service
	auth          *usecases.AuthUsecase
	verification  *usecases.VerificationUsecase
	parental      *usecases.ParentalUsecase
	subscriptions *usecases.SubscriptionUsecase
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		accounts: newFakeAccountRepo(),
		subs:     newFakeSubscriptionRepo(),
		history:  &fakeHistoryRepo{},
		events:   &fakeEventRepo{},
		sender:   &recordingSender{},
		checkout: &fakeCheckout{session: &payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}},
		tokens:   token.NewService("handler-test-secret", time.Hour),
	}
	env.verification = usecases.NewVerificationUsecase(env.accounts, env.sender, time.Hour)
	env.subscriptions = usecases.NewSubscriptionUsecase(env.accounts, env.subs, env.history, env.events, env.sender, env.checkout)
	env.auth = usecases.NewAuthUsecase(env.accounts, env.subscriptions, env.tokens, env.verification)
	env.parental = usecases.NewParentalUsecase(env.accounts, env.verification)
	return env
}

// seedVerifiedAccount creates a verified account with a known password
func (env *handlerEnv) seedVerifiedAccount(t *testing.T, emailAddr, password string) *entities.Account {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	account := &entities.Account{
		Email:        emailAddr,
		PasswordHash: hash,
		CurrentPlan:  entities.PlanFree,
		Activated:    entities.StatusVerified,
	}
	require.NoError(t, env.accounts.Create(context.Background(), account))
	return account
}

// asAccount injects the account into the gin context the way the auth
// middleware would
func asAccount(account *entities.Account) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AccountKey, account)
		c.Set(middleware.AccountIDKey, account.ID)
	}
}

func performJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
