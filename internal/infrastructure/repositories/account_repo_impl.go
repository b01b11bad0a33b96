package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/infrastructure/models"
)

// AccountRepository implements account data operations
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account row
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	m := &models.Account{
		ID:                account.ID,
		Email:             account.Email,
		PasswordHash:      account.PasswordHash,
		Name:              account.Name,
		ProfilePictureURL: account.ProfilePictureURL,
		Gender:            account.Gender,
		Age:               account.Age,
		CurrentPlan:       account.CurrentPlan,
		Activated:         int(account.Activated),
		Token:             account.Token,
		TokenExpire:       account.TokenExpire,
		ParentPassword:    account.ParentPassword.Ptr(),
		ResetVerified:     account.ResetVerified,
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.TokenExpire.IsZero() {
		m.TokenExpire = entities.TokenExpireSentinel
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	account.ID = m.ID
	account.CreatedAt = m.CreatedAt
	return nil
}

// GetByID gets an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var m models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAccountEntity(&m), nil
}

// GetByEmail gets an account by email, including soft-deleted rows so a
// registration can resurrect them.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var m models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAccountEntity(&m), nil
}

// ListIDs returns every account id, deleted accounts included. The sweep
// reconciles all of them.
func (r *AccountRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateFields applies a partial update to one account row
func (r *AccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetToken persists the current session token and its expiry
func (r *AccountRepository) SetToken(ctx context.Context, id uuid.UUID, token string, expire time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"token":        token,
		"token_expire": expire,
	})
}

// SetVerificationCode overwrites the pending code and its expiry
func (r *AccountRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expire time.Time, resetVerified null.Bool) error {
	fields := map[string]interface{}{
		"verification_code": code,
		"code_expire":       expire,
	}
	if resetVerified.Valid {
		fields["reset_verified"] = resetVerified.Bool
	}
	return r.UpdateFields(ctx, id, fields)
}

// ClearVerificationCode consumes a checked code
func (r *AccountRepository) ClearVerificationCode(ctx context.Context, id uuid.UUID) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"verification_code": nil,
		"code_expire":       nil,
	})
}

func toAccountEntity(m *models.Account) *entities.Account {
	return &entities.Account{
		ID:                m.ID,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Name:              m.Name,
		ProfilePictureURL: m.ProfilePictureURL,
		Gender:            m.Gender,
		Age:               m.Age,
		CurrentPlan:       m.CurrentPlan,
		Activated:         entities.ActivationStatus(m.Activated),
		Token:             m.Token,
		TokenExpire:       m.TokenExpire,
		VerificationCode:  null.IntFromPtr(m.VerificationCode),
		CodeExpire:        null.TimeFromPtr(m.CodeExpire),
		ParentPassword:    null.StringFromPtr(m.ParentPassword),
		ResetVerified:     m.ResetVerified,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
