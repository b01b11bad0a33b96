package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/usecases"
	"lumikid.backend/pkg/crypto"
	"lumikid.backend/pkg/token"
)

func newAuthUsecaseForTest(accountRepo *MockAccountRepository, reconciler *MockReconciler, sender *MockSender) *usecases.AuthUsecase {
	tokens := token.NewService("test-secret", time.Hour)
	verification := usecases.NewVerificationUsecase(accountRepo, sender, time.Hour)
	return usecases.NewAuthUsecase(accountRepo, reconciler, tokens, verification)
}

func TestAuthUsecase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("new account", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		sender := new(MockSender)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, sender)

		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(nil, domainerrors.ErrNotFound).Once()
		accountRepo.On("Create", ctx, mock.AnythingOfType("*entities.Account")).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

		// Re-issue path inside SendVerificationEmail.
		created := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusUnverified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(created, nil).Once()
		accountRepo.On("SetVerificationCode", ctx, created.ID, mock.AnythingOfType("int"), mock.AnythingOfType("time.Time"), mock.Anything).Return(nil).Once()
		sender.On("Send", ctx, []string{"kid@mail.com"}, mock.Anything, mock.Anything).Return(nil).Once()

		account, err := uc.Register(ctx, &entities.RegisterInput{Email: "kid@mail.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, entities.StatusUnverified, account.Activated)
		assert.Equal(t, entities.PlanFree, account.CurrentPlan)
		assert.Equal(t, entities.TokenExpireSentinel, account.TokenExpire)
		accountRepo.AssertExpectations(t)
		reconciler.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("verified email conflicts", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		existing := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(existing, nil).Once()

		_, err := uc.Register(ctx, &entities.RegisterInput{Email: "kid@mail.com", Password: "password123"})
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})

	t.Run("unverified email is pending", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		existing := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusUnverified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(existing, nil).Once()

		_, err := uc.Register(ctx, &entities.RegisterInput{Email: "kid@mail.com", Password: "password123"})
		assert.ErrorIs(t, err, domainerrors.ErrPendingVerification)
	})

	t.Run("deleted account resurrects with same id", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		sender := new(MockSender)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, sender)

		oldID := uuid.New()
		deleted := &entities.Account{ID: oldID, Email: "kid@mail.com", Activated: entities.StatusDeleted}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(deleted, nil).Once()
		accountRepo.On("UpdateFields", ctx, oldID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["activated"] == entities.StatusUnverified && fields["token"] == ""
		})).Return(nil).Once()

		revived := &entities.Account{ID: oldID, Email: "kid@mail.com", Activated: entities.StatusUnverified}
		accountRepo.On("GetByID", ctx, oldID).Return(revived, nil).Once()
		reconciler.On("EnsureValid", ctx, oldID).Return(nil).Once()
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(revived, nil).Once()
		accountRepo.On("SetVerificationCode", ctx, oldID, mock.AnythingOfType("int"), mock.AnythingOfType("time.Time"), mock.Anything).Return(nil).Once()
		sender.On("Send", ctx, []string{"kid@mail.com"}, mock.Anything, mock.Anything).Return(nil).Once()

		account, err := uc.Register(ctx, &entities.RegisterInput{Email: "kid@mail.com", Password: "newpassword"})
		require.NoError(t, err)
		assert.Equal(t, oldID, account.ID)
		accountRepo.AssertExpectations(t)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)

	t.Run("success issues and persists token", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", PasswordHash: hash, Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(nil).Once()

		result, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", result.TokenType)
		assert.Equal(t, account.ID, result.AccountID)
		assert.NotEmpty(t, result.AccessToken)
		accountRepo.AssertExpectations(t)
	})

	t.Run("unknown email reads as not registered", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		accountRepo.On("GetByEmail", ctx, "ghost@mail.com").Return(nil, domainerrors.ErrNotFound).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "ghost@mail.com", Password: "whatever1"})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("deleted account rejected", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), PasswordHash: hash, Activated: entities.StatusDeleted}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "password123"})
		assert.ErrorIs(t, err, domainerrors.ErrAccountDeleted)
	})

	t.Run("unverified account rejected", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), PasswordHash: hash, Activated: entities.StatusUnverified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "password123"})
		assert.ErrorIs(t, err, domainerrors.ErrNotVerified)
	})

	t.Run("unverified reported before password check", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), PasswordHash: hash, Activated: entities.StatusUnverified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "wrongpassword"})
		assert.ErrorIs(t, err, domainerrors.ErrNotVerified)
	})

	t.Run("wrong password on a verified account", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), PasswordHash: hash, Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "wrongpassword"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("reconciliation failure does not fail login", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), PasswordHash: hash, Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.Anything, mock.Anything).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(errors.New("db down")).Once()

		_, err := uc.Login(ctx, &entities.LoginInput{Email: "kid@mail.com", Password: "password123"})
		assert.NoError(t, err)
	})
}

func TestAuthUsecase_LoginWithGoogle(t *testing.T) {
	ctx := context.Background()
	profile := &entities.GoogleProfile{
		Email:      "kid@mail.com",
		Name:       "Kid Parent",
		PictureURL: "https://lh3.example/avatar.png",
	}

	t.Run("new identity creates a verified account", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(nil, domainerrors.ErrNotFound).Once()
		var created *entities.Account
		accountRepo.On("Create", ctx, mock.AnythingOfType("*entities.Account")).Run(func(args mock.Arguments) {
			created = args.Get(1).(*entities.Account)
		}).Return(nil).Once()
		accountRepo.On("SetToken", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

		result, err := uc.LoginWithGoogle(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "bearer", result.TokenType)
		assert.NotEmpty(t, result.AccessToken)

		require.NotNil(t, created)
		assert.Equal(t, entities.StatusVerified, created.Activated)
		assert.Equal(t, entities.PlanFree, created.CurrentPlan)
		assert.Equal(t, "Kid Parent", created.Name)
		assert.Equal(t, "https://lh3.example/avatar.png", created.ProfilePictureURL)
		assert.NotEmpty(t, created.PasswordHash)
		assert.False(t, crypto.CheckPassword("password123", created.PasswordHash))
		accountRepo.AssertExpectations(t)
		reconciler.AssertExpectations(t)
	})

	t.Run("existing account is refreshed and verified", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusUnverified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, account.ID, map[string]interface{}{
			"activated":           entities.StatusVerified,
			"name":                "Kid Parent",
			"profile_picture_url": "https://lh3.example/avatar.png",
		}).Return(nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.Anything, mock.Anything).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(nil).Once()

		result, err := uc.LoginWithGoogle(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, account.ID, result.AccountID)
		accountRepo.AssertExpectations(t)
	})

	t.Run("deleted account is resurrected as verified", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusDeleted}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, account.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["activated"] == entities.StatusVerified
		})).Return(nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.Anything, mock.Anything).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(nil).Once()

		_, err := uc.LoginWithGoogle(ctx, profile)
		require.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})

	t.Run("empty profile fields are not written", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Name: "Kept", Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, account.ID, map[string]interface{}{
			"activated": entities.StatusVerified,
		}).Return(nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.Anything, mock.Anything).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(nil).Once()

		_, err := uc.LoginWithGoogle(ctx, &entities.GoogleProfile{Email: "kid@mail.com"})
		require.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})

	t.Run("missing email is rejected", func(t *testing.T) {
		uc := newAuthUsecaseForTest(new(MockAccountRepository), new(MockReconciler), new(MockSender))

		_, err := uc.LoginWithGoogle(ctx, &entities.GoogleProfile{Name: "No Email"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	})

	t.Run("reconciliation failure fails the login", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		reconciler := new(MockReconciler)
		uc := newAuthUsecaseForTest(accountRepo, reconciler, new(MockSender))

		account := &entities.Account{ID: uuid.New(), Email: "kid@mail.com", Activated: entities.StatusVerified}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, account.ID, mock.Anything).Return(nil).Once()
		accountRepo.On("SetToken", ctx, account.ID, mock.Anything, mock.Anything).Return(nil).Once()
		reconciler.On("EnsureValid", ctx, account.ID).Return(errors.New("db down")).Once()

		_, err := uc.LoginWithGoogle(ctx, profile)
		assert.Error(t, err)
	})
}

func TestAuthUsecase_Authenticate(t *testing.T) {
	ctx := context.Background()
	accountRepo := new(MockAccountRepository)
	reconciler := new(MockReconciler)
	tokens := token.NewService("test-secret", time.Hour)
	verification := usecases.NewVerificationUsecase(accountRepo, new(MockSender), time.Hour)
	uc := usecases.NewAuthUsecase(accountRepo, reconciler, tokens, verification)

	accountID := uuid.New()
	tokenString, _, err := tokens.Issue(accountID)
	require.NoError(t, err)

	t.Run("valid token resolves account", func(t *testing.T) {
		account := &entities.Account{ID: accountID, Activated: entities.StatusVerified}
		accountRepo.On("GetByID", ctx, accountID).Return(account, nil).Once()

		got, err := uc.Authenticate(ctx, tokenString)
		require.NoError(t, err)
		assert.Equal(t, accountID, got.ID)
	})

	t.Run("deleted account rejected despite valid token", func(t *testing.T) {
		account := &entities.Account{ID: accountID, Activated: entities.StatusDeleted}
		accountRepo.On("GetByID", ctx, accountID).Return(account, nil).Once()

		_, err := uc.Authenticate(ctx, tokenString)
		assert.ErrorIs(t, err, domainerrors.ErrAccountDeleted)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := uc.Authenticate(ctx, "not-a-token")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expiredTokens := token.NewService("test-secret", -time.Minute)
		expired, _, err := expiredTokens.Issue(accountID)
		require.NoError(t, err)

		_, err = uc.Authenticate(ctx, expired)
		assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	})
}

func TestAuthUsecase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete kills the session", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		accountID := uuid.New()
		account := &entities.Account{ID: accountID, Activated: entities.StatusVerified}
		accountRepo.On("GetByID", ctx, accountID).Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, accountID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["activated"] == entities.StatusDeleted && fields["token_expire"] == entities.TokenExpireSentinel
		})).Return(nil).Once()

		require.NoError(t, uc.Delete(ctx, accountID))
		accountRepo.AssertExpectations(t)
	})

	t.Run("deleting twice is a no-op", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		accountID := uuid.New()
		account := &entities.Account{ID: accountID, Activated: entities.StatusDeleted}
		accountRepo.On("GetByID", ctx, accountID).Return(account, nil).Once()

		require.NoError(t, uc.Delete(ctx, accountID))
		accountRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthUsecase_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected before reset code verification", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), Activated: entities.StatusVerified, ResetVerified: false}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()

		err := uc.ResetPassword(ctx, "kid@mail.com", "newpassword1")
		assert.ErrorIs(t, err, domainerrors.ErrResetNotVerified)
	})

	t.Run("consumes the verified flag and expires the session", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		account := &entities.Account{ID: uuid.New(), Activated: entities.StatusVerified, ResetVerified: true}
		accountRepo.On("GetByEmail", ctx, "kid@mail.com").Return(account, nil).Once()
		accountRepo.On("UpdateFields", ctx, account.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["reset_verified"] == false && fields["token_expire"] == entities.TokenExpireSentinel && fields["password_hash"] != ""
		})).Return(nil).Once()

		require.NoError(t, uc.ResetPassword(ctx, "kid@mail.com", "newpassword1"))
		accountRepo.AssertExpectations(t)
	})
}

func TestAuthUsecase_Refresh(t *testing.T) {
	ctx := context.Background()
	accountRepo := new(MockAccountRepository)
	reconciler := new(MockReconciler)
	tokens := token.NewService("test-secret", time.Hour)
	verification := usecases.NewVerificationUsecase(accountRepo, new(MockSender), time.Hour)
	uc := usecases.NewAuthUsecase(accountRepo, reconciler, tokens, verification)

	accountID := uuid.New()
	oldToken, _, err := tokens.Issue(accountID)
	require.NoError(t, err)

	account := &entities.Account{ID: accountID, Activated: entities.StatusVerified}
	accountRepo.On("GetByID", ctx, accountID).Return(account, nil).Once()
	accountRepo.On("SetToken", ctx, accountID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := uc.Refresh(ctx, oldToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, result.AccountID)

	claims, err := tokens.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
}

func TestAuthUsecase_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("email change checks uniqueness", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		accountID := uuid.New()
		current := &entities.Account{ID: accountID, Email: "old@mail.com", Activated: entities.StatusVerified}
		taken := &entities.Account{ID: uuid.New(), Email: "taken@mail.com"}
		accountRepo.On("GetByID", ctx, accountID).Return(current, nil).Once()
		accountRepo.On("GetByEmail", ctx, "taken@mail.com").Return(taken, nil).Once()

		_, err := uc.UpdateProfile(ctx, accountID, &entities.UpdateProfileInput{Email: "taken@mail.com"})
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})

	t.Run("zero values leave fields unchanged", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		uc := newAuthUsecaseForTest(accountRepo, new(MockReconciler), new(MockSender))

		accountID := uuid.New()
		current := &entities.Account{ID: accountID, Email: "old@mail.com", Name: "Kid"}
		accountRepo.On("GetByID", ctx, accountID).Return(current, nil).Once()

		got, err := uc.UpdateProfile(ctx, accountID, &entities.UpdateProfileInput{})
		require.NoError(t, err)
		assert.Equal(t, "Kid", got.Name)
		accountRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}
