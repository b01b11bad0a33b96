package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/domain/repositories"
	"lumikid.backend/pkg/crypto"
	"lumikid.backend/pkg/logger"
	"lumikid.backend/pkg/token"
)

// Reconciler brings one account's subscription in line with the clock
type Reconciler interface {
	EnsureValid(ctx context.Context, accountID uuid.UUID) error
}

// AuthUsecase handles registration, sessions and the account state machine
type AuthUsecase struct {
	accountRepo  repositories.AccountRepository
	reconciler   Reconciler
	tokens       *token.Service
	verification *VerificationUsecase
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	accountRepo repositories.AccountRepository,
	reconciler Reconciler,
	tokens *token.Service,
	verification *VerificationUsecase,
) *AuthUsecase {
	return &AuthUsecase{
		accountRepo:  accountRepo,
		reconciler:   reconciler,
		tokens:       tokens,
		verification: verification,
	}
}

// Register creates an account in the unverified state. An email that belongs
// to a deleted account resurrects the old row under the new password; the row
// id is preserved. Verified and pending rows are conflicts.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.Account, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	existing, err := u.accountRepo.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	var account *entities.Account
	switch {
	case existing == nil:
		account = &entities.Account{
			ID:           uuid.New(),
			Email:        input.Email,
			PasswordHash: hash,
			CurrentPlan:  entities.PlanFree,
			Activated:    entities.StatusUnverified,
			TokenExpire:  entities.TokenExpireSentinel,
		}
		if err := u.accountRepo.Create(ctx, account); err != nil {
			return nil, err
		}
	case existing.Activated == entities.StatusVerified:
		return nil, domainerrors.ErrAlreadyExists
	case existing.Activated == entities.StatusUnverified:
		return nil, domainerrors.ErrPendingVerification
	default:
		// Deleted row: resurrect in place.
		if err := u.accountRepo.UpdateFields(ctx, existing.ID, map[string]interface{}{
			"password_hash": hash,
			"activated":     entities.StatusUnverified,
			"current_plan":  entities.PlanFree,
			"token":         "",
			"token_expire":  entities.TokenExpireSentinel,
		}); err != nil {
			return nil, err
		}
		account, err = u.accountRepo.GetByID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := u.reconciler.EnsureValid(ctx, account.ID); err != nil {
		return nil, err
	}
	if err := u.verification.SendVerificationEmail(ctx, account.Email); err != nil {
		return nil, err
	}
	return account, nil
}

// VerifyEmail consumes a pending verification code and moves the account to
// the verified state.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, emailAddr, code string) error {
	account, err := u.accountRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	switch account.Activated {
	case entities.StatusDeleted:
		return domainerrors.ErrAccountDeleted
	case entities.StatusVerified:
		return domainerrors.ErrAlreadyVerified
	}
	if err := u.verification.Check(ctx, account, code); err != nil {
		return err
	}
	return u.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"activated": entities.StatusVerified,
	})
}

// Login authenticates by password, persists a fresh session token on the row
// and opportunistically reconciles the subscription. Failures are reported in
// state order: unknown email, deleted, unverified, then bad password.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.LoginResult, error) {
	account, err := u.accountRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if account.Activated == entities.StatusDeleted {
		return nil, domainerrors.ErrAccountDeleted
	}
	if account.Activated == entities.StatusUnverified {
		return nil, domainerrors.ErrNotVerified
	}
	if !crypto.CheckPassword(input.Password, account.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	result, err := u.issueSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	if err := u.reconciler.EnsureValid(ctx, account.ID); err != nil {
		logger.Warn(ctx, "login: subscription reconciliation failed",
			zap.String("account_id", account.ID.String()), zap.Error(err))
	}
	return result, nil
}

// LoginWithGoogle upserts the account behind a Google-verified identity and
// issues a session. The provider has already confirmed ownership of the email,
// so the account lands in the verified state whatever its previous one was;
// a deleted row is resurrected the same way.
func (u *AuthUsecase) LoginWithGoogle(ctx context.Context, profile *entities.GoogleProfile) (*entities.LoginResult, error) {
	if profile.Email == "" {
		return nil, domainerrors.ErrInvalidInput
	}

	account, err := u.accountRepo.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		fields := map[string]interface{}{
			"activated": entities.StatusVerified,
		}
		if profile.Name != "" {
			fields["name"] = profile.Name
		}
		if profile.PictureURL != "" {
			fields["profile_picture_url"] = profile.PictureURL
		}
		if err := u.accountRepo.UpdateFields(ctx, account.ID, fields); err != nil {
			return nil, err
		}
	case errors.Is(err, domainerrors.ErrNotFound):
		// Password login stays unusable for this row until the owner runs a
		// reset: the placeholder never leaves this scope.
		hash, err := crypto.HashPassword(uuid.NewString())
		if err != nil {
			return nil, err
		}
		account = &entities.Account{
			ID:                uuid.New(),
			Email:             profile.Email,
			PasswordHash:      hash,
			Name:              profile.Name,
			ProfilePictureURL: profile.PictureURL,
			CurrentPlan:       entities.PlanFree,
			Activated:         entities.StatusVerified,
			TokenExpire:       entities.TokenExpireSentinel,
		}
		if err := u.accountRepo.Create(ctx, account); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	result, err := u.issueSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := u.reconciler.EnsureValid(ctx, account.ID); err != nil {
		return nil, err
	}
	return result, nil
}

// Refresh trades a valid session token for a fresh one
func (u *AuthUsecase) Refresh(ctx context.Context, tokenString string) (*entities.LoginResult, error) {
	account, err := u.Authenticate(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return u.issueSession(ctx, account.ID)
}

// Authenticate resolves a bearer token to a live account. Deleted accounts
// fail even when the token itself still verifies.
func (u *AuthUsecase) Authenticate(ctx context.Context, tokenString string) (*entities.Account, error) {
	claims, err := u.tokens.Verify(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, domainerrors.ErrTokenExpired
		}
		return nil, domainerrors.ErrInvalidToken
	}
	account, err := u.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidToken
		}
		return nil, err
	}
	if account.Activated == entities.StatusDeleted {
		return nil, domainerrors.ErrAccountDeleted
	}
	return account, nil
}

// Delete soft-deletes the account and kills its session. Repeated deletes
// succeed without effect.
func (u *AuthUsecase) Delete(ctx context.Context, accountID uuid.UUID) error {
	account, err := u.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Activated == entities.StatusDeleted {
		return nil
	}
	return u.accountRepo.UpdateFields(ctx, accountID, map[string]interface{}{
		"activated":    entities.StatusDeleted,
		"token_expire": entities.TokenExpireSentinel,
	})
}

// VerifyResetCode checks a password-reset code and marks the account as
// cleared to set a new password.
func (u *AuthUsecase) VerifyResetCode(ctx context.Context, emailAddr, code string) error {
	account, err := u.accountRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if account.Activated == entities.StatusDeleted {
		return domainerrors.ErrAccountDeleted
	}
	if err := u.verification.Check(ctx, account, code); err != nil {
		return err
	}
	return u.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"reset_verified": true,
	})
}

// ResetPassword sets a new password after the reset code has been verified.
// The verified flag is single-use.
func (u *AuthUsecase) ResetPassword(ctx context.Context, emailAddr, newPassword string) error {
	account, err := u.accountRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if account.Activated == entities.StatusDeleted {
		return domainerrors.ErrAccountDeleted
	}
	if !account.ResetVerified {
		return domainerrors.ErrResetNotVerified
	}
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return u.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"password_hash":  hash,
		"reset_verified": false,
		"token_expire":   entities.TokenExpireSentinel,
	})
}

// GetMe returns the authenticated account's profile
func (u *AuthUsecase) GetMe(ctx context.Context, accountID uuid.UUID) (*entities.Account, error) {
	return u.accountRepo.GetByID(ctx, accountID)
}

// UpdateProfile applies the non-zero profile fields
func (u *AuthUsecase) UpdateProfile(ctx context.Context, accountID uuid.UUID, input *entities.UpdateProfileInput) (*entities.Account, error) {
	fields := map[string]interface{}{}
	if input.Email != "" {
		current, err := u.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if input.Email != current.Email {
			if _, err := u.accountRepo.GetByEmail(ctx, input.Email); err == nil {
				return nil, domainerrors.ErrAlreadyExists
			} else if !errors.Is(err, domainerrors.ErrNotFound) {
				return nil, err
			}
			fields["email"] = input.Email
		}
	}
	if input.Name != "" {
		fields["name"] = input.Name
	}
	if input.ProfilePictureURL != "" {
		fields["profile_picture_url"] = input.ProfilePictureURL
	}
	if input.Gender != "" {
		fields["gender"] = input.Gender
	}
	if input.Age != 0 {
		fields["age"] = input.Age
	}
	if len(fields) > 0 {
		if err := u.accountRepo.UpdateFields(ctx, accountID, fields); err != nil {
			return nil, err
		}
	}
	return u.accountRepo.GetByID(ctx, accountID)
}

func (u *AuthUsecase) issueSession(ctx context.Context, accountID uuid.UUID) (*entities.LoginResult, error) {
	tokenString, expire, err := u.tokens.Issue(accountID)
	if err != nil {
		return nil, err
	}
	if err := u.accountRepo.SetToken(ctx, accountID, tokenString, expire); err != nil {
		return nil, err
	}
	return &entities.LoginResult{
		AccessToken: tokenString,
		TokenType:   "bearer",
		AccountID:   accountID,
	}, nil
}

// TokenTTL exposes the session lifetime for handlers that report it
func (u *AuthUsecase) TokenTTL() time.Duration {
	return u.tokens.TTL()
}
