package usecases

import (
	"context"

	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/domain/repositories"
	"lumikid.backend/pkg/crypto"
)

// ParentalUsecase manages the parental control password, a second credential
// scoped to grown-up actions inside the app.
type ParentalUsecase struct {
	accountRepo  repositories.AccountRepository
	verification *VerificationUsecase
}

// NewParentalUsecase creates a new parental password usecase
func NewParentalUsecase(accountRepo repositories.AccountRepository, verification *VerificationUsecase) *ParentalUsecase {
	return &ParentalUsecase{accountRepo: accountRepo, verification: verification}
}

// Set stores the parental password. It can only be set once; later updates go
// through the code-gated Change.
func (u *ParentalUsecase) Set(ctx context.Context, input *entities.ParentPasswordInput) error {
	account, err := u.lookup(ctx, input.Email)
	if err != nil {
		return err
	}
	if account.ParentPassword.Valid && account.ParentPassword.String != "" {
		return domainerrors.ErrAlreadyExists
	}
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return err
	}
	return u.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"parent_password": hash,
	})
}

// Check reports whether the submitted parental password matches. An absent
// stored password is an ordinary mismatch, not an error.
func (u *ParentalUsecase) Check(ctx context.Context, input *entities.ParentPasswordInput) (bool, error) {
	account, err := u.lookup(ctx, input.Email)
	if err != nil {
		return false, err
	}
	if !account.ParentPassword.Valid || account.ParentPassword.String == "" {
		return false, nil
	}
	return crypto.CheckPassword(input.Password, account.ParentPassword.String), nil
}

// Change replaces the parental password after a valid code check
func (u *ParentalUsecase) Change(ctx context.Context, input *entities.ParentPasswordChange) error {
	account, err := u.lookup(ctx, input.Email)
	if err != nil {
		return err
	}
	if err := u.verification.Check(ctx, account, input.Code); err != nil {
		return err
	}
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return err
	}
	return u.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"parent_password": hash,
	})
}

func (u *ParentalUsecase) lookup(ctx context.Context, emailAddr string) (*entities.Account, error) {
	account, err := u.accountRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if account.Activated == entities.StatusDeleted {
		return nil, domainerrors.ErrAccountDeleted
	}
	return account, nil
}
