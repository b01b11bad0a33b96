package usecases

import (
	"context"
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/domain/repositories"
	"lumikid.backend/internal/infrastructure/email"
	"lumikid.backend/pkg/crypto"
)

// VerificationUsecase manages the one-slot verification code on each account.
// Codes are shared across purposes: issuing a code for any purpose overwrites
// a pending code for any other.
type VerificationUsecase struct {
	accountRepo repositories.AccountRepository
	sender      email.Sender
	codeTTL     time.Duration
}

// NewVerificationUsecase creates a new verification usecase
func NewVerificationUsecase(accountRepo repositories.AccountRepository, sender email.Sender, codeTTL time.Duration) *VerificationUsecase {
	return &VerificationUsecase{
		accountRepo: accountRepo,
		sender:      sender,
		codeTTL:     codeTTL,
	}
}

// SendVerificationEmail issues a fresh code for email verification.
// Registered-and-verified or deleted accounts are rejected.
func (u *VerificationUsecase) SendVerificationEmail(ctx context.Context, emailAddr string) error {
	account, err := u.lookup(ctx, emailAddr)
	if err != nil {
		return err
	}
	if account.Activated == entities.StatusVerified {
		return domainerrors.ErrAlreadyVerified
	}

	return u.issue(ctx, account, email.SubjectVerification, email.RenderVerification, null.Bool{})
}

// SendResetCode issues a fresh code for a password reset and clears any
// earlier reset approval.
func (u *VerificationUsecase) SendResetCode(ctx context.Context, emailAddr string) error {
	account, err := u.lookup(ctx, emailAddr)
	if err != nil {
		return err
	}
	return u.issue(ctx, account, email.SubjectPasswordRst, email.RenderPasswordReset, null.BoolFrom(false))
}

// SendParentPasswordCode issues a fresh code gating a parental password
// change. Only verified accounts qualify.
func (u *VerificationUsecase) SendParentPasswordCode(ctx context.Context, emailAddr string) error {
	account, err := u.lookup(ctx, emailAddr)
	if err != nil {
		return err
	}
	if account.Activated != entities.StatusVerified {
		return domainerrors.ErrNotVerified
	}
	return u.issue(ctx, account, email.SubjectParental, email.RenderParentPassword, null.Bool{})
}

// Check validates a submitted code against the account's pending one.
// Expiry is checked before the value; both sides compare as strings so
// numeric and string submissions behave identically. A successful check
// consumes the code.
func (u *VerificationUsecase) Check(ctx context.Context, account *entities.Account, submitted string) error {
	if !account.VerificationCode.Valid || !account.CodeExpire.Valid {
		return domainerrors.ErrCodeMismatch
	}
	if time.Now().UTC().After(account.CodeExpire.Time) {
		return domainerrors.ErrCodeExpired
	}
	if strconv.Itoa(account.VerificationCode.Int) != submitted {
		return domainerrors.ErrCodeMismatch
	}
	return u.accountRepo.ClearVerificationCode(ctx, account.ID)
}

// lookup resolves an email to a live (non-deleted) account
func (u *VerificationUsecase) lookup(ctx context.Context, emailAddr string) (*entities.Account, error) {
	account, err := u.accountRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if account.Activated == entities.StatusDeleted {
		return nil, domainerrors.ErrAccountDeleted
	}
	return account, nil
}

// issue persists a fresh code and then sends it. Persisting first means a
// delivered code is always checkable; a failed send leaves an unused code
// behind, which expires on its own.
func (u *VerificationUsecase) issue(ctx context.Context, account *entities.Account, subject string, render func(int) (string, error), resetVerified null.Bool) error {
	code, err := crypto.GenerateCode()
	if err != nil {
		return err
	}
	expire := time.Now().UTC().Add(u.codeTTL)

	if err := u.accountRepo.SetVerificationCode(ctx, account.ID, code, expire, resetVerified); err != nil {
		return err
	}

	html, err := render(code)
	if err != nil {
		return err
	}
	return u.sender.Send(ctx, []string{account.Email}, subject, html)
}
