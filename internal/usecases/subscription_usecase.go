package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/domain/repositories"
	"lumikid.backend/internal/infrastructure/email"
	"lumikid.backend/internal/infrastructure/payments"
	"lumikid.backend/pkg/logger"
)

// CheckoutClient opens hosted checkout sessions
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error)
}

// SubscriptionUsecase reconciles subscription state against time and
// payment events. Free has exactly one canonical shape everywhere:
// plan="Free", status=true, expire_at null.
type SubscriptionUsecase struct {
	accountRepo repositories.AccountRepository
	subRepo     repositories.SubscriptionRepository
	historyRepo repositories.HistoryRepository
	eventRepo   repositories.ProcessedEventRepository
	sender      email.Sender
	checkout    CheckoutClient
}

// NewSubscriptionUsecase creates a new subscription usecase
func NewSubscriptionUsecase(
	accountRepo repositories.AccountRepository,
	subRepo repositories.SubscriptionRepository,
	historyRepo repositories.HistoryRepository,
	eventRepo repositories.ProcessedEventRepository,
	sender email.Sender,
	checkout CheckoutClient,
) *SubscriptionUsecase {
	return &SubscriptionUsecase{
		accountRepo: accountRepo,
		subRepo:     subRepo,
		historyRepo: historyRepo,
		eventRepo:   eventRepo,
		sender:      sender,
		checkout:    checkout,
	}
}

// GetCurrent returns the account's subscription, or nil when none exists yet
func (u *SubscriptionUsecase) GetCurrent(ctx context.Context, accountID uuid.UUID) (*entities.Subscription, error) {
	sub, err := u.subRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// EnsureValid checks the subscription against the clock and downgrades it to
// canonical Free when missing, inactive or expired. Idempotent: an account
// already in the canonical Free state is left untouched and no history row
// is appended.
func (u *SubscriptionUsecase) EnsureValid(ctx context.Context, accountID uuid.UUID) error {
	sub, err := u.GetCurrent(ctx, accountID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	valid := sub != nil && sub.Status && (!sub.ExpireAt.Valid || sub.ExpireAt.Time.After(now))
	if valid && sub.Plan == entities.PlanFree && sub.ExpireAt.Valid {
		// A Free plan with an expiry is off-canon; normalize it.
		valid = false
	}
	if valid {
		return nil
	}

	return u.transitionToFree(ctx, accountID, sub)
}

// Cancel downgrades an existing subscription to canonical Free
func (u *SubscriptionUsecase) Cancel(ctx context.Context, accountID uuid.UUID) error {
	sub, err := u.GetCurrent(ctx, accountID)
	if err != nil {
		return err
	}
	if sub == nil {
		return domainerrors.ErrNotFound
	}
	if sub.Plan == entities.PlanFree && sub.Status && !sub.ExpireAt.Valid {
		// Nothing to cancel; keep the ledger free of no-op rows.
		return nil
	}
	return u.transitionToFree(ctx, accountID, sub)
}

// transitionToFree is the single path to the Free plan, used by lazy
// creation, lapse and cancellation alike.
func (u *SubscriptionUsecase) transitionToFree(ctx context.Context, accountID uuid.UUID, sub *entities.Subscription) error {
	prePlan := ""
	if sub != nil {
		prePlan = sub.Plan
	}

	if sub == nil {
		sub = &entities.Subscription{
			AccountID: accountID,
			Plan:      entities.PlanFree,
			Status:    true,
		}
		if err := u.subRepo.Create(ctx, sub); err != nil {
			return err
		}
	} else {
		sub.Plan = entities.PlanFree
		sub.Status = true
		sub.ExpireAt = null.Time{}
		sub.AutoRenew = false
		sub.NextBillingDate = null.Time{}
		sub.NextBillingMethod = ""
		if err := u.subRepo.Update(ctx, sub); err != nil {
			return err
		}
	}

	if err := u.accountRepo.UpdateFields(ctx, accountID, map[string]interface{}{
		"current_plan": entities.PlanFree,
	}); err != nil {
		return err
	}

	return u.historyRepo.Append(ctx, &entities.SubscriptionHistory{
		SubID:     sub.ID,
		AccountID: accountID,
		PrePlan:   prePlan,
		NewPlan:   entities.PlanFree,
	})
}

// ApplyPayment applies one completed-payment event. The idempotency ledger
// makes redelivery of the same event id a no-op, so webhook retries never
// double-extend the expiry.
func (u *SubscriptionUsecase) ApplyPayment(ctx context.Context, event *entities.PaymentCompleted) error {
	fresh, err := u.eventRepo.MarkProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !fresh {
		logger.Info(ctx, "duplicate payment event ignored", zap.String("event_id", event.EventID))
		return nil
	}

	now := time.Now().UTC()
	sub, err := u.GetCurrent(ctx, event.AccountID)
	if err != nil {
		return err
	}

	// Extend from a still-running paid subscription, otherwise from now.
	expireBase := now
	if sub != nil && sub.Status && sub.ExpireAt.Valid && sub.Plan != entities.PlanFree && sub.ExpireAt.Time.After(now) {
		expireBase = sub.ExpireAt.Time
	}
	days := 30
	if event.Duration == entities.DurationYearly {
		days = 365
	}
	expire := expireBase.AddDate(0, 0, days)

	prePlan := entities.PlanFree
	if sub != nil {
		prePlan = sub.Plan
		sub.Plan = event.Plan
		sub.Status = true
		sub.ExpireAt = null.TimeFrom(expire)
		sub.AutoRenew = event.AutoRenew
		sub.NextBillingDate = null.TimeFrom(expire)
		sub.NextBillingMethod = event.RenewMethod
		if err := u.subRepo.Update(ctx, sub); err != nil {
			return err
		}
	} else {
		sub = &entities.Subscription{
			AccountID:         event.AccountID,
			Plan:              event.Plan,
			Status:            true,
			ExpireAt:          null.TimeFrom(expire),
			AutoRenew:         event.AutoRenew,
			NextBillingDate:   null.TimeFrom(expire),
			NextBillingMethod: event.RenewMethod,
		}
		if err := u.subRepo.Create(ctx, sub); err != nil {
			return err
		}
	}

	if err := u.historyRepo.Append(ctx, &entities.SubscriptionHistory{
		SubID:     sub.ID,
		AccountID: event.AccountID,
		PrePlan:   prePlan,
		NewPlan:   event.Plan,
	}); err != nil {
		return err
	}

	if err := u.accountRepo.UpdateFields(ctx, event.AccountID, map[string]interface{}{
		"current_plan": event.Plan,
	}); err != nil {
		return err
	}

	u.sendConfirmation(ctx, event, expire)
	return nil
}

// sendConfirmation mails the receipt; delivery failure does not fail the
// payment application.
func (u *SubscriptionUsecase) sendConfirmation(ctx context.Context, event *entities.PaymentCompleted, expire time.Time) {
	account, err := u.accountRepo.GetByID(ctx, event.AccountID)
	if err != nil {
		logger.Warn(ctx, "confirmation email skipped", zap.Error(err))
		return
	}
	html, err := email.RenderSubscriptionConfirm(event.Plan, event.Duration, expire)
	if err != nil {
		logger.Warn(ctx, "confirmation email render failed", zap.Error(err))
		return
	}
	if err := u.sender.Send(ctx, []string{account.Email}, email.SubjectSubscription, html); err != nil {
		logger.Warn(ctx, "confirmation email send failed", zap.Error(err))
	}
}

// CreateCheckout opens a checkout session for a paid plan
func (u *SubscriptionUsecase) CreateCheckout(ctx context.Context, accountID uuid.UUID, input *entities.PurchaseInput) (*payments.CheckoutSession, error) {
	if input.Plan == entities.PlanFree {
		return nil, domainerrors.ErrBadRequest
	}

	account, err := u.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	duration := input.Duration
	if duration == "" {
		duration = entities.DurationMonthly
	}
	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}
	renewMethod := input.RenewMethod
	if renewMethod == "" {
		renewMethod = "credit_card"
	}

	return u.checkout.CreateCheckoutSession(ctx, payments.CheckoutParams{
		AccountID:     accountID,
		CustomerEmail: account.Email,
		Plan:          input.Plan,
		Duration:      duration,
		AutoRenew:     autoRenew,
		RenewMethod:   renewMethod,
	})
}

// SweepAll reconciles every account. One account's failure is logged and
// skipped; the sweep finishes regardless.
func (u *SubscriptionUsecase) SweepAll(ctx context.Context) error {
	ids, err := u.accountRepo.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := u.EnsureValid(ctx, id); err != nil {
			logger.Error(ctx, "sweep: reconciliation failed",
				zap.String("account_id", id.String()), zap.Error(err))
		}
	}
	return nil
}
