package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/infrastructure/payments"
	"lumikid.backend/pkg/gate"
	"lumikid.backend/pkg/logger"
	"lumikid.backend/pkg/metrics"
)

// GateOpPaymentWebhook names the busy-flag slot guarding webhook application.
const GateOpPaymentWebhook = "payment_webhook"

// WebhookUsecase verifies provider webhooks and turns completed checkouts
// into subscription updates.
type WebhookUsecase struct {
	verifier      *payments.WebhookVerifier
	subscriptions *SubscriptionUsecase
	gate          *gate.Gate
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(verifier *payments.WebhookVerifier, subscriptions *SubscriptionUsecase, g *gate.Gate) *WebhookUsecase {
	return &WebhookUsecase{verifier: verifier, subscriptions: subscriptions, gate: g}
}

// HandleEvent verifies the payload, normalizes a completed checkout and
// applies it behind the busy-flag gate. Event types we do not act on are
// acknowledged so the provider stops redelivering them.
func (u *WebhookUsecase) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := u.verifier.ConstructEvent(payload, sigHeader)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		return err
	}

	if event.Type != payments.EventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		logger.Debug(ctx, "webhook event type ignored", zap.String("type", event.Type))
		return nil
	}

	completed, err := normalizeCheckout(event)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		return err
	}

	err = u.gate.Do(GateOpPaymentWebhook, func() error {
		return u.subscriptions.ApplyPayment(ctx, completed)
	})
	if errors.Is(err, gate.ErrBusy) || errors.Is(err, gate.ErrUnknownOperation) {
		metrics.WebhookEvents.WithLabelValues("busy").Inc()
		return fmt.Errorf("%w: %v", domainerrors.ErrBusy, err)
	}
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues("applied").Inc()
	return nil
}

func normalizeCheckout(event *payments.Event) (*entities.PaymentCompleted, error) {
	var session payments.SessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidPayload, err)
	}

	accountID, err := uuid.Parse(session.Metadata.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user_id in metadata", domainerrors.ErrInvalidPayload)
	}
	if session.Metadata.Plan == "" {
		return nil, fmt.Errorf("%w: missing plan in metadata", domainerrors.ErrInvalidPayload)
	}

	autoRenew, _ := strconv.ParseBool(session.Metadata.AutoRenew)

	return &entities.PaymentCompleted{
		EventID:     event.ID,
		AccountID:   accountID,
		Plan:        session.Metadata.Plan,
		Duration:    session.Metadata.Duration,
		AutoRenew:   autoRenew,
		RenewMethod: session.Metadata.RenewMethod,
	}, nil
}
