package repositories

import (
	"context"

	"github.com/google/uuid"
	"lumikid.backend/internal/domain/entities"
)

// SubscriptionRepository defines subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entities.Subscription) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*entities.Subscription, error)
	Update(ctx context.Context, sub *entities.Subscription) error
}

// HistoryRepository appends plan-transition ledger entries
type HistoryRepository interface {
	Append(ctx context.Context, entry *entities.SubscriptionHistory) error
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.SubscriptionHistory, error)
}

// ProcessedEventRepository is the webhook idempotency ledger. MarkProcessed
// returns false when the event id was already recorded.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}
