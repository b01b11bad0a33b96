package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lumikid.backend/internal/infrastructure/models"
)

// ProcessedEventRepository implements the webhook idempotency ledger
type ProcessedEventRepository struct {
	db *gorm.DB
}

// NewProcessedEventRepository creates a new processed-event repository
func NewProcessedEventRepository(db *gorm.DB) *ProcessedEventRepository {
	return &ProcessedEventRepository{db: db}
}

// MarkProcessed records an event id, returning false when it was already
// present. Insert-if-absent keeps the check race-safe under concurrent
// deliveries of the same event.
func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProcessedEvent{EventID: eventID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
