package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lumikid.backend/internal/domain/entities"
	"lumikid.backend/internal/infrastructure/models"
)

// HistoryRepository implements the append-only plan-transition ledger
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append writes one ledger entry
func (r *HistoryRepository) Append(ctx context.Context, entry *entities.SubscriptionHistory) error {
	m := &models.SubscriptionHistory{
		ID:        entry.ID,
		SubID:     entry.SubID,
		AccountID: entry.AccountID,
		PrePlan:   entry.PrePlan,
		NewPlan:   entry.NewPlan,
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}

// ListByAccountID returns the ledger for one account, oldest first
func (r *HistoryRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.SubscriptionHistory, error) {
	var rows []models.SubscriptionHistory
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*entities.SubscriptionHistory, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, &entities.SubscriptionHistory{
			ID:        m.ID,
			SubID:     m.SubID,
			AccountID: m.AccountID,
			PrePlan:   m.PrePlan,
			NewPlan:   m.NewPlan,
			CreatedAt: m.CreatedAt,
		})
	}
	return entries, nil
}
