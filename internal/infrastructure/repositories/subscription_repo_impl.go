package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/infrastructure/models"
)

// SubscriptionRepository implements subscription data operations
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription row
func (r *SubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	m := &models.Subscription{
		ID:                sub.ID,
		AccountID:         sub.AccountID,
		Plan:              sub.Plan,
		Status:            sub.Status,
		ExpireAt:          sub.ExpireAt.Ptr(),
		AutoRenew:         sub.AutoRenew,
		NextBillingDate:   sub.NextBillingDate.Ptr(),
		NextBillingMethod: sub.NextBillingMethod,
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	sub.ID = m.ID
	sub.CreatedAt = m.CreatedAt
	return nil
}

// GetByAccountID returns the subscription for one account. The data layer
// does not enforce a singleton row; the oldest row wins.
func (r *SubscriptionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*entities.Subscription, error) {
	var m models.Subscription
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toSubscriptionEntity(&m), nil
}

// Update rewrites the mutable subscription fields
func (r *SubscriptionRepository) Update(ctx context.Context, sub *entities.Subscription) error {
	updates := map[string]interface{}{
		"plan":                sub.Plan,
		"status":              sub.Status,
		"expire_at":           sub.ExpireAt.Ptr(),
		"auto_renew":          sub.AutoRenew,
		"next_billing_date":   sub.NextBillingDate.Ptr(),
		"next_billing_method": sub.NextBillingMethod,
	}
	result := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toSubscriptionEntity(m *models.Subscription) *entities.Subscription {
	return &entities.Subscription{
		ID:                m.ID,
		AccountID:         m.AccountID,
		Plan:              m.Plan,
		Status:            m.Status,
		ExpireAt:          null.TimeFromPtr(m.ExpireAt),
		AutoRenew:         m.AutoRenew,
		NextBillingDate:   null.TimeFromPtr(m.NextBillingDate),
		NextBillingMethod: m.NextBillingMethod,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
