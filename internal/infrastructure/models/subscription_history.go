package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionHistory rows are write-once: no updates, no deletes.
type SubscriptionHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	SubID     uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	PrePlan   string    `gorm:"type:varchar(50);not null"`
	NewPlan   string    `gorm:"type:varchar(50);not null"`
	CreatedAt time.Time
}

func (SubscriptionHistory) TableName() string {
	return "subscription_history"
}
