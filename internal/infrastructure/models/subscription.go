package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	AccountID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Plan              string    `gorm:"type:varchar(50);not null"`
	Status            bool      `gorm:"not null;default:true"`
	ExpireAt          *time.Time
	AutoRenew         bool `gorm:"not null;default:false"`
	NextBillingDate   *time.Time
	NextBillingMethod string `gorm:"type:varchar(50)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Subscription) TableName() string {
	return "subscriptions"
}
