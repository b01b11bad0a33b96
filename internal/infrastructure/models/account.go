package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash      string    `gorm:"type:varchar(255);not null"`
	Name              string    `gorm:"type:varchar(100);not null;default:'Guest'"`
	ProfilePictureURL string    `gorm:"type:text"`
	Gender            string    `gorm:"type:varchar(10);not null;default:'Unset'"`
	Age               int       `gorm:"not null;default:3"`
	CurrentPlan       string    `gorm:"type:varchar(50);not null;default:'Free'"`
	Activated         int       `gorm:"not null;default:0;index"`
	Token             string    `gorm:"type:text"`
	TokenExpire       time.Time `gorm:"not null"`
	VerificationCode  *int
	CodeExpire        *time.Time
	ParentPassword    *string `gorm:"type:varchar(255)"`
	ResetVerified     bool    `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Account) TableName() string {
	return "accounts"
}
