package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ActivationStatus represents the account state machine position
type ActivationStatus int

const (
	StatusDeleted    ActivationStatus = -1
	StatusUnverified ActivationStatus = 0
	StatusVerified   ActivationStatus = 1
)

// TokenExpireSentinel marks a token as expired without clearing the column.
// Deleted and freshly registered accounts get this far-past expiry.
var TokenExpireSentinel = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Account represents a user account. Rows are never physically removed:
// deletion sets the status to StatusDeleted and a later registration with the
// same email resurrects the row.
type Account struct {
	ID                uuid.UUID        `json:"id"`
	Email             string           `json:"email"`
	PasswordHash      string           `json:"-"`
	Name              string           `json:"name"`
	ProfilePictureURL string           `json:"profilePictureUrl"`
	Gender            string           `json:"gender"`
	Age               int              `json:"age"`
	CurrentPlan       string           `json:"currentPlan"`
	Activated         ActivationStatus `json:"activated"`
	Token             string           `json:"-"`
	TokenExpire       time.Time        `json:"-"`
	VerificationCode  null.Int         `json:"-"`
	CodeExpire        null.Time        `json:"-"`
	ParentPassword    null.String      `json:"-"`
	ResetVerified     bool             `json:"-"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// RegisterInput represents input for account registration
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginInput represents input for login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult carries the issued session token
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	AccountID   uuid.UUID `json:"user_id"`
}

// GoogleProfile carries the identity fields returned by the OAuth provider
type GoogleProfile struct {
	Email      string
	Name       string
	PictureURL string
}

// EmailInput represents a bare email payload
type EmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyCodeInput represents a submitted verification code. The code arrives
// as a string so numeric and string submissions compare the same way.
type VerifyCodeInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ParentPasswordInput represents set/check input for the parental password
type ParentPasswordInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ParentPasswordChange represents a code-gated parental password change
type ParentPasswordChange struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// UpdateProfileInput represents the mutable profile fields. Zero values mean
// "leave unchanged".
type UpdateProfileInput struct {
	Email             string `json:"email" binding:"omitempty,email"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Gender            string `json:"gender" binding:"omitempty,oneof=Male Female Unset"`
	Age               int    `json:"age" binding:"omitempty,min=1,max=18"`
}
