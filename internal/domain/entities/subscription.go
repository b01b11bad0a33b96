package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Plan labels
const (
	PlanFree = "Free"
	PlanPro  = "Pro"
)

// Billing durations
const (
	DurationMonthly   = "monthly"
	DurationQuarterly = "quarterly"
	DurationYearly    = "yearly"
)

// Subscription represents the current billing state of one account.
// Canonical Free form: plan="Free", status=true, expire_at null. Every
// transition path produces exactly this shape for Free.
type Subscription struct {
	ID                uuid.UUID   `json:"id"`
	AccountID         uuid.UUID   `json:"accountId"`
	Plan              string      `json:"plan"`
	Status            bool        `json:"status"`
	ExpireAt          null.Time   `json:"expireAt"`
	AutoRenew         bool        `json:"autoRenew"`
	NextBillingDate   null.Time   `json:"nextBillingDate"`
	NextBillingMethod string      `json:"nextBillingMethod"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// SubscriptionHistory is an append-only ledger entry recording one plan
// transition. Entries are never updated or deleted.
type SubscriptionHistory struct {
	ID        uuid.UUID `json:"id"`
	SubID     uuid.UUID `json:"subId"`
	AccountID uuid.UUID `json:"accountId"`
	PrePlan   string    `json:"prePlan"`
	NewPlan   string    `json:"newPlan"`
	CreatedAt time.Time `json:"createdAt"`
}

// PurchaseInput represents a checkout-session request
type PurchaseInput struct {
	Plan        string `json:"plan" binding:"required,oneof=Free Pro"`
	Duration    string `json:"duration" binding:"omitempty,oneof=monthly quarterly yearly"`
	AutoRenew   *bool  `json:"auto_renew"`
	RenewMethod string `json:"renew_method"`
}

// PaymentCompleted is the normalized shape of a completed-payment webhook
// event after signature verification.
type PaymentCompleted struct {
	EventID     string
	AccountID   uuid.UUID
	Plan        string
	Duration    string
	AutoRenew   bool
	RenewMethod string
}
