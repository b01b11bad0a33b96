package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"lumikid.backend/internal/domain/entities"
)

// AccountRepository defines account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// UpdateFields applies a partial update to one account row.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// SetToken persists the current session token and its expiry.
	SetToken(ctx context.Context, id uuid.UUID, token string, expire time.Time) error

	// SetVerificationCode overwrites the pending code and its expiry.
	// resetVerified, when non-null, also rewrites the reset_verified flag.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expire time.Time, resetVerified null.Bool) error

	// ClearVerificationCode consumes a checked code.
	ClearVerificationCode(ctx context.Context, id uuid.UUID) error
}
