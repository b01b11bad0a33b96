package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// AccountKey is the context key for the authenticated account
	AccountKey = "account"
	// AccountIDKey is the context key for the authenticated account id
	AccountIDKey = "accountId"
)

// Authenticator resolves a bearer token to a live account
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*entities.Account, error)
}

// AuthMiddleware creates a new authentication middleware. Token validity is
// checked against the account row, so a deleted account is rejected even
// while its token would still verify.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		account, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, domainerrors.ErrTokenExpired) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(AccountKey, account)
		c.Set(AccountIDKey, account.ID)

		c.Next()
	}
}

// GetAccount gets the authenticated account from context
func GetAccount(c *gin.Context) (*entities.Account, bool) {
	v, exists := c.Get(AccountKey)
	if !exists {
		return nil, false
	}
	return v.(*entities.Account), true
}

// GetAccountID gets the authenticated account id from context
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(AccountIDKey)
	if !exists {
		return uuid.Nil, false
	}
	return v.(uuid.UUID), true
}
