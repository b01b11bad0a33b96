package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"lumikid.backend/pkg/crypto"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims represents the session token claims. Nonce makes two tokens issued
// for the same account within the same second distinct.
type Claims struct {
	AccountID uuid.UUID `json:"user_id"`
	Nonce     int       `json:"rnd"`
	jwt.RegisteredClaims
}

// Service issues and verifies signed session tokens
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a new token service
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue produces a signed token for one account. The caller persists the
// token and its expiry on the account row; Issue itself has no side effects.
func (s *Service) Issue(accountID uuid.UUID) (string, time.Time, error) {
	now := time.Now().UTC()
	expire := now.Add(s.ttl)

	nonce, err := crypto.GenerateCode()
	if err != nil {
		return "", time.Time{}, err
	}

	claims := &Claims{
		AccountID: accountID,
		Nonce:     nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expire),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expire, nil
}

// Verify checks the signature and the expiry embedded in the token itself.
// The stored token_expire column is never consulted: a reissued token can
// leave the column and the claim out of sync, and the claim is the truth.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	// Re-check the exp claim directly; parser validation options can change.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}
