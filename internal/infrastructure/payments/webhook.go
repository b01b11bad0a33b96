package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainerrors "lumikid.backend/internal/domain/errors"
)

// EventCheckoutCompleted is the provider event type for a finished checkout.
const EventCheckoutCompleted = "checkout.session.completed"

// DefaultTolerance bounds how old a signed payload may be.
const DefaultTolerance = 5 * time.Minute

// Event is a verified webhook event
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// SessionObject is the checkout session carried in a completed event
type SessionObject struct {
	ID       string `json:"id"`
	Metadata struct {
		UserID      string `json:"user_id"`
		Plan        string `json:"plan"`
		Duration    string `json:"duration"`
		AutoRenew   string `json:"auto_renew"`
		RenewMethod string `json:"renew_method"`
	} `json:"metadata"`
}

// WebhookVerifier authenticates webhook payloads with the provider's
// timestamped HMAC-SHA256 scheme: the signature header carries
// "t=<unix>,v1=<hex>" and the MAC covers "<unix>.<payload>".
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given endpoint secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

// ConstructEvent verifies the signature header against the raw payload and
// decodes the event. Bad signatures and stale timestamps surface as
// ErrInvalidSignature, undecodable payloads as ErrInvalidPayload.
func (v *WebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	timestamp, signatures, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if v.now().Sub(time.Unix(timestamp, 0)) > v.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", domainerrors.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	matched := false
	for _, sig := range signatures {
		decoded, decErr := hex.DecodeString(sig)
		if decErr == nil && hmac.Equal(decoded, expected) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no matching v1 signature", domainerrors.ErrInvalidSignature)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", domainerrors.ErrInvalidPayload)
	}
	return &event, nil
}

func parseSigHeader(header string) (timestamp int64, signatures []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", domainerrors.ErrInvalidSignature)
	}
	for _, part := range strings.Split(header, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", domainerrors.ErrInvalidSignature)
			}
		case "v1":
			signatures = append(signatures, val)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", domainerrors.ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}
