package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"lumikid.backend/internal/config"
	domainerrors "lumikid.backend/internal/domain/errors"
)

const apiBase = "https://api.stripe.com/v1"

// priceKey identifies one priced offering
type priceKey struct {
	plan      string
	duration  string
	autoRenew bool
}

// Provider price ids per plan/duration. Auto-renew offerings are recurring
// prices, the rest are one-time.
var priceIDs = map[priceKey]string{
	{"Pro", "monthly", true}:    "price_1ROUraPi2NYp3v9QuhPnOHdA",
	{"Pro", "yearly", true}:     "price_1ROUrbPi2NYp3v9Qnkd0ZbTm",
	{"Pro", "quarterly", true}:  "price_1RRQquPi2NYp3v9QQFDRwMed",
	{"Pro", "monthly", false}:   "price_1ROYBvPi2NYp3v9QNH1ugpuy",
	{"Pro", "yearly", false}:    "price_1ROYC4Pi2NYp3v9QIXBeBX6S",
}

// CheckoutParams describes one checkout session
type CheckoutParams struct {
	AccountID     uuid.UUID
	CustomerEmail string
	Plan          string
	Duration      string
	AutoRenew     bool
	RenewMethod   string
}

// CheckoutSession is the provider's session handle
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client creates checkout sessions against the payment provider API
type Client struct {
	secretKey  string
	domain     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new payments client
func NewClient(cfg config.PaymentsConfig) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		domain:     cfg.Domain,
		baseURL:    apiBase,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateCheckoutSession opens a hosted checkout session. The account id and
// purchase terms ride along as session metadata and come back on the webhook.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	priceID, ok := priceIDs[priceKey{params.Plan, params.Duration, params.AutoRenew}]
	if !ok {
		return nil, fmt.Errorf("%w: no price for plan %q duration %q", domainerrors.ErrBadRequest, params.Plan, params.Duration)
	}

	mode := "payment"
	if params.AutoRenew {
		mode = "subscription"
	}

	form := url.Values{}
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("mode", mode)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("metadata[user_id]", params.AccountID.String())
	form.Set("metadata[plan]", params.Plan)
	form.Set("metadata[duration]", params.Duration)
	form.Set("metadata[auto_renew]", strconv.FormatBool(params.AutoRenew))
	form.Set("metadata[renew_method]", params.RenewMethod)
	form.Set("success_url", c.domain+"/success?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", c.domain+"/cancel")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, errors.New("checkout session failed: " + apiErr.Error.Message)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
