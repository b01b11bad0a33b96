package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lumikid.backend/internal/config"
	domainerrors "lumikid.backend/internal/domain/errors"
)

// Sender delivers transactional email
type Sender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// Client talks to the Resend HTTP API
type Client struct {
	apiKey     string
	apiURL     string
	from       string
	httpClient *http.Client
}

// NewClient creates a new email client
func NewClient(cfg config.EmailConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		apiURL:     cfg.APIURL,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one message. Non-2xx provider responses surface as
// ErrDelivery; the caller decides whether the operation aborts.
func (c *Client) Send(ctx context.Context, to []string, subject, html string) error {
	body := sendRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", domainerrors.ErrDelivery, resp.StatusCode, string(detail))
	}
	return nil
}
