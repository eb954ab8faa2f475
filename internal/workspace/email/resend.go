package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

const (
	resendConnectTimeout  = 5 * time.Second
	resendResponseTimeout = 10 * time.Second
)

var ErrMissingAPIKey = errors.New("email: resend api key is not configured")

// ResendConfig configures the Resend client. BaseURL is overridable for
// tests and defaults to the public API.
type ResendConfig struct {
	APIKey    string
	FromEmail string
	BaseURL   string
}

// ResendClient sends mail through https://resend.com. It implements Sender.
type ResendClient struct {
	cfg    ResendConfig
	client *http.Client
}

func NewResendClient(cfg ResendConfig) *ResendClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultResendBaseURL
	}
	dialer := &net.Dialer{Timeout: resendConnectTimeout}
	return &ResendClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: resendResponseTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
	}
}

type resendSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

func (c *ResendClient) Send(ctx context.Context, to, subject, html string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	payload, err := json.Marshal(resendSendRequest{
		From:    c.cfg.FromEmail,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out resendSendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("email: decode response: %w", err)
	}
	return out.ID, nil
}
