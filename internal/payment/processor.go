// Package payment wires the checkout service and its processor boundary.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wingmate/wingmate/internal/config"
	"go.uber.org/zap"
)

// HTTPProcessor creates hosted checkout sessions against a Stripe-style
// endpoint. Everything past "give me a redirect URL" stays on the
// provider's side of the boundary.
type HTTPProcessor struct {
	endpoint   string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewHTTPProcessor(cfg config.Config, log *zap.Logger) *HTTPProcessor {
	return &HTTPProcessor{
		endpoint:   cfg.Payment.CheckoutURL,
		secretKey:  cfg.Payment.SecretKey,
		successURL: cfg.Payment.SuccessURL,
		cancelURL:  cfg.Payment.CancelURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.Named("payment.processor"),
	}
}

func (p *HTTPProcessor) CreateCheckout(ctx context.Context, sessionID, email string) (string, error) {
	form := url.Values{}
	form.Set("client_reference_id", sessionID)
	form.Set("customer_email", email)
	form.Set("success_url", appendQuery(p.successURL, "session_id", sessionID))
	form.Set("cancel_url", appendQuery(p.cancelURL, "session_id", sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warn("processor rejected checkout", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("payment: processor status %d", resp.StatusCode)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("payment: decode checkout response: %w", err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("payment: checkout response missing url")
	}
	return payload.URL, nil
}

func appendQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
