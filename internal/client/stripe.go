package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bizgenius/api/internal/config"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// webhookTolerance is how old a signed webhook timestamp may be before it is
// rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
)

// StripeClient is a thin wrapper over the Stripe HTTP API. Only the surface
// this service needs is implemented: customers, checkout sessions, billing
// portal sessions, and webhook signature verification.
type StripeClient struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
}

// Customer is a Stripe customer object (fields we read)
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CheckoutSession is a Stripe checkout session object (fields we read)
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
}

// PortalSession is a Stripe billing portal session object (fields we read)
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Subscription is a Stripe subscription object (fields we read)
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// WebhookEvent is a verified Stripe event envelope
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// NewStripeClient creates a new Stripe API client
func NewStripeClient(cfg *config.StripeConfig) *StripeClient {
	return &StripeClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:       stripeAPIBase,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *StripeClient) IsConfigured() bool {
	return c.secretKey != ""
}

// CreateCustomer creates a Stripe customer for an account email
func (c *StripeClient) CreateCustomer(ctx context.Context, email string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)

	var customer Customer
	if err := c.post(ctx, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCheckoutSession creates a subscription checkout session. The user id is
// passed as client_reference_id so the completion webhook can link the
// resulting customer back to the account.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, customerID, userID, priceID, successURL, cancelURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", userID)
	if customerID != "" {
		form.Set("customer", customerID)
	}

	var session CheckoutSession
	if err := c.post(ctx, "/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreatePortalSession creates a billing portal session for a customer
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	if returnURL != "" {
		form.Set("return_url", returnURL)
	}

	var session PortalSession
	if err := c.post(ctx, "/billing_portal/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw payload
// and returns the parsed event.
func (c *StripeClient) ConstructEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if err := c.verifySignature(payload, sigHeader, time.Now()); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// verifySignature implements Stripe's v1 signature scheme: HMAC-SHA256 over
// "<timestamp>.<payload>" with the webhook secret.
func (c *StripeClient) verifySignature(payload []byte, sigHeader string, now time.Time) error {
	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	if now.Sub(time.Unix(timestamp, 0)) > webhookTolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
