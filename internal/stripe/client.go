package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the production Stripe REST endpoint.
const DefaultBaseURL = "https://api.stripe.com/v1"

// Subscription is the subset of a Stripe subscription object this service reads.
type Subscription struct {
	ID                string `json:"id"`
	Object            string `json:"object"`
	Status            string `json:"status"`
	Customer          string `json:"customer"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CanceledAt        *int64 `json:"canceled_at,omitempty"`
	Livemode          bool   `json:"livemode"`
}

// APIError is returned for any non-2xx response from the Stripe API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe API error (%d): %s", e.StatusCode, e.Message)
}

// Client wraps Stripe API calls using the REST API directly (no SDK dependency).
// A Client is bound to one secret key.
type Client struct {
	secretKey  string
	httpClient *http.Client
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different Stripe-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Stripe API client authenticated with secretKey.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey:  secretKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RetrieveSubscription fetches a subscription by its Stripe identifier.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, errors.New("retrieve subscription: missing subscription ID")
	}

	var sub Subscription
	if err := c.get(ctx, "/subscriptions/"+url.PathEscape(subscriptionID), &sub); err != nil {
		return nil, fmt.Errorf("retrieve subscription: %w", err)
	}
	return &sub, nil
}

// CancelSubscription cancels a subscription immediately.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, errors.New("cancel subscription: missing subscription ID")
	}

	var sub Subscription
	if err := c.delete(ctx, "/subscriptions/"+url.PathEscape(subscriptionID), &sub); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	log.Printf("[stripe] Canceled subscription %s (status: %s)", sub.ID, sub.Status)
	return &sub, nil
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.secretKey, "")

	return c.doRequest(req, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.secretKey, "")

	return c.doRequest(req, out)
}

func (c *Client) doRequest(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse stripe response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response, body []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	apiErr := &APIError{Message: "unknown error"}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		apiErr = envelope.Error
		if apiErr.Message == "" {
			apiErr.Message = "unknown error"
		}
	}
	apiErr.StatusCode = resp.StatusCode
	apiErr.RequestID = resp.Header.Get("Request-Id")
	return apiErr
}
