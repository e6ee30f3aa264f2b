// Package gateway is the HTTP client for the Paystack transaction API. It
// holds no state of its own: it maps local payment intents onto the wire
// format and back, and reports every failure as a gateway error for the
// caller to surface. There are no retries here; a failed call is retried
// only by a new explicit user action.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/internal/platform/config"
	"github.com/Aldorax/soo-ade/internal/platform/metrics"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

// Client talks to the payment gateway's transaction endpoints.
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
	metrics     *metrics.Metrics
}

type Option func(c *Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(cfg config.PaystackConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:     cfg.BaseURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InitializeResult is the useful subset of the gateway's initialize
// response.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the useful subset of the gateway's verify response.
// Status is the gateway's own status string; "success" means settled.
type VerifyResult struct {
	Status        string
	Reference     string
	Amount        int64
	CustomerEmail string
	Metadata      models.Metadata
}

type initializeRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference"`
	Metadata    models.Metadata `json:"metadata"`
	CallbackURL string          `json:"callback_url"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
		Metadata models.Metadata `json:"metadata"`
	} `json:"data"`
}

// InitializeTransaction starts a payment at the gateway and returns the URL
// to redirect the citizen to. The amount is in major units (Naira); the
// wire carries minor units (kobo) as an integer, never a float.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amount int64, reference string, metadata models.Metadata) (*InitializeResult, error) {
	payload := initializeRequest{
		Email:       email,
		Amount:      amount * 100,
		Reference:   reference,
		Metadata:    metadata,
		CallbackURL: c.callbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeGatewayError, "failed to encode initialize request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeGatewayError, "failed to build initialize request")
	}
	c.setHeaders(req)

	var parsed initializeResponse
	if err := c.do(req, "initialize", &parsed); err != nil {
		return nil, err
	}
	if parsed.Data.AuthorizationURL == "" {
		c.metrics.IncGatewayRequests("initialize", "error")
		return nil, dErrors.New(dErrors.CodeGatewayError, "gateway returned no authorization url")
	}

	return &InitializeResult{
		AuthorizationURL: parsed.Data.AuthorizationURL,
		AccessCode:       parsed.Data.AccessCode,
		Reference:        parsed.Data.Reference,
	}, nil
}

// VerifyTransaction looks up the settlement state of a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeGatewayError, "failed to build verify request")
	}
	c.setHeaders(req)

	var parsed verifyResponse
	if err := c.do(req, "verify", &parsed); err != nil {
		return nil, err
	}

	return &VerifyResult{
		Status:        parsed.Data.Status,
		Reference:     parsed.Data.Reference,
		Amount:        parsed.Data.Amount,
		CustomerEmail: parsed.Data.Customer.Email,
		Metadata:      parsed.Data.Metadata,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncGatewayRequests(operation, "error")
		return dErrors.Wrap(err, dErrors.CodeGatewayError, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.IncGatewayRequests(operation, "error")
		return dErrors.New(dErrors.CodeGatewayError,
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.IncGatewayRequests(operation, "error")
		return dErrors.Wrap(err, dErrors.CodeGatewayError, "malformed gateway response")
	}

	c.metrics.IncGatewayRequests(operation, "ok")
	return nil
}
