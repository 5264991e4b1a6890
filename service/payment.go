package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PaymentStatus is the outcome of one payment attempt
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentResult is delivered once per attempt by a Payer or by the widget callback
type PaymentResult struct {
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference,omitempty"` // Empty for handoff checkouts
	Reason    string        `json:"reason,omitempty"`
}

// PaymentIntent carries what the hosted payment widget needs to charge the customer
// Example: {"reference": "OF-...", "email": "hi@office.com", "amount": 1240000, "currency": "NGN", "publicKey": "pk_test_..."}
type PaymentIntent struct {
	Reference string            `json:"reference"`
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"` // Minor units (kobo)
	Total     int64             `json:"total"`  // Whole currency units
	Currency  string            `json:"currency"`
	PublicKey string            `json:"publicKey,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Payer runs one payment attempt. The returned channel yields exactly one result.
type Payer interface {
	Pay(ctx context.Context, intent PaymentIntent) <-chan PaymentResult
}

// PaymentVerification is the provider's view of a transaction
type PaymentVerification struct {
	Reference string
	Status    string // success, failed, abandoned, ...
	Amount    int64  // Minor units
	Currency  string
}

// PaymentVerifier confirms a widget-reported reference with the provider
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*PaymentVerification, error)
}

// PaystackClient verifies transactions against the Paystack REST API
type PaystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPaystackClient creates a new PaystackClient
func NewPaystackClient(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *PaystackClient {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Ensure PaystackClient implements PaymentVerifier
var _ PaymentVerifier = (*PaystackClient)(nil)

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// Verify calls GET /transaction/verify/:reference
func (p *PaystackClient) Verify(ctx context.Context, reference string) (*PaymentVerification, error) {
	endpoint := p.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read verify response: %w", err)
	}

	var parsed paystackVerifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode verify response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Status {
		return nil, fmt.Errorf("payment provider rejected verification (status %d): %s", resp.StatusCode, parsed.Message)
	}

	p.logger.Debug("Verify: transaction verified",
		zap.String("reference", reference),
		zap.String("provider_status", parsed.Data.Status),
	)
	return &PaymentVerification{
		Reference: parsed.Data.Reference,
		Status:    parsed.Data.Status,
		Amount:    parsed.Data.Amount,
		Currency:  parsed.Data.Currency,
	}, nil
}

// ResultFromVerification interprets a verification against the expected charge
func ResultFromVerification(v *PaymentVerification, intent PaymentIntent) PaymentResult {
	result := PaymentResult{Reference: intent.Reference}
	switch {
	case v.Status == "abandoned":
		result.Status = PaymentCancelled
		result.Reason = "payment was abandoned"
	case v.Status != "success":
		result.Status = PaymentFailed
		result.Reason = "payment status " + v.Status
	case v.Amount != intent.Amount || !strings.EqualFold(v.Currency, intent.Currency):
		result.Status = PaymentFailed
		result.Reason = fmt.Sprintf("charged %d %s, expected %d %s", v.Amount, v.Currency, intent.Amount, intent.Currency)
	default:
		result.Status = PaymentSucceeded
	}
	return result
}
