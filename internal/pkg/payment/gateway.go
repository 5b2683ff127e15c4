package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// SignatureHeader carries the webhook HMAC
const SignatureHeader = "X-Payment-Signature"

// CheckoutRequest describes what the gateway should charge
type CheckoutRequest struct {
	Reference   string
	AmountCents int64
	Currency    string
	Description string
	CustomerID  int64
}

// Status is what the gateway knows about a payment
type Status struct {
	Reference     string
	Status        string
	TransactionID string
	Reason        string
}

// Gateway is a payment provider
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (checkoutURL string, err error)
	FetchStatus(ctx context.Context, reference string) (*Status, error)
}

// StatusRecorder is implemented by gateways that learn statuses from webhooks
type StatusRecorder interface {
	RecordStatus(s Status)
}

// SandboxGateway simulates a hosted checkout page.
// It answers FetchStatus with whatever the last webhook reported and PENDING otherwise.
type SandboxGateway struct {
	baseURL string

	mu       sync.RWMutex
	statuses map[string]Status
}

// NewSandboxGateway creates a sandbox gateway rooted at checkoutBaseURL
func NewSandboxGateway(checkoutBaseURL string) *SandboxGateway {
	return &SandboxGateway{
		baseURL:  strings.TrimRight(checkoutBaseURL, "/"),
		statuses: make(map[string]Status),
	}
}

// Name implements Gateway
func (g *SandboxGateway) Name() string {
	return "sandbox"
}

// CreateCheckout implements Gateway
func (g *SandboxGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (string, error) {
	if req.Reference == "" {
		return "", fmt.Errorf("checkout reference is required")
	}
	if req.AmountCents <= 0 {
		return "", fmt.Errorf("checkout amount must be positive")
	}

	q := url.Values{}
	q.Set("reference", req.Reference)
	q.Set("amount", fmt.Sprintf("%d.%02d", req.AmountCents/100, req.AmountCents%100))
	q.Set("currency", req.Currency)
	return g.baseURL + "?" + q.Encode(), nil
}

// FetchStatus implements Gateway
func (g *SandboxGateway) FetchStatus(_ context.Context, reference string) (*Status, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if s, ok := g.statuses[reference]; ok {
		return &s, nil
	}
	return &Status{Reference: reference, Status: "PENDING"}, nil
}

// RecordStatus implements StatusRecorder
func (g *SandboxGateway) RecordStatus(s Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[s.Reference] = s
}

// Sign returns the hex HMAC-SHA256 of body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time
func VerifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
