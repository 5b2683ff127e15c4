package payment

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxCheckoutURL(t *testing.T) {
	g := NewSandboxGateway("http://pay.test/checkout/")
	raw, err := g.CreateCheckout(context.Background(), CheckoutRequest{Reference: "PAY-1", AmountCents: 4999, Currency: "USD"})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/checkout", u.Path)
	assert.Equal(t, "49.99", u.Query().Get("amount"))
	assert.Equal(t, "PAY-1", u.Query().Get("reference"))

	_, err = g.CreateCheckout(context.Background(), CheckoutRequest{Reference: "PAY-2"})
	assert.Error(t, err)
}

func TestSandboxStatus(t *testing.T) {
	g := NewSandboxGateway("http://pay.test")
	s, err := g.FetchStatus(context.Background(), "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", s.Status)

	g.RecordStatus(Status{Reference: "PAY-1", Status: "COMPLETED", TransactionID: "tx-1"})
	s, err = g.FetchStatus(context.Background(), "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", s.Status)
	assert.Equal(t, "tx-1", s.TransactionID)
}

func TestSignatures(t *testing.T) {
	body := []byte(`{"reference":"PAY-1","status":"COMPLETED"}`)
	sig := Sign("secret", body)

	assert.True(t, VerifySignature("secret", body, sig))
	assert.True(t, VerifySignature("secret", body, "sha256="+sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("secret", append(body, ' '), sig))
	assert.False(t, VerifySignature("secret", body, "not-hex"))
	assert.False(t, VerifySignature("secret", body, ""))
}
