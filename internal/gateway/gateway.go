// Package gateway abstracts the payment gateway checkout surface. The
// concrete implementation is platform-specific (a native SDK sheet or a web
// redirect); this package only defines the contract the orchestrator needs.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrCancelled reports that the user dismissed the payment sheet. It is an
// expected outcome, not a failure.
var ErrCancelled = errors.New("gateway: payment cancelled by user")

// Order is the gateway order the payment sheet collects against. Amount is
// in the gateway's minor unit (paise) exactly as the backend created it.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	KeyID    string
}

// Prefill seeds the payment sheet with the renter's contact details.
type Prefill struct {
	Name  string
	Email string
	Phone string
}

// Result is the gateway callback payload on a completed payment. The
// signature is opaque to the client; only the backend can verify it.
type Result struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Gateway opens the payment sheet and blocks until it resolves. A user
// dismissal returns ErrCancelled; any other error is a gateway failure.
type Gateway interface {
	Open(ctx context.Context, order Order, prefill Prefill) (Result, error)
}

// OpenFunc adapts a function to the Gateway interface.
type OpenFunc func(ctx context.Context, order Order, prefill Prefill) (Result, error)

func (f OpenFunc) Open(ctx context.Context, order Order, prefill Prefill) (Result, error) {
	return f(ctx, order, prefill)
}

// Sign computes the HMAC-SHA256 signature the gateway attaches to a
// completed payment, keyed by the merchant secret over "orderID|paymentID".
// Production verification happens server-side; this exists for test doubles
// and local backends.
func Sign(secret, orderID, paymentID string) string {
	key := strings.TrimSpace(secret)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a result against the merchant secret in constant
// time.
func VerifySignature(secret string, res Result) bool {
	expected := Sign(secret, res.OrderID, res.PaymentID)
	provided := strings.TrimSpace(res.Signature)
	if expected == "" || provided == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(provided))
}

// Static is a deterministic gateway for tests and the CLI's dry-run mode.
// It signs with Secret and succeeds unless Err is set.
type Static struct {
	Secret    string
	PaymentID string
	Err       error
}

func (s Static) Open(ctx context.Context, order Order, prefill Prefill) (Result, error) {
	if s.Err != nil {
		return Result{}, s.Err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	paymentID := s.PaymentID
	if paymentID == "" {
		paymentID = "pay_" + order.ID
	}
	return Result{
		OrderID:   order.ID,
		PaymentID: paymentID,
		Signature: Sign(s.Secret, order.ID, paymentID),
	}, nil
}
