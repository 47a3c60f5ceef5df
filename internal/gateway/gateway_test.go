package gateway

import (
	"context"
	"errors"
	"testing"
)

func TestSignDeterministic(t *testing.T) {
	a := Sign("secret", "order_1", "pay_1")
	b := Sign("secret", "order_1", "pay_1")
	if a == "" || a != b {
		t.Fatalf("expected stable non-empty signature, got %q and %q", a, b)
	}
	if Sign("other", "order_1", "pay_1") == a {
		t.Fatal("different secrets must produce different signatures")
	}
	if Sign("", "order_1", "pay_1") != "" {
		t.Fatal("empty secret must produce no signature")
	}
}

func TestVerifySignature(t *testing.T) {
	res := Result{OrderID: "order_1", PaymentID: "pay_1"}
	res.Signature = Sign("secret", res.OrderID, res.PaymentID)
	if !VerifySignature("secret", res) {
		t.Fatal("valid signature rejected")
	}
	res.Signature = "tampered"
	if VerifySignature("secret", res) {
		t.Fatal("tampered signature accepted")
	}
	if VerifySignature("secret", Result{OrderID: "order_1", PaymentID: "pay_1"}) {
		t.Fatal("missing signature accepted")
	}
}

func TestStaticGatewaySignsResult(t *testing.T) {
	gw := Static{Secret: "secret"}
	res, err := gw.Open(context.Background(), Order{ID: "order_1", Amount: 26300, Currency: "INR"}, Prefill{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if res.OrderID != "order_1" || res.PaymentID != "pay_order_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !VerifySignature("secret", res) {
		t.Fatal("static gateway must produce a verifiable signature")
	}
}

func TestStaticGatewayPropagatesCancellation(t *testing.T) {
	gw := Static{Secret: "secret", Err: ErrCancelled}
	_, err := gw.Open(context.Background(), Order{ID: "order_1"}, Prefill{})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
