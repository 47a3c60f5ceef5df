package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/happygorentals/client-go/internal/common"
)

func TestComputeSplitFull(t *testing.T) {
	s, err := ComputeSplit(1050, Full100)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if s.PayNow != 1050 || s.PayLater != 0 {
		t.Fatalf("expected 1050/0, got %v/%v", s.PayNow, s.PayLater)
	}
}

func TestComputeSplitPartialCeils(t *testing.T) {
	// One bike line: qty 2 at 500/unit, subtotal 1000, 5% GST => total 1050.
	s, err := ComputeSplit(1050, Partial25)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if s.PayNow != 263 {
		t.Fatalf("expected pay-now 263, got %v", s.PayNow)
	}
	if s.PayLater != 787 {
		t.Fatalf("expected pay-later 787, got %v", s.PayLater)
	}
}

func TestComputeSplitConservation(t *testing.T) {
	totals := []Amount{0, 1, 2, 3, 99, 100, 101, 1050, 12345, 0.5, 777.25}
	for _, total := range totals {
		s, err := ComputeSplit(total, Partial25)
		if err != nil {
			t.Fatalf("split(%v): %v", total, err)
		}
		if s.PayNow+s.PayLater != total {
			t.Fatalf("conservation violated for %v: %v + %v", total, s.PayNow, s.PayLater)
		}
		if s.PayNow != math.Ceil(total*0.25) {
			t.Fatalf("expected ceil(%v*0.25), got %v", total, s.PayNow)
		}
	}
}

func TestComputeSplitRejectsNegative(t *testing.T) {
	_, err := ComputeSplit(-1, Partial25)
	if err == nil {
		t.Fatal("expected error for negative total")
	}
	if common.KindOf(err) != common.KindValidation {
		t.Fatalf("expected validation kind, got %s", common.KindOf(err))
	}
}

func TestBreakdownDecodesLegacyShape(t *testing.T) {
	raw := []byte(`{"subtotal":1000,"discount":50,"gst":50,"helmetCharges":60,"totalAmount":1060}`)
	var b Breakdown
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Total != 1060 {
		t.Fatalf("expected legacy totalAmount honoured, got %v", b.Total)
	}
	if b.BulkDiscount.Amount != 50 {
		t.Fatalf("expected legacy discount mapped, got %v", b.BulkDiscount.Amount)
	}
}

func TestBreakdownPrefersCurrentShape(t *testing.T) {
	raw := []byte(`{"subtotal":1000,"bulkDiscount":{"amount":100,"percentage":10},"gst":45,"gstPercentage":5,"total":945,"totalAmount":999}`)
	var b Breakdown
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Total != 945 {
		t.Fatalf("current total must win over legacy, got %v", b.Total)
	}
	if b.BulkDiscount.Percentage != 10 {
		t.Fatalf("expected nested discount decoded, got %+v", b.BulkDiscount)
	}
}
