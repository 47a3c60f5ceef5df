package pricing

import (
	"math"

	"github.com/happygorentals/client-go/internal/common"
)

// Mode selects how much of the total is collected at checkout.
type Mode int

const (
	// Full100 collects the entire amount now.
	Full100 Mode = iota
	// Partial25 collects a quarter now; the rest is due on pickup/check-in.
	Partial25
)

// Percentage returns the wire value the backend expects (25 or 100).
func (m Mode) Percentage() int {
	if m == Partial25 {
		return 25
	}
	return 100
}

// PaymentType returns the wire value used when creating gateway orders.
func (m Mode) PaymentType() string {
	if m == Partial25 {
		return "partial"
	}
	return "full"
}

// Split divides a total into an immediate and a deferred portion.
// PayNow + PayLater always equals the total exactly.
type Split struct {
	Mode     Mode
	PayNow   Amount
	PayLater Amount
}

// ComputeSplit derives the pay-now/pay-later amounts for the given total.
// Partial25 ceilings the immediate portion to whole rupees so the figure
// shown to the user matches the figure sent to the gateway; the remainder is
// absorbed into PayLater. Pure and referentially transparent: the UI calls it
// on every render.
func ComputeSplit(total Amount, mode Mode) (Split, error) {
	if total < 0 {
		return Split{}, common.NewAppError(common.KindValidation, "NEGATIVE_TOTAL", "total amount cannot be negative", nil)
	}
	if mode == Full100 {
		return Split{Mode: mode, PayNow: total, PayLater: 0}, nil
	}
	payNow := math.Ceil(total * 0.25)
	return Split{Mode: mode, PayNow: payNow, PayLater: total - payNow}, nil
}
