package cart

import "github.com/happygorentals/client-go/internal/pricing"

// DefaultPolicyMax caps a single line's quantity regardless of availability.
const DefaultPolicyMax = 5

// ClampQuantity bounds requested to [1, min(available, policyMax)] and
// reports whether the value was adjusted. available <= 0 clamps to 1; the
// caller must refuse to dispatch in that case since the backend is
// guaranteed to reject it.
func ClampQuantity(requested, available, policyMax int) (int, bool) {
	if policyMax < 1 {
		policyMax = DefaultPolicyMax
	}
	upper := policyMax
	if available < 1 {
		upper = 1
	} else if available < upper {
		upper = available
	}
	qty := requested
	if qty < 1 {
		qty = 1
	}
	if qty > upper {
		qty = upper
	}
	return qty, qty != requested
}

// Selection models a plan-and-quantity choice for one bike before it enters
// the cart (the detail-screen stepper). All reads are local: the per-plan
// price table travels with the bike summary.
type Selection struct {
	Bike      BikeSummary
	Plan      Plan
	Quantity  int
	Weekend   bool
	PolicyMax int
}

// NewSelection starts a selection on the limited plan with quantity 1.
func NewSelection(bike BikeSummary, weekend bool, policyMax int) *Selection {
	if policyMax < 1 {
		policyMax = DefaultPolicyMax
	}
	return &Selection{
		Bike:      bike,
		Plan:      PlanLimited,
		Quantity:  1,
		Weekend:   weekend,
		PolicyMax: policyMax,
	}
}

// SetPlan switches the active pricing plan. Quantity is untouched.
func (s *Selection) SetPlan(plan Plan) {
	if plan != PlanLimited && plan != PlanUnlimited {
		return
	}
	s.Plan = plan
}

// SetQuantity clamps the requested quantity to the availability bound and
// reports whether it was adjusted, so the caller can surface a notice.
func (s *Selection) SetQuantity(requested int) bool {
	qty, clamped := ClampQuantity(requested, s.Bike.AvailableQuantity, s.PolicyMax)
	s.Quantity = qty
	return clamped
}

// OutOfStock reports whether the bike has no availability for the window.
// The caller must refuse the add-to-cart dispatch while this holds; the
// quantity stays pinned at 1 for display.
func (s *Selection) OutOfStock() bool {
	return s.Bike.AvailableQuantity < 1
}

// UnitPrice returns the displayed per-unit price for the active plan.
func (s *Selection) UnitPrice() pricing.Amount {
	return s.Bike.PricePerDay.UnitPrice(s.Plan, s.Weekend)
}

// Request builds the add-to-cart payload for the rental window.
func (s *Selection) Request(dates BikeDates) AddBikeRequest {
	return AddBikeRequest{
		BikeID:    s.Bike.ID,
		Quantity:  s.Quantity,
		Plan:      s.Plan,
		StartDate: dates.StartDate,
		EndDate:   dates.EndDate,
		StartTime: dates.StartTime,
		EndTime:   dates.EndTime,
	}
}
