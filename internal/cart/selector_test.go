package cart

import "testing"

func TestClampQuantityBounds(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		available int
		policyMax int
		want      int
		clamped   bool
	}{
		{"within bounds", 2, 5, 5, 2, false},
		{"above availability", 9, 3, 5, 3, true},
		{"above policy max", 9, 10, 5, 5, true},
		{"below one", 0, 5, 5, 1, true},
		{"negative", -4, 5, 5, 1, true},
		{"availability exhausted", 2, 0, 5, 1, true},
		{"exactly at bound", 3, 3, 5, 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, clamped := ClampQuantity(tc.requested, tc.available, tc.policyMax)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
			if clamped != tc.clamped {
				t.Fatalf("expected clamped=%v, got %v", tc.clamped, clamped)
			}
		})
	}
}

func TestSelectionPinsQuantityWhenOutOfStock(t *testing.T) {
	bike := BikeSummary{ID: "b1", AvailableQuantity: 0}
	sel := NewSelection(bike, false, 5)
	if !sel.OutOfStock() {
		t.Fatal("expected out-of-stock selection")
	}
	for _, q := range []int{2, 3, 5} {
		if clamped := sel.SetQuantity(q); !clamped {
			t.Fatalf("SetQuantity(%d) must report a clamp when nothing is available", q)
		}
		if sel.Quantity != 1 {
			t.Fatalf("quantity must stay pinned at 1, got %d", sel.Quantity)
		}
	}
}

func TestSelectionDefaults(t *testing.T) {
	bike := BikeSummary{ID: "b1", AvailableQuantity: 4}
	sel := NewSelection(bike, false, 0)
	if sel.Plan != PlanLimited {
		t.Fatalf("expected limited plan default, got %s", sel.Plan)
	}
	if sel.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", sel.Quantity)
	}
	if sel.PolicyMax != DefaultPolicyMax {
		t.Fatalf("expected default policy max, got %d", sel.PolicyMax)
	}
}

func TestSelectionPlanSwitchKeepsQuantity(t *testing.T) {
	bike := BikeSummary{ID: "b1", AvailableQuantity: 4}
	sel := NewSelection(bike, false, 5)
	sel.SetQuantity(3)
	sel.SetPlan(PlanUnlimited)
	if sel.Quantity != 3 {
		t.Fatalf("plan switch must not reset quantity, got %d", sel.Quantity)
	}
	sel.SetPlan("weekly")
	if sel.Plan != PlanUnlimited {
		t.Fatalf("unknown plan must be ignored, got %s", sel.Plan)
	}
}

func TestSelectionUnitPriceFollowsPlanAndDay(t *testing.T) {
	bike := BikeSummary{
		ID:                "b1",
		AvailableQuantity: 4,
		PricePerDay: PriceTable{
			Weekday: DayPrices{
				LimitedKm: PlanPrice{Price: 500, KmLimit: 120, Active: true},
				Unlimited: PlanPrice{Price: 700, Active: true},
			},
			Weekend: DayPrices{
				LimitedKm: PlanPrice{Price: 600, KmLimit: 120, Active: true},
				Unlimited: PlanPrice{Price: 850, Active: true},
			},
		},
	}
	sel := NewSelection(bike, false, 5)
	if got := sel.UnitPrice(); got != 500 {
		t.Fatalf("expected weekday limited 500, got %v", got)
	}
	sel.SetPlan(PlanUnlimited)
	if got := sel.UnitPrice(); got != 700 {
		t.Fatalf("expected weekday unlimited 700, got %v", got)
	}
	sel.Weekend = true
	if got := sel.UnitPrice(); got != 850 {
		t.Fatalf("expected weekend unlimited 850, got %v", got)
	}
}

func TestSelectionRequestCarriesWindow(t *testing.T) {
	bike := BikeSummary{ID: "b1", AvailableQuantity: 2}
	sel := NewSelection(bike, false, 5)
	sel.SetQuantity(2)
	req := sel.Request(BikeDates{StartDate: "2026-09-01", EndDate: "2026-09-03", StartTime: "10:00", EndTime: "18:00"})
	if req.BikeID != "b1" || req.Quantity != 2 || req.Plan != PlanLimited {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.StartDate != "2026-09-01" || req.EndTime != "18:00" {
		t.Fatalf("rental window not carried: %+v", req)
	}
}
