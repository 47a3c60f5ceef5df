package booking

import "testing"

func TestNextAction(t *testing.T) {
	cases := []struct {
		name string
		b    Booking
		want Action
	}{
		{
			"bike needs identity before payment",
			Booking{Kind: KindBike, Status: StatusConfirmed, PaymentStatus: PaymentPartial, RemainingAmount: 787},
			ActionVerifyID,
		},
		{
			"verified bike with balance pays remaining",
			Booking{Kind: KindBike, Status: StatusConfirmed, PaymentStatus: PaymentPartial, RemainingAmount: 787, AadhaarVerified: true, DLVerified: true},
			ActionPayRemaining,
		},
		{
			"hostel with balance pays remaining without identity",
			Booking{Kind: KindHostel, Status: StatusConfirmed, PaymentStatus: PaymentPartial, RemainingAmount: 500},
			ActionPayRemaining,
		},
		{
			"active settled bike can extend",
			Booking{Kind: KindBike, Status: StatusActive, PaymentStatus: PaymentPaid, AadhaarVerified: true, DLVerified: true},
			ActionExtend,
		},
		{
			"cancelled booking offers nothing",
			Booking{Kind: KindBike, Status: StatusCancelled, PaymentStatus: PaymentPartial, RemainingAmount: 787},
			ActionNone,
		},
		{
			"completed booking offers nothing",
			Booking{Kind: KindHostel, Status: StatusCompleted, PaymentStatus: PaymentPaid},
			ActionNone,
		},
		{
			"confirmed settled hostel offers nothing",
			Booking{Kind: KindHostel, Status: StatusConfirmed, PaymentStatus: PaymentPaid},
			ActionNone,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextAction(tc.b); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHasBalance(t *testing.T) {
	if (Booking{PaymentStatus: PaymentPaid}).HasBalance() {
		t.Fatal("paid booking must not report a balance")
	}
	if !(Booking{PaymentStatus: PaymentPartial, RemainingAmount: 1}).HasBalance() {
		t.Fatal("partial booking with remainder must report a balance")
	}
	if (Booking{PaymentStatus: PaymentPartial}).HasBalance() {
		t.Fatal("zero remainder must not report a balance")
	}
}
