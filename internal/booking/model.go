package booking

import "github.com/happygorentals/client-go/internal/pricing"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks how much of a booking has been settled.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Kind separates bike rentals from hostel stays.
type Kind string

const (
	KindBike   Kind = "bike"
	KindHostel Kind = "hostel"
)

// ItemRef is the booked product reference embedded in a booking.
type ItemRef struct {
	ID    string `json:"_id"`
	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// Booking mirrors the backend booking document. Amounts are authoritative;
// the client never recomputes them.
type Booking struct {
	ID                       string         `json:"_id"`
	Reference                string         `json:"bookingId,omitempty"`
	Kind                     Kind           `json:"type"`
	Item                     ItemRef        `json:"item"`
	Quantity                 int            `json:"quantity"`
	Status                   Status         `json:"status"`
	PaymentStatus            PaymentStatus  `json:"paymentStatus"`
	PartialPaymentPercentage int            `json:"partialPaymentPercentage,omitempty"`
	TotalAmount              pricing.Amount `json:"totalAmount"`
	AmountPaid               pricing.Amount `json:"amountPaid"`
	RemainingAmount          pricing.Amount `json:"remainingAmount"`
	PaymentGroupID           string         `json:"paymentGroupId,omitempty"`
	StartDate                string         `json:"startDate"`
	EndDate                  string         `json:"endDate"`
	StartTime                string         `json:"startTime,omitempty"`
	EndTime                  string         `json:"endTime,omitempty"`
	AadhaarVerified          bool           `json:"aadhaarVerified"`
	DLVerified               bool           `json:"dlVerified"`
	CreatedAt                string         `json:"createdAt,omitempty"`
}

// HasBalance reports whether a remaining payment is still due.
func (b Booking) HasBalance() bool {
	return b.PaymentStatus == PaymentPartial && b.RemainingAmount > 0
}

// ExtendRequest pushes a bike rental's end of window forward.
type ExtendRequest struct {
	NewEndDate string `json:"newEndDate"`
	NewEndTime string `json:"newEndTime,omitempty"`
}

// AadhaarRequest submits the renter's Aadhaar for a booking.
type AadhaarRequest struct {
	BookingID     string `json:"bookingId"`
	AadhaarNumber string `json:"aadhaarNumber" validate:"required,len=12,numeric"`
	OTP           string `json:"otp,omitempty"`
}

// LicenceRequest submits the renter's driving licence for a booking.
type LicenceRequest struct {
	BookingID     string `json:"bookingId"`
	LicenceNumber string `json:"licenceNumber" validate:"required"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Action is the next step the account screen should offer for a booking.
type Action string

const (
	ActionNone         Action = ""
	ActionPayRemaining Action = "payRemaining"
	ActionVerifyID     Action = "verifyIdentity"
	ActionExtend       Action = "extend"
)

// NextAction derives the primary call to action for a booking row. Identity
// verification outranks payment for bike rentals since pickup is blocked
// without it.
func NextAction(b Booking) Action {
	switch b.Status {
	case StatusCancelled, StatusCompleted:
		return ActionNone
	}
	if b.Kind == KindBike && (!b.AadhaarVerified || !b.DLVerified) {
		return ActionVerifyID
	}
	if b.HasBalance() {
		return ActionPayRemaining
	}
	if b.Status == StatusActive && b.Kind == KindBike {
		return ActionExtend
	}
	return ActionNone
}
