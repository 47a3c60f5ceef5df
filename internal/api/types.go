package api

import (
	"encoding/json"

	"github.com/happygorentals/client-go/internal/booking"
)

// envelope is the uniform backend response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GuestDetails identifies the renter on a checkout submission.
type GuestDetails struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,len=10,numeric"`
}

// RazorpayOrder is a gateway order created by the backend. Amount is in
// paise; it is passed through to the gateway untouched.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CheckoutCartRequest converts the whole cart into bookings and a gateway
// order for the pay-now amount.
type CheckoutCartRequest struct {
	GuestDetails             GuestDetails `json:"guestDetails"`
	SpecialRequests          string       `json:"specialRequests,omitempty"`
	PartialPaymentPercentage int          `json:"partialPaymentPercentage"`
}

// CheckoutCartResponse groups the created bookings under one payment group.
type CheckoutCartResponse struct {
	PaymentGroupID string            `json:"paymentGroupId"`
	Bookings       []booking.Booking `json:"bookings"`
	RazorpayOrder  RazorpayOrder     `json:"razorpayOrder"`
	RazorpayKeyID  string            `json:"razorpayKeyId,omitempty"`
}

// VerifyCartPaymentRequest submits the gateway result for server-side
// signature verification. Field names follow the gateway callback payload.
type VerifyCartPaymentRequest struct {
	PaymentGroupID    string `json:"paymentGroupId"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyPaymentResponse reports the verification outcome.
type VerifyPaymentResponse struct {
	Verified bool              `json:"verified"`
	Bookings []booking.Booking `json:"bookings,omitempty"`
}

// BookingPaymentRequest creates a gateway order for a single booking,
// either the full amount or the remaining balance of a partial payment.
type BookingPaymentRequest struct {
	PaymentType string `json:"paymentType"`
}

// BookingPaymentResponse carries the gateway order for a booking payment.
type BookingPaymentResponse struct {
	RazorpayOrder RazorpayOrder `json:"razorpayOrder"`
}

// VerifyBookingPaymentRequest verifies a single-booking payment.
type VerifyBookingPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// ReferredUser names the account a referral brought in.
type ReferredUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ReferralStat is one referral on the account. A referral stays pending
// until the referred user completes their first booking.
type ReferralStat struct {
	ID           string       `json:"_id"`
	ReferredUser ReferredUser `json:"referredUser"`
	Status       string       `json:"status"`
	RewardAmount float64      `json:"rewardAmount"`
	CreatedAt    string       `json:"createdAt"`
}

// Referral statuses.
const (
	ReferralPending   = "pending"
	ReferralCompleted = "completed"
)

// ReferralData is the account's referral summary.
type ReferralData struct {
	ReferralCode   string         `json:"referralCode"`
	TotalReferrals int            `json:"totalReferrals"`
	TotalRewards   float64        `json:"totalRewards"`
	Referrals      []ReferralStat `json:"referrals"`
}

