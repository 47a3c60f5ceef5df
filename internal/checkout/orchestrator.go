// Package checkout drives the payment flow from guest details through the
// gateway to server-side verification. One orchestrator serves one checkout
// attempt at a time; every phase change is observable through a hook.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/happygorentals/client-go/internal/api"
	"github.com/happygorentals/client-go/internal/booking"
	"github.com/happygorentals/client-go/internal/common"
	"github.com/happygorentals/client-go/internal/gateway"
	"github.com/happygorentals/client-go/internal/pricing"
)

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	CheckoutCart(ctx context.Context, req api.CheckoutCartRequest) (*api.CheckoutCartResponse, error)
	VerifyCartPayment(ctx context.Context, req api.VerifyCartPaymentRequest) (*api.VerifyPaymentResponse, error)
	CreateBookingPayment(ctx context.Context, bookingID string, req api.BookingPaymentRequest) (*api.BookingPaymentResponse, error)
	VerifyBookingPayment(ctx context.Context, bookingID string, req api.VerifyBookingPaymentRequest) (*api.VerifyPaymentResponse, error)
}

// CartState is what the orchestrator reads from and does to the cart.
type CartState interface {
	IsEmpty() bool
	Total() float64
	Clear()
}

// Config wires an Orchestrator.
type Config struct {
	Backend Backend
	Gateway gateway.Gateway
	Cart    CartState
	Logger  zerolog.Logger
	// KeyID is the merchant key handed to the payment sheet when the backend
	// response does not carry one.
	KeyID string
	// OnSuccess fires after verification succeeds, with the confirmed
	// bookings. The session layer uses it to invalidate cached bookings.
	OnSuccess func(ctx context.Context, bookings []booking.Booking)
	// OnStateChange observes every phase transition.
	OnStateChange func(State)
}

// Orchestrator is the checkout state machine.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	lastErr error

	backend       Backend
	gw            gateway.Gateway
	cart          CartState
	validate      *validator.Validate
	logger        zerolog.Logger
	keyID         string
	onSuccess     func(context.Context, []booking.Booking)
	onStateChange func(State)
}

// Outcome reports a completed checkout.
type Outcome struct {
	PaymentGroupID string
	Bookings       []booking.Booking
	Split          pricing.Split
}

// New constructs an orchestrator in StateCollectingDetails.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("checkout: backend is required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("checkout: gateway is required")
	}
	if cfg.Cart == nil {
		return nil, fmt.Errorf("checkout: cart is required")
	}
	return &Orchestrator{
		state:         StateCollectingDetails,
		backend:       cfg.Backend,
		gw:            cfg.Gateway,
		cart:          cfg.Cart,
		validate:      validator.New(),
		logger:        cfg.Logger,
		keyID:         cfg.KeyID,
		onSuccess:     cfg.OnSuccess,
		onStateChange: cfg.OnStateChange,
	}, nil
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the failure that moved the machine into StateFailed.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Reset returns a terminal machine to StateCollectingDetails for a fresh
// attempt. A failed verification is not retried automatically under any
// circumstances; the user must start over deliberately.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if !o.state.Terminal() {
		o.mu.Unlock()
		return
	}
	o.state = StateCollectingDetails
	o.lastErr = nil
	o.mu.Unlock()
	o.emit(StateCollectingDetails)
}

// Submit runs the full checkout: validate details, create bookings and a
// gateway order, collect the payment and verify it server-side. Cancelling
// the payment sheet returns gateway.ErrCancelled and puts the machine back
// in StateCollectingDetails with nothing charged.
func (o *Orchestrator) Submit(ctx context.Context, guest api.GuestDetails, specialRequests string, mode pricing.Mode) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}

	if err := o.validateGuest(guest); err != nil {
		o.toCollecting()
		return nil, err
	}
	if o.cart.IsEmpty() {
		o.toCollecting()
		return nil, common.NewAppError(common.KindValidation, "EMPTY_CART", "your cart is empty", nil)
	}

	split, err := pricing.ComputeSplit(o.cart.Total(), mode)
	if err != nil {
		o.toCollecting()
		return nil, err
	}

	resp, err := o.backend.CheckoutCart(ctx, api.CheckoutCartRequest{
		GuestDetails:             guest,
		SpecialRequests:          specialRequests,
		PartialPaymentPercentage: mode.Percentage(),
	})
	if err != nil {
		// Backend rejection during submission ends this attempt. The backend
		// message is surfaced verbatim and Reset starts the next attempt.
		o.fail(err)
		return nil, err
	}

	order := gateway.Order{
		ID:       resp.RazorpayOrder.ID,
		Amount:   resp.RazorpayOrder.Amount,
		Currency: resp.RazorpayOrder.Currency,
		KeyID:    o.orderKey(resp.RazorpayKeyID),
	}
	prefill := gateway.Prefill{Name: guest.Name, Email: guest.Email, Phone: guest.Phone}

	result, err := o.collect(ctx, order, prefill)
	if err != nil {
		return nil, err
	}

	o.setState(StateVerifying)
	verification, err := o.backend.VerifyCartPayment(ctx, api.VerifyCartPaymentRequest{
		PaymentGroupID:    resp.PaymentGroupID,
		RazorpayOrderID:   result.OrderID,
		RazorpayPaymentID: result.PaymentID,
		RazorpaySignature: result.Signature,
	})
	if err != nil {
		return nil, o.failVerification(result.PaymentID, err)
	}
	if !verification.Verified {
		return nil, o.failVerification(result.PaymentID, nil)
	}

	bookings := verification.Bookings
	if len(bookings) == 0 {
		bookings = resp.Bookings
	}
	o.succeed(ctx, bookings)
	return &Outcome{PaymentGroupID: resp.PaymentGroupID, Bookings: bookings, Split: split}, nil
}

// PayRemaining collects the outstanding balance of a partially paid booking
// through the same machine.
func (o *Orchestrator) PayRemaining(ctx context.Context, b booking.Booking, prefill gateway.Prefill) error {
	if !b.HasBalance() {
		return common.NewAppError(common.KindValidation, "NOTHING_DUE", "this booking has no outstanding balance", nil)
	}
	if err := o.begin(); err != nil {
		return err
	}

	resp, err := o.backend.CreateBookingPayment(ctx, b.ID, api.BookingPaymentRequest{PaymentType: "remaining"})
	if err != nil {
		o.fail(err)
		return err
	}
	order := gateway.Order{
		ID:       resp.RazorpayOrder.ID,
		Amount:   resp.RazorpayOrder.Amount,
		Currency: resp.RazorpayOrder.Currency,
		KeyID:    o.keyID,
	}

	result, err := o.collect(ctx, order, prefill)
	if err != nil {
		return err
	}

	o.setState(StateVerifying)
	verification, err := o.backend.VerifyBookingPayment(ctx, b.ID, api.VerifyBookingPaymentRequest{
		RazorpayOrderID:   result.OrderID,
		RazorpayPaymentID: result.PaymentID,
		RazorpaySignature: result.Signature,
	})
	if err != nil {
		return o.failVerification(result.PaymentID, err)
	}
	if !verification.Verified {
		return o.failVerification(result.PaymentID, nil)
	}

	o.succeed(ctx, verification.Bookings)
	return nil
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	if o.state != StateCollectingDetails {
		o.mu.Unlock()
		return common.NewAppError(common.KindValidation, "IN_PROGRESS", "a checkout is already in progress", nil)
	}
	o.state = StateSubmitting
	o.lastErr = nil
	o.mu.Unlock()
	o.emit(StateSubmitting)
	return nil
}

// collect opens the payment sheet. Dismissal rewinds to collecting details;
// any other gateway error is terminal.
func (o *Orchestrator) collect(ctx context.Context, order gateway.Order, prefill gateway.Prefill) (gateway.Result, error) {
	o.setState(StateAwaitingGateway)
	result, err := o.gw.Open(ctx, order, prefill)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, gateway.ErrCancelled) || errors.Is(err, context.Canceled) {
		o.toCollecting()
		return gateway.Result{}, gateway.ErrCancelled
	}
	appErr := common.NewAppError(common.KindGatewayFailure, "GATEWAY", "payment could not be completed", err)
	o.fail(appErr)
	return gateway.Result{}, appErr
}

// failVerification is the money-left-limbo path: the gateway took the
// payment but the backend could not confirm it. Retrying could double-charge
// so the only way out is manual support with the payment reference.
func (o *Orchestrator) failVerification(paymentID string, cause error) error {
	msg := fmt.Sprintf("your payment was received but could not be confirmed, contact support with reference %s", paymentID)
	appErr := common.NewAppError(common.KindVerificationFailure, "VERIFICATION_FAILED", msg, cause)
	o.logger.Error().Err(cause).Str("payment_id", paymentID).Msg("payment_verification_failed")
	o.fail(appErr)
	return appErr
}

func (o *Orchestrator) succeed(ctx context.Context, bookings []booking.Booking) {
	o.setState(StateSucceeded)
	o.cart.Clear()
	if o.onSuccess != nil {
		o.onSuccess(ctx, bookings)
	}
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.state = StateFailed
	o.lastErr = err
	o.mu.Unlock()
	o.emit(StateFailed)
}

func (o *Orchestrator) toCollecting() {
	o.mu.Lock()
	o.state = StateCollectingDetails
	o.mu.Unlock()
	o.emit(StateCollectingDetails)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.emit(s)
}

func (o *Orchestrator) emit(s State) {
	if o.onStateChange != nil {
		o.onStateChange(s)
	}
}

func (o *Orchestrator) orderKey(fromResponse string) string {
	if fromResponse != "" {
		return fromResponse
	}
	return o.keyID
}

// validateGuest maps validator failures to user-facing messages.
func (o *Orchestrator) validateGuest(guest api.GuestDetails) error {
	err := o.validate.Struct(guest)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return common.NewAppError(common.KindValidation, "GUEST_DETAILS", guestFieldMessage(verrs[0]), err)
	}
	return common.NewAppError(common.KindValidation, "GUEST_DETAILS", "please check your details", err)
}

func guestFieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		return "please enter your full name"
	case "Email":
		return "please enter a valid email address"
	case "Phone":
		return "phone number must be exactly 10 digits"
	default:
		return "please check your details"
	}
}
