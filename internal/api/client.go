// Package api is the typed client for the rentals backend. Every endpoint
// decodes the uniform response envelope and maps failures onto the shared
// error taxonomy; callers never see raw HTTP status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/happygorentals/client-go/internal/booking"
	"github.com/happygorentals/client-go/internal/cart"
	"github.com/happygorentals/client-go/internal/common"
	"github.com/happygorentals/client-go/internal/obs"
	"github.com/happygorentals/client-go/internal/resilience"
)

var _ cart.Backend = (*Client)(nil)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config wires a Client.
type Config struct {
	BaseURL string
	Tokens  TokenSource
	Logger  zerolog.Logger
	Metrics *obs.APIMetrics
	// Reads carries retry semantics; Mutations must be single-attempt since
	// replaying an order-creating call can double-charge.
	Reads     resilience.HTTPClient
	Mutations resilience.HTTPClient
	// OnUnauthorized fires once per rejected call so the session layer can
	// force a re-login.
	OnUnauthorized func()
}

// Client is the typed backend API client.
type Client struct {
	baseURL        string
	tokens         TokenSource
	logger         zerolog.Logger
	metrics        *obs.APIMetrics
	reads          resilience.HTTPClient
	mutations      resilience.HTTPClient
	onUnauthorized func()
}

// New validates the configuration and returns a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	if cfg.Mutations.MaxAttempts > 1 {
		return nil, fmt.Errorf("api: mutation client must be single-attempt")
	}
	return &Client{
		baseURL:        base,
		tokens:         cfg.Tokens,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		reads:          cfg.Reads,
		mutations:      cfg.Mutations,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

type callOpts struct {
	endpoint   string
	mutation   bool
	idempotent bool
}

// call issues one request and decodes the envelope's data field into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any, opts callOpts) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return common.NewAppError(common.KindInternal, "ENCODE", "could not encode request body", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return common.NewAppError(common.KindInternal, "REQUEST", "could not build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return common.NewAppError(common.KindInternal, "TOKEN", "could not obtain auth token", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if opts.idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	httpClient := c.reads
	if opts.mutation {
		httpClient = c.mutations
	}

	if c.metrics != nil {
		c.metrics.InFlight.Inc()
	}
	start := time.Now()
	resp, err := httpClient.Do(ctx, req)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.InFlight.Dec()
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.Observe(opts.endpoint, 0, elapsed)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logger.Warn().Err(err).Str("endpoint", opts.endpoint).Msg("api_transport_error")
		return common.NewAppError(common.KindNetwork, "NETWORK", "could not reach the server, check your connection", err)
	}
	defer resp.Body.Close()
	if c.metrics != nil {
		c.metrics.Observe(opts.endpoint, resp.StatusCode, elapsed)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewAppError(common.KindNetwork, "READ_BODY", "connection interrupted while reading response", err)
	}

	var env envelope
	if len(raw) > 0 {
		// a malformed body on an error status still maps below
		_ = json.Unmarshal(raw, &env)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return common.NewAppError(common.KindBackendRejection, "UNAUTHORIZED", messageOr(env.Message, "your session has expired, please sign in again"), nil)
	case resp.StatusCode >= 500:
		return common.NewAppError(common.KindNetwork, "SERVER_ERROR", messageOr(env.Message, "the server is having trouble, try again shortly"), nil)
	case resp.StatusCode >= 400:
		// backend rejection messages are shown to the user verbatim
		return common.NewAppError(common.KindBackendRejection, "REJECTED", messageOr(env.Message, http.StatusText(resp.StatusCode)), nil)
	}

	if !env.Success {
		return common.NewAppError(common.KindBackendRejection, "REJECTED", messageOr(env.Message, "request was not accepted"), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return common.NewAppError(common.KindInternal, "DECODE", "could not decode server response", err)
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

// CartDetails fetches the current cart snapshot.
func (c *Client) CartDetails(ctx context.Context) (*cart.Snapshot, error) {
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodGet, "/cart/details", nil, &snap, callOpts{endpoint: "cart_details"}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddBikeItem adds a bike line to the cart.
func (c *Client) AddBikeItem(ctx context.Context, req cart.AddBikeRequest) (*cart.Snapshot, error) {
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodPost, "/cart/items", req, &snap, callOpts{endpoint: "cart_add_bike", mutation: true}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddHostelItem adds a hostel line to the cart.
func (c *Client) AddHostelItem(ctx context.Context, req cart.AddHostelRequest) (*cart.Snapshot, error) {
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodPost, "/cart/hostel-items", req, &snap, callOpts{endpoint: "cart_add_hostel", mutation: true}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// UpdateItemQuantity sets the quantity of one cart line.
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*cart.Snapshot, error) {
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodPut, "/cart/items/"+itemID, body, &snap, callOpts{endpoint: "cart_update_quantity", mutation: true}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RemoveItem deletes one cart line.
func (c *Client) RemoveItem(ctx context.Context, itemID string) (*cart.Snapshot, error) {
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodDelete, "/cart/items/"+itemID, nil, &snap, callOpts{endpoint: "cart_remove_item", mutation: true}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// UpdateHelmets sets the cart-level helmet quantity.
func (c *Client) UpdateHelmets(ctx context.Context, quantity int, dates *cart.BikeDates) (*cart.Snapshot, error) {
	body := struct {
		Quantity  int             `json:"quantity"`
		BikeDates *cart.BikeDates `json:"bikeDates,omitempty"`
	}{Quantity: quantity, BikeDates: dates}
	var snap cart.Snapshot
	if err := c.call(ctx, http.MethodPut, "/cart/helmets", body, &snap, callOpts{endpoint: "cart_update_helmets", mutation: true}); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CheckoutCart converts the cart into bookings and a gateway order. The
// request carries an idempotency key so a network blip cannot create two
// payment groups.
func (c *Client) CheckoutCart(ctx context.Context, req CheckoutCartRequest) (*CheckoutCartResponse, error) {
	var out CheckoutCartResponse
	if err := c.call(ctx, http.MethodPost, "/bookings/cart", req, &out, callOpts{endpoint: "checkout_cart", mutation: true, idempotent: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCartPayment submits the gateway result for a payment group.
func (c *Client) VerifyCartPayment(ctx context.Context, req VerifyCartPaymentRequest) (*VerifyPaymentResponse, error) {
	var out VerifyPaymentResponse
	if err := c.call(ctx, http.MethodPost, "/payments/cart/verify", req, &out, callOpts{endpoint: "verify_cart_payment", mutation: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBookingPayment creates a gateway order for one booking.
func (c *Client) CreateBookingPayment(ctx context.Context, bookingID string, req BookingPaymentRequest) (*BookingPaymentResponse, error) {
	var out BookingPaymentResponse
	if err := c.call(ctx, http.MethodPost, "/payments/booking/"+bookingID, req, &out, callOpts{endpoint: "create_booking_payment", mutation: true, idempotent: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyBookingPayment submits the gateway result for one booking.
func (c *Client) VerifyBookingPayment(ctx context.Context, bookingID string, req VerifyBookingPaymentRequest) (*VerifyPaymentResponse, error) {
	var out VerifyPaymentResponse
	if err := c.call(ctx, http.MethodPost, "/payments/booking/"+bookingID+"/verify", req, &out, callOpts{endpoint: "verify_booking_payment", mutation: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings fetches the account's bookings.
func (c *Client) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	var out []booking.Booking
	if err := c.call(ctx, http.MethodGet, "/bookings/my-bookings", nil, &out, callOpts{endpoint: "list_bookings"}); err != nil {
		return nil, err
	}
	return out, nil
}

// Booking fetches a single booking.
func (c *Client) Booking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.call(ctx, http.MethodGet, "/bookings/"+bookingID, nil, &out, callOpts{endpoint: "get_booking"}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtendBooking moves a bike rental's end of window forward.
func (c *Client) ExtendBooking(ctx context.Context, bookingID string, req booking.ExtendRequest) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.call(ctx, http.MethodPut, "/bookings/"+bookingID+"/extend", req, &out, callOpts{endpoint: "extend_booking", mutation: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Referrals fetches the account's referral code and reward history.
func (c *Client) Referrals(ctx context.Context) (*ReferralData, error) {
	var out ReferralData
	if err := c.call(ctx, http.MethodGet, "/referrals", nil, &out, callOpts{endpoint: "referrals"}); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyAadhaar submits Aadhaar details for a booking.
func (c *Client) VerifyAadhaar(ctx context.Context, req booking.AadhaarRequest) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.call(ctx, http.MethodPost, "/verification/aadhaar", req, &out, callOpts{endpoint: "verify_aadhaar", mutation: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDrivingLicence submits driving licence details for a booking.
func (c *Client) SubmitDrivingLicence(ctx context.Context, req booking.LicenceRequest) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.call(ctx, http.MethodPost, "/verification/dl", req, &out, callOpts{endpoint: "submit_driving_licence", mutation: true}); err != nil {
		return nil, err
	}
	return &out, nil
}
