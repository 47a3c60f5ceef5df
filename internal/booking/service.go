// Package booking reads and mutates the account's bookings with a Redis
// read-through cache in front of the backend.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/happygorentals/client-go/internal/common"
)

// Backend is the slice of the API client the service needs.
type Backend interface {
	ListBookings(ctx context.Context) ([]Booking, error)
	Booking(ctx context.Context, bookingID string) (*Booking, error)
	ExtendBooking(ctx context.Context, bookingID string, req ExtendRequest) (*Booking, error)
	VerifyAadhaar(ctx context.Context, req AadhaarRequest) (*Booking, error)
	SubmitDrivingLicence(ctx context.Context, req LicenceRequest) (*Booking, error)
}

// Service serves booking reads through the cache and writes through the
// backend. Cache trouble degrades to a backend call, never to a failure.
type Service struct {
	backend  Backend
	cache    *Cache
	validate *validator.Validate
	logger   zerolog.Logger
	// scope isolates cache keys per signed-in account.
	scope string
}

// NewService constructs a Service. cache may be nil to disable caching.
func NewService(backend Backend, cache *Cache, logger zerolog.Logger, scope string) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("booking: backend is required")
	}
	if scope == "" {
		scope = "anonymous"
	}
	return &Service{backend: backend, cache: cache, validate: validator.New(), logger: logger, scope: scope}, nil
}

func (s *Service) listKey() string {
	return "bookings:list:" + s.scope
}

func (s *Service) itemKey(id string) string {
	return "bookings:item:" + s.scope + ":" + id
}

// List returns the account's bookings, from cache when fresh. force skips
// the cache for pull-to-refresh.
func (s *Service) List(ctx context.Context, force bool) ([]Booking, error) {
	if !force {
		var cached []Booking
		hit, err := s.cache.GetJSON(ctx, s.listKey(), &cached)
		if err != nil {
			s.logger.Warn().Err(err).Msg("booking_cache_read_failed")
		}
		if hit {
			return cached, nil
		}
	}
	bookings, err := s.backend.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, s.listKey(), bookings); err != nil {
		s.logger.Warn().Err(err).Msg("booking_cache_write_failed")
	}
	return bookings, nil
}

// Get returns one booking, from cache when fresh.
func (s *Service) Get(ctx context.Context, bookingID string, force bool) (*Booking, error) {
	if !force {
		var cached Booking
		hit, err := s.cache.GetJSON(ctx, s.itemKey(bookingID), &cached)
		if err != nil {
			s.logger.Warn().Err(err).Msg("booking_cache_read_failed")
		}
		if hit {
			return &cached, nil
		}
	}
	b, err := s.backend.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, b)
	return b, nil
}

// Extend moves a rental's end of window forward and refreshes the cache.
func (s *Service) Extend(ctx context.Context, bookingID string, req ExtendRequest) (*Booking, error) {
	b, err := s.backend.ExtendBooking(ctx, bookingID, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, b)
	s.invalidateList(ctx)
	return b, nil
}

// VerifyAadhaar submits Aadhaar details and refreshes the cache. The number
// is checked locally before dispatch; a malformed one never leaves the
// device.
func (s *Service) VerifyAadhaar(ctx context.Context, req AadhaarRequest) (*Booking, error) {
	if err := s.validateRequest(req, "a valid 12-digit Aadhaar number is required"); err != nil {
		return nil, err
	}
	b, err := s.backend.VerifyAadhaar(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, b)
	s.invalidateList(ctx)
	return b, nil
}

// SubmitDrivingLicence submits licence details and refreshes the cache.
func (s *Service) SubmitDrivingLicence(ctx context.Context, req LicenceRequest) (*Booking, error) {
	if err := s.validateRequest(req, "a driving licence number is required"); err != nil {
		return nil, err
	}
	b, err := s.backend.SubmitDrivingLicence(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, b)
	s.invalidateList(ctx)
	return b, nil
}

// InvalidateAll drops cached bookings so the next read hits the backend.
// Called after a verified payment creates new bookings.
func (s *Service) InvalidateAll(ctx context.Context) {
	s.invalidateList(ctx)
}

func (s *Service) validateRequest(req any, msg string) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return common.NewAppError(common.KindValidation, "VERIFICATION_DETAILS", msg, err)
	}
	return common.NewAppError(common.KindInternal, "VALIDATE", "could not validate request", err)
}

func (s *Service) store(ctx context.Context, b *Booking) {
	if b == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, s.itemKey(b.ID), b); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("booking_cache_write_failed")
	}
}

func (s *Service) invalidateList(ctx context.Context) {
	if err := s.cache.Delete(ctx, s.listKey()); err != nil {
		s.logger.Warn().Err(err).Msg("booking_cache_invalidate_failed")
	}
}
