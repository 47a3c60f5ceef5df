package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/happygorentals/client-go/internal/common"
)

type fakeBackend struct {
	mu           sync.Mutex
	listCalls    int
	getCalls     int
	aadhaarCalls int
	licenceCalls int
	bookings     []Booking
}

func (f *fakeBackend) ListBookings(ctx context.Context) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]Booking(nil), f.bookings...), nil
}

func (f *fakeBackend) Booking(ctx context.Context, bookingID string) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	for _, b := range f.bookings {
		if b.ID == bookingID {
			out := b
			return &out, nil
		}
	}
	return nil, redis.Nil
}

func (f *fakeBackend) ExtendBooking(ctx context.Context, bookingID string, req ExtendRequest) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == bookingID {
			f.bookings[i].EndDate = req.NewEndDate
			out := f.bookings[i]
			return &out, nil
		}
	}
	return nil, redis.Nil
}

func (f *fakeBackend) VerifyAadhaar(ctx context.Context, req AadhaarRequest) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aadhaarCalls++
	for i := range f.bookings {
		if f.bookings[i].ID == req.BookingID {
			f.bookings[i].AadhaarVerified = true
			out := f.bookings[i]
			return &out, nil
		}
	}
	return nil, redis.Nil
}

func (f *fakeBackend) SubmitDrivingLicence(ctx context.Context, req LicenceRequest) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.licenceCalls++
	for i := range f.bookings {
		if f.bookings[i].ID == req.BookingID {
			f.bookings[i].DLVerified = true
			out := f.bookings[i]
			return &out, nil
		}
	}
	return nil, redis.Nil
}

func newTestService(t *testing.T, backend Backend) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc, err := NewService(backend, NewCache(client, time.Minute), zerolog.Nop(), "user1")
	require.NoError(t, err)
	return svc, mr
}

func TestListServesFromCacheUntilInvalidated(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1", Status: StatusConfirmed}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	first, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, backend.listCalls)

	second, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, backend.listCalls, "second read must hit the cache")

	svc.InvalidateAll(ctx)
	_, err = svc.List(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, backend.listCalls, "invalidation must force a backend read")
}

func TestListForceSkipsCache(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1"}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.List(ctx, false)
	require.NoError(t, err)
	_, err = svc.List(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, backend.listCalls)
}

func TestCacheExpiryFallsThrough(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1"}}}
	svc, mr := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.List(ctx, false)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = svc.List(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, backend.listCalls)
}

func TestGetCachesItem(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1", Status: StatusActive}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	b, err := svc.Get(ctx, "bk1", false)
	require.NoError(t, err)
	require.Equal(t, StatusActive, b.Status)
	require.Equal(t, 1, backend.getCalls)

	_, err = svc.Get(ctx, "bk1", false)
	require.NoError(t, err)
	require.Equal(t, 1, backend.getCalls)
}

func TestExtendRefreshesCaches(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1", EndDate: "2026-09-03"}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.List(ctx, false)
	require.NoError(t, err)

	updated, err := svc.Extend(ctx, "bk1", ExtendRequest{NewEndDate: "2026-09-05"})
	require.NoError(t, err)
	require.Equal(t, "2026-09-05", updated.EndDate)

	// The list cache was invalidated, the item cache updated in place.
	_, err = svc.List(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, backend.listCalls)

	b, err := svc.Get(ctx, "bk1", false)
	require.NoError(t, err)
	require.Equal(t, "2026-09-05", b.EndDate)
	require.Equal(t, 0, backend.getCalls, "item read must come from cache")
}

func TestVerificationUpdatesFlags(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1", Kind: KindBike, Status: StatusConfirmed}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	b, err := svc.VerifyAadhaar(ctx, AadhaarRequest{BookingID: "bk1", AadhaarNumber: "123412341234"})
	require.NoError(t, err)
	require.True(t, b.AadhaarVerified)

	b, err = svc.SubmitDrivingLicence(ctx, LicenceRequest{BookingID: "bk1", LicenceNumber: "KA01 2026001234"})
	require.NoError(t, err)
	require.True(t, b.DLVerified)
}

func TestVerificationRejectsMalformedDetails(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1", Kind: KindBike}}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	aadhaarCases := []struct {
		name   string
		number string
	}{
		{"too short", "12341234123"},
		{"too long", "1234123412345"},
		{"not numeric", "12341234123x"},
		{"empty", ""},
	}
	for _, tc := range aadhaarCases {
		t.Run("aadhaar "+tc.name, func(t *testing.T) {
			_, err := svc.VerifyAadhaar(ctx, AadhaarRequest{BookingID: "bk1", AadhaarNumber: tc.number})
			require.Error(t, err)
			require.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}

	_, err := svc.SubmitDrivingLicence(ctx, LicenceRequest{BookingID: "bk1"})
	require.Error(t, err)
	require.Equal(t, common.KindValidation, common.KindOf(err))

	require.Equal(t, 0, backend.aadhaarCalls, "malformed details must not reach the backend")
	require.Equal(t, 0, backend.licenceCalls)
}

func TestServiceWorksWithoutRedis(t *testing.T) {
	backend := &fakeBackend{bookings: []Booking{{ID: "bk1"}}}
	svc, err := NewService(backend, nil, zerolog.Nop(), "user1")
	require.NoError(t, err)

	_, err = svc.List(context.Background(), false)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, backend.listCalls, "no cache means every read hits the backend")
}
