package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(time.Now()).
		Expiration(expiresAt).
		Build()
	require.NoError(t, err)
	raw, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	require.NoError(t, err)
	return string(raw)
}

func TestSignInAndTokenRoundTrip(t *testing.T) {
	store := &MemoryStore{}
	s := New(store, zerolog.Nop(), nil)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, "user1", expiry)
	require.NoError(t, s.SignIn(ctx, raw, User{ID: "user1", Name: "Asha"}))

	token, err := s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, raw, token)
	require.True(t, s.Authenticated())
	require.Equal(t, "user1", s.UserID())
	require.Equal(t, expiry.UTC(), s.ExpiresAt().UTC())

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, raw, persisted)
}

func TestExpiredTokenReadsAsSignedOut(t *testing.T) {
	s := New(nil, zerolog.Nop(), nil)
	ctx := context.Background()

	raw := signedToken(t, "user1", time.Now().Add(time.Hour))
	require.NoError(t, s.SignIn(ctx, raw, User{ID: "user1"}))

	s.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	token, err := s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token)
	require.False(t, s.Authenticated())
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	store := &MemoryStore{}
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, signedToken(t, "user1", time.Now().Add(-time.Minute))))

	s := New(store, zerolog.Nop(), nil)
	require.NoError(t, s.Restore(ctx))
	require.False(t, s.Authenticated())

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, persisted, "expired credentials must be cleared from the store")
}

func TestRestoreDiscardsMalformedToken(t *testing.T) {
	store := &MemoryStore{}
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "not-a-jwt"))

	s := New(store, zerolog.Nop(), nil)
	require.NoError(t, s.Restore(ctx))
	require.False(t, s.Authenticated())
}

func TestRestoreKeepsFreshToken(t *testing.T) {
	store := &MemoryStore{}
	ctx := context.Background()
	raw := signedToken(t, "user1", time.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, raw))

	s := New(store, zerolog.Nop(), nil)
	require.NoError(t, s.Restore(ctx))
	require.True(t, s.Authenticated())
	require.Equal(t, "user1", s.UserID())
}

func TestHandleUnauthorizedFiresOnce(t *testing.T) {
	var expired atomic.Int32
	store := &MemoryStore{}
	s := New(store, zerolog.Nop(), func() { expired.Add(1) })
	ctx := context.Background()

	raw := signedToken(t, "user1", time.Now().Add(time.Hour))
	require.NoError(t, s.SignIn(ctx, raw, User{ID: "user1"}))

	s.HandleUnauthorized()
	s.HandleUnauthorized()

	require.Equal(t, int32(1), expired.Load(), "hook must fire once per sign-out")
	require.False(t, s.Authenticated())
	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestSignOutClearsEverything(t *testing.T) {
	store := &MemoryStore{}
	s := New(store, zerolog.Nop(), nil)
	ctx := context.Background()

	raw := signedToken(t, "user1", time.Now().Add(time.Hour))
	require.NoError(t, s.SignIn(ctx, raw, User{ID: "user1", Name: "Asha"}))
	require.NoError(t, s.SignOut(ctx))

	require.False(t, s.Authenticated())
	require.Empty(t, s.User().Name)
	require.Empty(t, s.UserID())
}
