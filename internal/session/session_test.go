package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndToken(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	require.False(t, s.Authenticated(ctx))
	require.Error(t, s.Login(ctx, "   "))

	require.NoError(t, s.Login(ctx, "T"))
	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T", token)
	assert.True(t, s.Authenticated(ctx))
}

func TestExpireClearsTokenAndRunsHooks(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())
	require.NoError(t, s.Login(ctx, "T"))

	var got []Teardown
	s.OnTeardown(func(_ context.Context, td Teardown) { got = append(got, td) })

	expired, err := s.Expire(ctx, "T")
	require.NoError(t, err)
	assert.True(t, expired)
	assert.False(t, s.Authenticated(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, Teardown{Reason: ReasonUnauthorized, HadToken: true}, got[0])
}

func TestExpireIgnoresSupersededToken(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())
	require.NoError(t, s.Login(ctx, "new"))

	hooks := 0
	s.OnTeardown(func(context.Context, Teardown) { hooks++ })

	expired, err := s.Expire(ctx, "old")
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 0, hooks)

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", token)
}

func TestExpireWithoutTokenStillRunsHooks(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	var got Teardown
	s.OnTeardown(func(_ context.Context, td Teardown) { got = td })

	expired, err := s.Expire(ctx, "")
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, Teardown{Reason: ReasonUnauthorized, HadToken: false}, got)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Login(ctx, "T"))

	var reason Reason
	s.OnTeardown(func(_ context.Context, td Teardown) { reason = td.Reason })

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, ReasonLogout, reason)
	assert.False(t, s.Authenticated(ctx))
}

func TestClaims(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"pid": "2b9c5c4e",
		"exp": exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	s := New(NewMemoryStore())
	_, err = s.Claims(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Login(ctx, signed))
	claims, err := s.Claims(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2b9c5c4e", claims.PID)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Minute)))
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	require.Error(t, err)
}
