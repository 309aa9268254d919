package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePrincipal() *domain.Principal {
	return &domain.Principal{
		Email:        "user@test.com",
		GrantedRoles: []string{"ROLE_USER"},
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s domain.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "sid", samplePrincipal()))
	got, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, samplePrincipal(), got)

	got.AccessToken = "rotated"
	require.NoError(t, s.Save(ctx, "sid", got))
	again, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "rotated", again.AccessToken)

	require.NoError(t, s.Delete(ctx, "sid"))
	_, err = s.Get(ctx, "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(clock.NewFakeClock(time.Now()), time.Hour))
}

func TestMemoryStoreExpires(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clk, time.Hour)
	require.NoError(t, s.Save(context.Background(), "sid", samplePrincipal()))

	clk.Advance(time.Hour)
	_, err := s.Get(context.Background(), "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStoreCopiesPrincipal(t *testing.T) {
	s := NewMemoryStore(clock.NewFakeClock(time.Now()), time.Hour)
	p := samplePrincipal()
	require.NoError(t, s.Save(context.Background(), "sid", p))
	p.GrantedRoles[0] = "ROLE_SUPER_ADMIN"

	got, err := s.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, got.GrantedRoles)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, time.Hour)
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), "ttl", samplePrincipal()))
	assert.Equal(t, time.Hour, mr.TTL("coursehub:session:ttl"))
	mr.FastForward(2 * time.Hour)
	_, err = s.Get(context.Background(), "ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
