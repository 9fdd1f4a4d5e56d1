package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour)

	token, issued, err := iss.Issue(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, issued.ID, got.ID)
	assert.Equal(t, issued.ExpiresAt.Unix(), got.ExpiresAt.Unix())

	other, _, err := iss.Issue(42, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each token gets its own id")
}

func TestIssuer_Rejects(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := NewIssuer("s3cret", time.Hour)
	iss.Now = func() time.Time { return start }

	token, _, err := iss.Issue(1, "alice")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("s3cret", time.Hour)
		later.Now = func() time.Time { return start.Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("different", time.Hour)
		other.Now = iss.Now
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"user_id": 1,
			"exp":     start.Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1}).
			SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = iss.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryRevoker()
	m.Now = func() time.Time { return now }

	revoked, err := m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, m.Revoke(ctx, "b", now.Add(time.Hour)))

	revoked, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked, "entry lapses with the token")

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Prune())
	assert.Equal(t, 0, m.Prune())
}

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed revocation tests")
	}
	ctx := context.Background()

	r, err := NewRedisRevoker(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer r.Close()

	_, claims, err := NewIssuer("s3cret", time.Minute).Issue(1, "alice")
	require.NoError(t, err)

	revoked, err := r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, claims.ID, claims.ExpiresAt))
	t.Cleanup(func() { r.Client.Del(context.Background(), revokedKeyPrefix+claims.ID) })

	revoked, err = r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := r.Client.TTL(ctx, revokedKeyPrefix+claims.ID).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)
}
