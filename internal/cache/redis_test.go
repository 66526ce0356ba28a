package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only when LENDING_TEST_REDIS_URL points at a disposable server.
func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("LENDING_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LENDING_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url, "", "lending-test:"+t.Name())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, PositionKey("0xabc"), []byte(`{"a":1}`), time.Minute))
	require.NoError(t, s.Set(ctx, KeyMarkets, []byte(`[]`), time.Minute))

	v, ok, err := s.Get(ctx, PositionKey("0xabc"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(v))

	require.NoError(t, s.Invalidate(ctx, KeyPositions))
	_, ok, err = s.Get(ctx, PositionKey("0xabc"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = s.Get(ctx, KeyMarkets)
	assert.True(t, ok)
	require.NoError(t, s.Invalidate(ctx, KeyMarkets))
}
