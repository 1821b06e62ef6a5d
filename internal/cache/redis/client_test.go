package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	return NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()})), mr
}

func TestEmbeddingRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	embedding := []float32{0.1, -0.5, 0.33}
	require.NoError(t, c.SetEmbedding(ctx, "hash1", embedding, time.Hour))

	got, found, err := c.GetEmbedding(ctx, "hash1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, embedding, got)
}

func TestEmbeddingMiss(t *testing.T) {
	c, _ := newTestClient(t)

	got, found, err := c.GetEmbedding(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestEmbeddingTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetEmbedding(ctx, "hash1", []float32{1}, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, found, err := c.GetEmbedding(ctx, "hash1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateEmbeddings(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetEmbedding(ctx, "h1", []float32{1}, time.Hour))
	require.NoError(t, c.SetEmbedding(ctx, "h2", []float32{2}, time.Hour))

	require.NoError(t, c.InvalidateEmbeddings(ctx))

	_, found, err := c.GetEmbedding(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.GetEmbedding(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, found)
}
