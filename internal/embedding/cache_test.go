package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"embedding-backfill/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a vector derived from the text length and counts calls.
type stubEmbedder struct {
	dim   int
	calls int
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vec := make([]float32, s.dim)
	for i := range vec {
		vec[i] = float32(len(text)) + float32(i)
	}
	return vec, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }
func (s *stubEmbedder) Model() string  { return "stub-model" }

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &stubEmbedder{dim: 3}
	cached := NewCached(inner, rdb, time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := cached.Embed(ctx, "Skyline Towers")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "Skyline Towers")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	key := CacheKey("stub-model", "Skyline Towers")
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(key).Seconds(), 1)
}

func TestCachedEmbedder_DiscardsWrongDimension(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	key := CacheKey("stub-model", "text")
	require.NoError(t, mr.Set(key, `[1,2]`))

	inner := &stubEmbedder{dim: 3}
	vec, err := NewCached(inner, rdb, 0, logger.NewTestLogger(t)).Embed(context.Background(), "text")

	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedder_RedisUnavailable(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	inner := &stubEmbedder{dim: 2}
	key := CacheKey("stub-model", "text")
	want, _ := inner.Embed(context.Background(), "text")
	inner.calls = 0
	data, _ := json.Marshal(want)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, data, 0).SetErr(errors.New("connection refused"))

	vec, err := NewCached(inner, rdb, 0, logger.NewTestLogger(t)).Embed(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, want, vec)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedEmbedder_InnerErrorNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	inner := &stubEmbedder{dim: 2, err: ErrRequestFailed}
	key := CacheKey("stub-model", "text")
	mock.ExpectGet(key).RedisNil()

	_, err := NewCached(inner, rdb, 0, logger.NewTestLogger(t)).Embed(context.Background(), "text")

	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("BAAI/bge-small-en-v1.5", "x")
	b := CacheKey("BAAI/bge-small-en-v1.5", "y")
	c := CacheKey("text-embedding-3-small", "x")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "embedding:BAAI/bge-small-en-v1.5:")
	assert.Len(t, a, len("embedding:BAAI/bge-small-en-v1.5:")+64)
}
