package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an in-process Cache for exercising Cached
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mapCache) Close() error { return nil }

func TestNewWithoutAddrIsNoop(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, NoopCache{}, c)

	var v int
	ok, err := c.Get(context.Background(), "k", &v)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{data: map[string][]byte{}}
	calls := 0
	load := func(context.Context) (map[string]int64, error) {
		calls++
		return map[string]int64{"STUDENT": 3}, nil
	}

	v, err := Cached(ctx, c, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v["STUDENT"])

	v, err = Cached(ctx, c, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v["STUDENT"])
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Delete(ctx, "stats"))
	_, err = Cached(ctx, c, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedPropagatesLoadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Cached(context.Background(), NoopCache{}, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
