package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Items []string `json:"items"`
}

func TestRememberLoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(NewMemoryStore(10))

	var calls int32
	load := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return page{Items: []string{"a", "b"}}, nil
	}

	var first, second page
	require.NoError(t, loader.Remember(ctx, "k", time.Minute, &first, load))
	require.NoError(t, loader.Remember(ctx, "k", time.Minute, &second, load))

	assert.Equal(t, []string{"a", "b"}, first.Items)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRememberPropagatesLoadError(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(NewMemoryStore(10))
	boom := errors.New("boom")

	var dst page
	err := loader.Remember(ctx, "k", time.Minute, &dst, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = loader.Store().Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Delete(context.Context, ...string) error    { return errors.New("down") }
func (brokenStore) DeletePrefix(context.Context, string) error { return errors.New("down") }

func TestRememberFallsBackWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(brokenStore{})

	var mu sync.Mutex
	var reported []string
	loader.OnError = func(key string, err error) {
		mu.Lock()
		reported = append(reported, key)
		mu.Unlock()
	}

	var dst page
	err := loader.Remember(ctx, "k", time.Minute, &dst, func() (interface{}, error) {
		return page{Items: []string{"x"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, dst.Items)
	assert.Equal(t, []string{"k", "k"}, reported)
}
