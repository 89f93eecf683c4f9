package replenish_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KukimiCan/aozora-api/fetch"
	"github.com/KukimiCan/aozora-api/ncache"
	"github.com/KukimiCan/aozora-api/replenish"
)

// mockFetcher returns generated documents, or a fixed error.
type mockFetcher struct {
	err       error
	callCount atomic.Int32
}

func (m *mockFetcher) FetchOne(ctx context.Context) (fetch.Document, error) {
	n := m.callCount.Add(1)
	if m.err != nil {
		return fetch.Document{}, m.err
	}
	return fetch.Document{Title: fmt.Sprintf("doc-%d", n)}, nil
}

func TestReplenishFillsToCapacity(t *testing.T) {
	cache, err := ncache.New(ncache.WithCapacity(5))
	require.NoError(t, err)

	src := &mockFetcher{}
	r, err := replenish.New(cache, src)
	require.NoError(t, err)
	defer r.Close()

	// Bounded number of iterations, no background loop.
	for i := 0; i < 5; i++ {
		require.True(t, r.Replenish(context.Background()))
		require.Equal(t, i+1, cache.Len())
	}

	// At target: further iterations are no-ops and do not fetch.
	require.False(t, r.Replenish(context.Background()))
	require.Equal(t, 5, cache.Len())
	require.Equal(t, int32(5), src.callCount.Load())

	// Consuming a document makes room for one more.
	_, ok := cache.TakeFront()
	require.True(t, ok)
	require.True(t, r.Replenish(context.Background()))
	require.Equal(t, 5, cache.Len())
}

func TestReplenishFetchFailure(t *testing.T) {
	cache, err := ncache.New(ncache.WithCapacity(3))
	require.NoError(t, err)

	src := &mockFetcher{err: errors.New("upstream down")}
	r, err := replenish.New(cache, src)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 10; i++ {
		require.False(t, r.Replenish(context.Background()))
	}
	require.Equal(t, 0, cache.Len())
	require.Equal(t, int32(10), src.callCount.Load())
}

func TestReplenishSkippedEntry(t *testing.T) {
	cache, err := ncache.New()
	require.NoError(t, err)

	src := &mockFetcher{err: fetch.ErrSkipped}
	r, err := replenish.New(cache, src)
	require.NoError(t, err)
	defer r.Close()

	require.False(t, r.Replenish(context.Background()))
	require.Equal(t, 0, cache.Len())
}

func TestStartClose(t *testing.T) {
	cache, err := ncache.New(ncache.WithCapacity(3))
	require.NoError(t, err)

	src := &mockFetcher{}
	r, err := replenish.New(cache, src, replenish.WithInterval(time.Millisecond))
	require.NoError(t, err)

	r.Start()
	require.Eventually(t, cache.Full, time.Second, 5*time.Millisecond)

	r.Close()
	calls := src.callCount.Load()

	// Loop is stopped; no further fetches happen.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, calls, src.callCount.Load())
	require.Equal(t, 3, cache.Len())
}

func TestCloseWithoutStart(t *testing.T) {
	cache, err := ncache.New()
	require.NoError(t, err)
	r, err := replenish.New(cache, &mockFetcher{})
	require.NoError(t, err)
	r.Close()
	r.Close()
}

func TestBadInterval(t *testing.T) {
	cache, err := ncache.New()
	require.NoError(t, err)
	_, err = replenish.New(cache, &mockFetcher{}, replenish.WithInterval(0))
	require.Error(t, err)
}
