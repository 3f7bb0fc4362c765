package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(calls *atomic.Int32, v string) Loader[string] {
	return func(context.Context) (string, error) {
		calls.Add(1)

		return v, nil
	}
}

func TestStoreCachesLoadedValue(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	var calls atomic.Int32

	for range 3 {
		v, err := s.Get(context.Background(), "k", counting(&calls, "v"))
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, s.Len())
}

func TestStoreDoesNotCacheErrors(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	_, err := s.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "", assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, s.Len())
}

func TestStoreInvalidateAndPurge(t *testing.T) {
	s := New[string]("test", 10, time.Minute)
	ctx := context.Background()

	var calls atomic.Int32

	_, _ = s.Get(ctx, "a", counting(&calls, "1"))
	_, _ = s.Get(ctx, "b", counting(&calls, "1"))

	s.Invalidate("a")
	assert.Equal(t, 1, s.Len())

	v, err := s.Get(ctx, "a", counting(&calls, "2"))
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	s.Purge()
	assert.Zero(t, s.Len())
	assert.Equal(t, int32(3), calls.Load())
}

func TestStoreCoalescesConcurrentMisses(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	var (
		calls   atomic.Int32
		started sync.WaitGroup
		done    sync.WaitGroup
	)

	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release

		return "shared", nil
	}

	results := make([]string, 8)

	for i := range results {
		started.Add(1)
		done.Add(1)

		go func() {
			defer done.Done()

			started.Done()

			v, err := s.Get(context.Background(), "k", load)
			assert.NoError(t, err)

			results[i] = v
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())

	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestStoreDropsValueLoadedAcrossInvalidation(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	entered := make(chan struct{})
	release := make(chan struct{})
	result := make(chan string, 1)

	go func() {
		v, _ := s.Get(context.Background(), "k", func(context.Context) (string, error) {
			close(entered)
			<-release

			return "stale", nil
		})
		result <- v
	}()

	<-entered
	s.Invalidate("k")
	close(release)

	assert.Equal(t, "stale", <-result)
	assert.Zero(t, s.Len())

	var calls atomic.Int32

	v, err := s.Get(context.Background(), "k", counting(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStoreInvalidationRacingLoadCompletionNeverCaches(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	for range 200 {
		entered := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup

		wg.Add(2)

		go func() {
			defer wg.Done()

			_, _ = s.Get(context.Background(), "k", func(context.Context) (string, error) {
				close(entered)
				<-release

				return "stale", nil
			})
		}()

		<-entered

		go func() {
			defer wg.Done()

			s.Invalidate("k")
		}()

		close(release)
		wg.Wait()

		require.Zero(t, s.Len())
	}
}

func TestStoreCallerCancellationDoesNotAbortLoad(t *testing.T) {
	s := New[string]("test", 10, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	entered := make(chan struct{})
	proceed := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		_, err := s.Get(ctx, "k", func(loadCtx context.Context) (string, error) {
			close(entered)
			<-proceed

			return "v", loadCtx.Err()
		})
		errCh <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(proceed)
	require.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestNilStoreLoadsEveryTime(t *testing.T) {
	var (
		s     *Store[string]
		calls atomic.Int32
	)

	for range 2 {
		v, err := s.Get(context.Background(), "k", counting(&calls, "v"))
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}

	s.Invalidate("k")
	s.Purge()
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, s.Len())
}
