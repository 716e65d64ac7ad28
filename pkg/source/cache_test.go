package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "mid|2024-03-01|2024-03-01", cacheKey("mid", "2024-03-01", "2024-03-01", nil))
	assert.Equal(t,
		cacheKey("pn", "2024-03-01", "2024-03-01", []string{"B", "A"}),
		cacheKey("pn", "2024-03-01", "2024-03-01", []string{"A", "B"}),
	)
	assert.NotEqual(t,
		cacheKey("pn", "2024-03-01", "2024-03-01", []string{"A"}),
		cacheKey("pn", "2024-03-01", "2024-03-01", []string{"A", "B"}),
	)
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("HitWithinTTL", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		c := NewCache(time.Minute)
		c.now = func() time.Time { return now }

		var calls int
		fetch := func(context.Context) ([]int, error) {
			calls++
			return []int{calls}, nil
		}

		v, err := cached(ctx, c, "test", "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, v)

		now = now.Add(59 * time.Second)
		v, err = cached(ctx, c, "test", "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, v)
		assert.Equal(t, 1, calls)

		now = now.Add(time.Second)
		v, err = cached(ctx, c, "test", "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, v)
		assert.Equal(t, 2, calls)
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		c := NewCache(time.Minute)
		var calls int
		fetch := func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("boom")
			}
			return "ok", nil
		}
		_, err := cached(ctx, c, "test", "k", fetch)
		assert.Error(t, err)
		v, err := cached(ctx, c, "test", "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("ZeroTTLDisables", func(t *testing.T) {
		c := NewCache(0)
		var calls int
		fetch := func(context.Context) (int, error) {
			calls++
			return calls, nil
		}
		_, _ = cached(ctx, c, "test", "k", fetch)
		_, _ = cached(ctx, c, "test", "k", fetch)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("ConcurrentMissesShareFetch", func(t *testing.T) {
		c := NewCache(time.Minute)
		var calls int32
		release := make(chan struct{})
		fetch := func(context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := cached(ctx, c, "test", "shared", fetch)
				assert.NoError(t, err)
				results[i] = v
			}()
		}
		// let the goroutines pile up on the in-flight fetch
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		for _, v := range results {
			assert.Equal(t, 42, v)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		c := NewCache(time.Minute)
		c.now = func() time.Time { return now }
		c.set("a", 1)
		now = now.Add(30 * time.Second)
		c.set("b", 2)
		now = now.Add(45 * time.Second)
		assert.Equal(t, 1, c.Purge())
		assert.Equal(t, 1, c.Len())
	})

	t.Run("NilCache", func(t *testing.T) {
		v, err := cached(ctx, nil, "test", "k", func(context.Context) (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestUpstreamCachesFetches(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[{"dataProvider":"APXMIDP","settlementDate":"2024-03-01","settlementPeriod":1,"price":70,"volume":30}]`))
	}))
	defer ts.Close()

	u := NewUpstream(
		&Elexon{apiURL: ts.URL, client: ts.Client()},
		&Modo{apiURL: ts.URL, apiKey: "key", workers: 1, client: ts.Client()},
		NewCache(time.Minute),
	)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		out, err := u.MarketIndexPrices(ctx, "2024-03-01", "2024-03-01")
		require.NoError(t, err)
		require.Len(t, out, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// a different date is a different key
	_, err := u.MarketIndexPrices(ctx, "2024-03-02", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.NoError(t, u.Validate())
}
