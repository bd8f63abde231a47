package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/domain"
)

func TestCacheObserver_Counters(t *testing.T) {
	baseHit := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	baseMiss := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	baseOK := testutil.ToFloat64(cacheFetches.WithLabelValues("ok"))
	baseErr := testutil.ToFloat64(cacheFetches.WithLabelValues("error"))
	baseEvict := testutil.ToFloat64(cacheEvictions)

	obs := CacheObserver{}
	obs.Lookup(true)
	obs.Lookup(false)
	obs.Lookup(false)
	obs.Fetched(nil, 20*time.Millisecond)
	obs.Fetched(errors.New("boom"), time.Second)
	obs.Evicted()

	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("hit")); got != baseHit+1 {
		t.Fatalf("hits = %v; want %v", got, baseHit+1)
	}
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("miss")); got != baseMiss+2 {
		t.Fatalf("misses = %v; want %v", got, baseMiss+2)
	}
	if got := testutil.ToFloat64(cacheFetches.WithLabelValues("ok")); got != baseOK+1 {
		t.Fatalf("ok fetches = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(cacheFetches.WithLabelValues("error")); got != baseErr+1 {
		t.Fatalf("error fetches = %v; want %v", got, baseErr+1)
	}
	if got := testutil.ToFloat64(cacheEvictions); got != baseEvict+1 {
		t.Fatalf("evictions = %v; want %v", got, baseEvict+1)
	}
}

func TestCacheObserver_WiredIntoCache(t *testing.T) {
	fail := false
	fetch := badges.FetcherFunc(func(context.Context, string) (*domain.BadgeEligibility, error) {
		if fail {
			return nil, errors.New("upstream 500")
		}
		return &domain.BadgeEligibility{}, nil
	})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := badges.NewCache(fetch,
		badges.WithObserver(CacheObserver{}),
		badges.WithClock(func() time.Time { return now }),
	)

	baseErr := testutil.ToFloat64(cacheFetches.WithLabelValues("error"))
	baseEvict := testutil.ToFloat64(cacheEvictions)

	ctx := context.Background()
	_ = c.GetOrRefresh(ctx, "u1")
	now = now.Add(time.Hour)
	fail = true
	if got := c.GetOrRefresh(ctx, "u1"); got != nil {
		t.Fatalf("failed refresh should return nil")
	}

	if got := testutil.ToFloat64(cacheFetches.WithLabelValues("error")); got != baseErr+1 {
		t.Fatalf("error fetches = %v; want %v", got, baseErr+1)
	}
	if got := testutil.ToFloat64(cacheEvictions); got != baseEvict+1 {
		t.Fatalf("evictions = %v; want %v", got, baseEvict+1)
	}
}
