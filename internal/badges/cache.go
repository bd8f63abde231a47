// Package badges holds the badge core: a per-user TTL cache of eligibility
// records fetched from the badge API, and Compose, which turns a record into
// the ordered list of badges to render.
//
// Cache semantics:
//   - An entry is fresh while now - fetchedAt <= TTL. Stale or absent entries
//     are refetched; at most one fetch per user id is in flight.
//   - A successful fetch (including the API's 404, which the Fetcher reports
//     as an empty record) replaces the entry and stamps fetchedAt.
//   - A failed fetch evicts the entry. Callers only ever observe absence;
//     fetch errors are logged, never returned.
//   - Subscribers are told when a refresh for their user lands.
package badges

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-profile-badges/internal/domain"
)

// DefaultTTL is how long a fetched record stays fresh.
const DefaultTTL = 30 * time.Minute

// Fetcher loads one user's eligibility from the badge API. A user unknown
// to the API must be reported as an empty record, not an error.
type Fetcher interface {
	FetchEligibility(ctx context.Context, userID string) (*domain.BadgeEligibility, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, userID string) (*domain.BadgeEligibility, error)

// FetchEligibility calls f.
func (f FetcherFunc) FetchEligibility(ctx context.Context, userID string) (*domain.BadgeEligibility, error) {
	return f(ctx, userID)
}

// Entry is one cached record.
type Entry struct {
	UserID      string
	Eligibility *domain.BadgeEligibility
	FetchedAt   time.Time
}

// SnapshotStore persists entries across restarts. Implementations must be
// safe for concurrent use.
type SnapshotStore interface {
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context, userID string) error
	// LoadSince returns entries fetched at or after since.
	LoadSince(ctx context.Context, since time.Time) ([]Entry, error)
}

// Observer receives cache events for instrumentation.
type Observer interface {
	Lookup(hit bool)
	Fetched(err error, d time.Duration)
	Evicted()
}

type nopObserver struct{}

func (nopObserver) Lookup(bool)                  {}
func (nopObserver) Fetched(error, time.Duration) {}
func (nopObserver) Evicted()                     {}

// Listener is called with the refreshed record, or nil after a failed
// refresh. It runs after the fetch has left flight, so it may call back into
// the cache, including GetOrRefresh for the same user.
type Listener func(*domain.BadgeEligibility)

// outcome is what one flight hands to every caller that joined it. Only a
// real fetch notifies subscribers, and only once per flight.
type outcome struct {
	elig    *domain.BadgeEligibility
	fetched bool
	once    *sync.Once
}

// Cache is a process-wide, per-user TTL cache. It is safe for concurrent use.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	obs     Observer
	store   SnapshotStore
	log     zerolog.Logger
	base    context.Context

	mu      sync.RWMutex
	entries map[string]Entry
	pending map[string]struct{}
	subs    map[string]map[uint64]Listener
	nextSub uint64

	flight singleflight.Group
	wg     sync.WaitGroup
}

// NewCache returns a Cache backed by fetcher. It panics if fetcher is nil.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	if fetcher == nil {
		panic("badges: nil Fetcher")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     o.ttl,
		now:     o.now,
		obs:     o.observer,
		store:   o.store,
		log:     o.logger,
		base:    o.base,
		entries: make(map[string]Entry),
		pending: make(map[string]struct{}),
		subs:    make(map[string]map[uint64]Listener),
	}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the best-known record for userID without blocking. When the
// entry is absent or stale a background refresh is started; subscribers are
// notified once it lands. The bool is false when nothing is cached yet.
func (c *Cache) Get(userID string) (*domain.BadgeEligibility, bool) {
	e, ok := c.Peek(userID)
	fresh := ok && !c.stale(e)
	c.obs.Lookup(fresh)
	if !fresh {
		c.refreshAsync(userID)
	}
	if !ok {
		return nil, false
	}
	return e.Eligibility, true
}

// GetOrRefresh returns the fresh record for userID, fetching it first when
// the entry is absent or stale. It returns nil when the fetch fails or ctx
// ends first; an abandoned fetch still completes and lands in the cache.
func (c *Cache) GetOrRefresh(ctx context.Context, userID string) *domain.BadgeEligibility {
	if e, ok := c.Peek(userID); ok && !c.stale(e) {
		c.obs.Lookup(true)
		return e.Eligibility
	}
	c.obs.Lookup(false)

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(userID, func() (any, error) {
		return c.fetchIfStale(fetchCtx, userID), nil
	})
	select {
	case res := <-ch:
		return c.land(userID, res.Val)
	case <-ctx.Done():
		// The abandoned flight still owes its subscribers a notification.
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.land(userID, (<-ch).Val)
		}()
		return nil
	}
}

// Peek returns the cached entry for userID, fresh or not, without fetching.
func (c *Cache) Peek(userID string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	return e, ok
}

// Stale reports whether e is older than the TTL.
func (c *Cache) Stale(e Entry) bool { return c.stale(e) }

func (c *Cache) stale(e Entry) bool {
	return c.now().Sub(e.FetchedAt) > c.ttl
}

// Invalidate drops the entry for userID so the next lookup refetches.
func (c *Cache) Invalidate(userID string) {
	c.evict(userID)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Wait blocks until background refreshes started by Get have finished.
func (c *Cache) Wait() { c.wg.Wait() }

// Subscribe registers fn for refreshes of userID. The returned cancel func
// is idempotent. A notification already being delivered when cancel runs
// may still reach fn.
func (c *Cache) Subscribe(userID string, fn Listener) (cancel func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	set, ok := c.subs[userID]
	if !ok {
		set = make(map[uint64]Listener)
		c.subs[userID] = set
	}
	set[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if set, ok := c.subs[userID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(c.subs, userID)
				}
			}
			c.mu.Unlock()
		})
	}
}

// Warm loads still-fresh entries from the snapshot store. Entries already
// in memory win. It returns the number of entries loaded.
func (c *Cache) Warm(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	rows, err := c.store.LoadSince(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return 0, err
	}
	n := 0
	c.mu.Lock()
	for _, e := range rows {
		if _, exists := c.entries[e.UserID]; exists || c.stale(e) {
			continue
		}
		if e.Eligibility == nil {
			e.Eligibility = &domain.BadgeEligibility{}
		}
		c.entries[e.UserID] = e
		n++
	}
	c.mu.Unlock()
	return n, nil
}

func (c *Cache) refreshAsync(userID string) {
	c.mu.Lock()
	if _, busy := c.pending[userID]; busy {
		c.mu.Unlock()
		return
	}
	c.pending[userID] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.pending, userID)
			c.mu.Unlock()
		}()
		v, _, _ := c.flight.Do(userID, func() (any, error) {
			return c.fetchIfStale(c.base, userID), nil
		})
		c.land(userID, v)
	}()
}

// fetchIfStale re-checks the entry inside the flight: a caller that peeked
// before the previous flight finished must not fetch a second time.
func (c *Cache) fetchIfStale(ctx context.Context, userID string) outcome {
	if e, ok := c.Peek(userID); ok && !c.stale(e) {
		return outcome{elig: e.Eligibility}
	}
	return outcome{elig: c.fetch(ctx, userID), fetched: true, once: new(sync.Once)}
}

// land runs outside the flight. The first caller to see a fetched outcome
// notifies subscribers; joined callers skip it.
func (c *Cache) land(userID string, v any) *domain.BadgeEligibility {
	o, _ := v.(outcome)
	if o.fetched {
		o.once.Do(func() { c.notify(userID, o.elig) })
	}
	return o.elig
}

// fetch performs one API call and applies the outcome to the cache. It must
// only run inside c.flight so a user id never has two fetches in flight.
// Subscribers are notified later, by land.
func (c *Cache) fetch(ctx context.Context, userID string) *domain.BadgeEligibility {
	start := time.Now()
	elig, err := c.fetcher.FetchEligibility(ctx, userID)
	c.obs.Fetched(err, time.Since(start))

	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("badge fetch failed; entry evicted")
		c.evict(userID)
		return nil
	}
	if elig == nil {
		elig = &domain.BadgeEligibility{}
	}

	entry := Entry{UserID: userID, Eligibility: elig, FetchedAt: c.now()}
	c.mu.Lock()
	c.entries[userID] = entry
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, entry); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("snapshot save failed")
		}
	}
	c.log.Debug().Str("user_id", userID).Bool("empty", elig.IsEmpty()).Msg("badges refreshed")
	return elig
}

func (c *Cache) evict(userID string) {
	c.mu.Lock()
	_, existed := c.entries[userID]
	delete(c.entries, userID)
	c.mu.Unlock()

	if existed {
		c.obs.Evicted()
	}
	if c.store != nil {
		if err := c.store.Delete(c.base, userID); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("snapshot delete failed")
		}
	}
}

func (c *Cache) notify(userID string, elig *domain.BadgeEligibility) {
	c.mu.RLock()
	fns := make([]Listener, 0, len(c.subs[userID]))
	for _, fn := range c.subs[userID] {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(elig)
	}
}

// defaultLogger is the component logger used when none is supplied.
func defaultLogger() zerolog.Logger {
	return log.With().Str("component", "badge_cache").Logger()
}
