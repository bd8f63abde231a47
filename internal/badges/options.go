package badges

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl      time.Duration
	now      func() time.Time
	observer Observer
	store    SnapshotStore
	logger   zerolog.Logger
	base     context.Context
}

func defaultOptions() options {
	return options{
		ttl:      DefaultTTL,
		now:      time.Now,
		observer: nopObserver{},
		logger:   defaultLogger(),
		base:     context.Background(),
	}
}

// WithTTL sets the freshness window. Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithObserver installs an instrumentation sink.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithStore enables write-through persistence and Warm.
func WithStore(s SnapshotStore) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the logger used for fetch failures and store errors.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBaseContext sets the context background refreshes run under.
// Cancelling it aborts in-flight background fetches.
func WithBaseContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.base = ctx
		}
	}
}
