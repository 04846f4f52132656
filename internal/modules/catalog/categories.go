package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CategoryProvider loads storefront categories once and serves them from memory.
//
// The first load tries the visible tier (active and not hidden). If that query
// fails, for example because the hidden flag column does not exist, it retries
// with the active tier; only a failure of the fallback reaches the caller.
// Concurrent cold loads share one fetch.
type CategoryProvider struct {
	source CategorySource
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	cached   []Category
	loaded   bool
	loadedAt time.Time
	// gen is bumped by Invalidate; a fetch stores its result only if gen
	// has not moved since it started.
	gen uint64

	flight singleflight.Group
}

const categoriesFlightKey = "categories"

// CategoryOption configures a CategoryProvider.
type CategoryOption func(*CategoryProvider)

// WithCategoryTTL expires the cached list after d. Zero keeps it for the process lifetime.
func WithCategoryTTL(d time.Duration) CategoryOption {
	return func(p *CategoryProvider) {
		if d > 0 {
			p.ttl = d
		}
	}
}

// WithClock overrides the time source; used by tests.
func WithClock(now func() time.Time) CategoryOption {
	return func(p *CategoryProvider) { p.now = now }
}

func NewCategoryProvider(source CategorySource, logger *slog.Logger, opts ...CategoryOption) *CategoryProvider {
	p := &CategoryProvider{source: source, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the visible categories ordered by name.
func (p *CategoryProvider) Load(ctx context.Context) ([]Category, error) {
	if cats, ok := p.cachedCategories(); ok {
		cacheLookups.WithLabelValues("categories", "hit").Inc()
		return cats, nil
	}
	cacheLookups.WithLabelValues("categories", "miss").Inc()

	// Waiters share the fetch, so it ignores the first caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := p.flight.Do(categoriesFlightKey, func() (any, error) {
		return p.fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Category)), nil
}

// Invalidate drops the cached list; the next Load goes to the source.
// A fetch already in flight still answers its callers but is not cached.
func (p *CategoryProvider) Invalidate() {
	p.mu.Lock()
	p.cached, p.loaded = nil, false
	p.gen++
	p.mu.Unlock()
	p.flight.Forget(categoriesFlightKey)
}

func (p *CategoryProvider) cachedCategories() ([]Category, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return nil, false
	}
	if p.ttl > 0 && p.now().Sub(p.loadedAt) >= p.ttl {
		return nil, false
	}
	return slices.Clone(p.cached), true
}

func (p *CategoryProvider) fetch(ctx context.Context) ([]Category, error) {
	p.mu.RLock()
	gen := p.gen
	p.mu.RUnlock()

	tier := TierVisible
	cats, err := p.source.ListCategories(ctx, tier)
	if err != nil {
		p.logger.WarnContext(ctx, "visible category query failed, falling back to active categories", "error", err)
		tier = TierActive
		cats, err = p.source.ListCategories(ctx, tier)
		if err != nil {
			categoryLoads.WithLabelValues(tier.String(), "error").Inc()
			return nil, fmt.Errorf("load categories: %w", err)
		}
	}
	categoryLoads.WithLabelValues(tier.String(), "ok").Inc()
	p.logger.InfoContext(ctx, "categories loaded", "tier", tier.String(), "count", len(cats))

	p.mu.Lock()
	if p.gen == gen {
		p.cached, p.loaded, p.loadedAt = cats, true, p.now()
	}
	p.mu.Unlock()
	return cats, nil
}
