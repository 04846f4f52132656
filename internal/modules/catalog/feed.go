package catalog

import (
	"context"
	"slices"
	"sync"
)

// Fetcher loads one catalog page. Service satisfies it.
type Fetcher interface {
	ListProducts(ctx context.Context, state QueryState) (*Page, error)
}

// FeedState is what a catalog view renders.
type FeedState struct {
	// Query is the query the buffer currently reflects.
	Query      QueryState
	Products   []*Product
	TotalCount int
	TotalPages int
	HasMore    bool
	Loading    bool
	// Loaded is set once a fetch for the current query has succeeded.
	Loaded bool
	Err    error
}

// Empty reports a successful load that returned no products.
func (s FeedState) Empty() bool {
	return s.Loaded && !s.Loading && s.Err == nil && len(s.Products) == 0
}

// Feed is the result buffer behind a catalog view. Replace swaps the buffer
// for a new page (page-numbered views); LoadMore appends the next page
// (infinite scroll). Fetch errors are recorded in the state and leave the
// buffer unchanged. Every fetch takes a sequence number and a response is
// dropped if a newer fetch started after it, so the last request wins.
type Feed struct {
	fetcher Fetcher

	mu    sync.Mutex
	state FeedState
	seq   uint64
}

func NewFeed(fetcher Fetcher, initial QueryState) *Feed {
	return &Feed{fetcher: fetcher, state: FeedState{Query: initial, HasMore: true}}
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) snapshotLocked() FeedState {
	s := f.state
	s.Products = slices.Clone(f.state.Products)
	return s
}

// Replace fetches q and, on success, replaces the buffer with its rows.
func (f *Feed) Replace(ctx context.Context, q QueryState) FeedState {
	f.mu.Lock()
	seq := f.begin()
	f.mu.Unlock()
	return f.run(ctx, seq, q, false)
}

// SetCategory restarts the feed on a new category: the buffer is emptied and
// page 0 of the new filter is loaded, so rows of two filters never mix.
func (f *Feed) SetCategory(ctx context.Context, categoryID string) FeedState {
	f.mu.Lock()
	q := f.state.Query
	q.CategoryID = categoryID
	q.Page = 0
	f.state = FeedState{Query: q, HasMore: true}
	seq := f.begin()
	f.mu.Unlock()
	return f.run(ctx, seq, q, false)
}

// LoadMore appends the next page. It does nothing while a fetch is in flight
// or when the last page has been reached.
func (f *Feed) LoadMore(ctx context.Context) FeedState {
	f.mu.Lock()
	if f.state.Loading || !f.state.HasMore {
		s := f.snapshotLocked()
		f.mu.Unlock()
		return s
	}
	q := f.state.Query
	if f.state.Loaded {
		q.Page++
	}
	seq := f.begin()
	f.mu.Unlock()
	return f.run(ctx, seq, q, true)
}

// begin marks a fetch as started. Caller holds f.mu.
func (f *Feed) begin() uint64 {
	f.seq++
	f.state.Loading = true
	f.state.Err = nil
	return f.seq
}

func (f *Feed) run(ctx context.Context, seq uint64, q QueryState, appendRows bool) FeedState {
	page, err := f.fetcher.ListProducts(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq {
		return f.snapshotLocked()
	}
	if err != nil {
		f.state.Err = err
		f.state.Loading = false
		return f.snapshotLocked()
	}

	if appendRows {
		f.state.Products = append(f.state.Products, page.Products...)
	} else {
		f.state.Products = slices.Clone(page.Products)
	}
	f.state.Query = q
	f.state.TotalCount = page.TotalCount
	f.state.TotalPages = page.TotalPages
	f.state.HasMore = page.HasMore
	f.state.Loaded = true
	f.state.Err = nil
	f.state.Loading = false
	return f.snapshotLocked()
}
