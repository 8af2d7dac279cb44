package listing

import (
	"context"
	"net/url"
	"reflect"
	"sync"

	"github.com/pulseboard/pulseboard/internal/shared"
)

// Page is one page of results plus the backend's pagination metadata.
type Page[T any] struct {
	Items      []T
	Pagination shared.Pagination
}

// FetchFunc loads one page of results for the given filter set.
type FetchFunc[T any] func(ctx context.Context, filters Filters) (Page[T], error)

// Controller drives a paginated, filterable list. It owns the current
// filter set (always defaults overlaid with URL-derived values), the last
// successfully fetched items and pagination, and a loading flag. Every
// change to the effective filter set issues exactly one fetch; overlapping
// fetches are resolved by generation token so a stale response never
// replaces a newer one.
type Controller[T any] struct {
	mu         sync.Mutex
	defaults   Filters
	filters    Filters
	fetch      FetchFunc[T]
	items      []T
	pagination shared.Pagination
	loading    bool
	generation uint64
}

// NewController builds a Controller around a fetch function. The default
// filter set fixes the type of every filter key.
func NewController[T any](defaults Filters, fetch FetchFunc[T]) *Controller[T] {
	size := defaults.Int(KeySize, 10)
	return &Controller[T]{
		defaults:   defaults,
		filters:    Merge(defaults, nil),
		fetch:      fetch,
		pagination: shared.Pagination{Size: size},
	}
}

// Init derives the filter state from a request query string, replacing any
// previous state. It does not fetch; call Refresh afterwards.
func (c *Controller[T]) Init(query url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = Decode(c.defaults, query)
}

// Filters returns a copy of the current filter set.
func (c *Controller[T]) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Merge(c.filters, nil)
}

// Query serialises the current filters for links and redirects.
func (c *Controller[T]) Query() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Encode(c.filters)
}

// Items returns the last successfully fetched page.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Loading reports whether the most recently dispatched fetch is still in
// flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Pagination returns the metadata from the last successful fetch.
func (c *Controller[T]) Pagination() shared.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

// SetFilters merges the partial set into the current filters without
// touching the page number, then fetches if the effective set changed.
// Used for page and size changes.
func (c *Controller[T]) SetFilters(ctx context.Context, partial Filters) error {
	return c.apply(ctx, partial, false)
}

// Search merges the partial set and forces the page back to one, so a
// narrowed result set never leaves the user stranded on an empty page.
func (c *Controller[T]) Search(ctx context.Context, partial Filters) error {
	merged := Merge(partial, Filters{KeyPage: 1})
	return c.apply(ctx, merged, false)
}

// Reset restores the defaults and fetches immediately with them, even when
// the current state already equals the defaults.
func (c *Controller[T]) Reset(ctx context.Context) error {
	return c.apply(ctx, nil, true)
}

// Refresh re-runs the fetch with the current filters unchanged.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	filters := Merge(c.filters, nil)
	gen := c.beginFetch()
	c.mu.Unlock()
	return c.runFetch(ctx, gen, filters)
}

func (c *Controller[T]) apply(ctx context.Context, partial Filters, reset bool) error {
	c.mu.Lock()
	var next Filters
	if reset {
		next = Merge(c.defaults, nil)
	} else {
		next = Merge(c.filters, partial)
	}
	if !reset && reflect.DeepEqual(next, c.filters) {
		c.mu.Unlock()
		return nil
	}
	c.filters = next
	filters := Merge(next, nil)
	gen := c.beginFetch()
	c.mu.Unlock()
	return c.runFetch(ctx, gen, filters)
}

// beginFetch must be called with the lock held.
func (c *Controller[T]) beginFetch() uint64 {
	c.generation++
	c.loading = true
	return c.generation
}

func (c *Controller[T]) runFetch(ctx context.Context, gen uint64, filters Filters) error {
	page, err := c.fetch(ctx, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer fetch was dispatched while this one was in flight;
		// its result decides the final state, not ours.
		return err
	}
	c.loading = false
	if err != nil {
		// Keep the last known page; the client layer has already
		// reported the failure.
		return err
	}
	c.items = page.Items
	c.pagination = page.Pagination
	return nil
}
