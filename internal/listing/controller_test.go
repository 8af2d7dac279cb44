package listing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/shared"
)

type fetchCall struct {
	filters Filters
}

type recordingFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	pages   map[int]Page[string]
	err     error
	gate    chan struct{}
	started chan struct{}
}

func newRecordingFetcher() *recordingFetcher {
	return &recordingFetcher{pages: make(map[int]Page[string])}
}

func (f *recordingFetcher) fetch(ctx context.Context, filters Filters) (Page[string], error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{filters: filters})
	err := f.err
	page, ok := f.pages[filters.Int(KeyPage, 1)]
	gate := f.gate
	started := f.started
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return Page[string]{}, err
	}
	if !ok {
		return Page[string]{Pagination: shared.NewPagination(filters.Int(KeyPage, 1), filters.Int(KeySize, 10), 0)}, nil
	}
	return page, nil
}

func (f *recordingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *recordingFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newStringController(f *recordingFetcher) *Controller[string] {
	defaults := Filters{KeyPage: 1, KeySize: 10, "name": "", "status": "all"}
	return NewController(defaults, f.fetch)
}

func TestControllerInitDoesNotFetch(t *testing.T) {
	f := newRecordingFetcher()
	c := newStringController(f)

	query := url.Values{"page": {"2"}, "name": {"alpha"}}
	c.Init(query)

	assert.Equal(t, 0, f.callCount())
	assert.Equal(t, 2, c.Filters().Int(KeyPage, 0))
	assert.Equal(t, "alpha", c.Filters().String("name"))
}

func TestControllerRefreshFetchesCurrentFilters(t *testing.T) {
	f := newRecordingFetcher()
	f.pages[2] = Page[string]{
		Items:      []string{"x", "y"},
		Pagination: shared.NewPagination(2, 10, 21),
	}
	c := newStringController(f)
	c.Init(url.Values{"page": {"2"}})

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []string{"x", "y"}, c.Items())
	assert.Equal(t, 3, c.Pagination().Pages)
	assert.False(t, c.Loading())
	assert.Equal(t, 2, f.lastCall().filters.Int(KeyPage, 0))
}

func TestControllerSetFiltersSkipsFetchWhenUnchanged(t *testing.T) {
	f := newRecordingFetcher()
	c := newStringController(f)

	require.NoError(t, c.SetFilters(context.Background(), Filters{KeyPage: 1}))
	assert.Equal(t, 0, f.callCount())

	require.NoError(t, c.SetFilters(context.Background(), Filters{KeyPage: 2}))
	assert.Equal(t, 1, f.callCount())
}

func TestControllerSearchResetsPage(t *testing.T) {
	f := newRecordingFetcher()
	c := newStringController(f)
	c.Init(url.Values{"page": {"5"}})

	require.NoError(t, c.Search(context.Background(), Filters{"name": "alpha"}))

	last := f.lastCall()
	assert.Equal(t, 1, last.filters.Int(KeyPage, 0))
	assert.Equal(t, "alpha", last.filters.String("name"))
}

func TestControllerResetAlwaysFetches(t *testing.T) {
	f := newRecordingFetcher()
	c := newStringController(f)

	// State already equals the defaults, Reset still refetches.
	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, "all", f.lastCall().filters.String("status"))
}

func TestControllerErrorKeepsLastKnownPage(t *testing.T) {
	f := newRecordingFetcher()
	f.pages[1] = Page[string]{
		Items:      []string{"keep"},
		Pagination: shared.NewPagination(1, 10, 1),
	}
	c := newStringController(f)

	require.NoError(t, c.Refresh(context.Background()))
	require.Equal(t, []string{"keep"}, c.Items())

	f.mu.Lock()
	f.err = errors.New("backend down")
	f.mu.Unlock()

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"keep"}, c.Items())
	assert.Equal(t, 1, c.Pagination().Total)
	assert.False(t, c.Loading())
}

func TestControllerStaleFetchNeverWins(t *testing.T) {
	f := newRecordingFetcher()
	f.pages[1] = Page[string]{Items: []string{"old"}, Pagination: shared.NewPagination(1, 10, 1)}
	f.pages[2] = Page[string]{Items: []string{"new"}, Pagination: shared.NewPagination(2, 10, 11)}
	c := newStringController(f)

	// Hold the first fetch in flight while a second one is dispatched
	// and completes.
	gate := make(chan struct{})
	started := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.started = started
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	f.mu.Lock()
	f.gate = nil
	f.mu.Unlock()

	require.NoError(t, c.SetFilters(context.Background(), Filters{KeyPage: 2}))
	assert.Equal(t, []string{"new"}, c.Items())

	// Release the stale fetch; its result must be discarded.
	close(gate)
	<-done

	assert.Equal(t, []string{"new"}, c.Items())
	assert.Equal(t, 2, c.Pagination().Page)
}
