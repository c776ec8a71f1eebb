package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"dummyshop/storefront/internal/domain"
)

var (
	ErrNoMorePages     = errors.New("no more pages")
	ErrFetchInProgress = errors.New("page fetch already in progress")
	// ErrStaleResponse is returned when the filter changed while a page was
	// in flight, or before a load-more for the old filter started; the page
	// is dropped.
	ErrStaleResponse = errors.New("stale page response discarded")
)

type pageFetcher interface {
	FetchPage(ctx context.Context, f Filter, page int) (domain.ProductPage, error)
}

// Snapshot is a consistent view of a feed taken under one lock.
type Snapshot struct {
	Filter     Filter
	Generation uint64
	Pages      []domain.ProductPage
	HasMore    bool
}

// Products flattens every page in order.
func (s Snapshot) Products() []domain.ProductSummary {
	out := make([]domain.ProductSummary, 0, len(s.Pages)*PageSize)
	for _, p := range s.Pages {
		out = append(out, p.Products...)
	}
	return out
}

// Feed accumulates pages for one filter, forward-only. Changing the filter
// drops every page and bumps the generation; a fetch started under an older
// generation is discarded when it completes.
type Feed struct {
	src pageFetcher

	mu       sync.Mutex
	filter   Filter
	pages    []domain.ProductPage
	gen      uint64
	inFlight bool
	lastUsed time.Time
}

func NewFeed(src pageFetcher, f Filter) *Feed {
	return &Feed{src: src, filter: f.Normalize()}
}

// SetFilter switches the feed to f and reports whether that reset it.
func (fd *Feed) SetFilter(f Filter) bool {
	f = f.Normalize()

	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.setFilterLocked(f)
}

func (fd *Feed) setFilterLocked(f Filter) bool {
	if f == fd.filter {
		return false
	}
	fd.filter = f
	fd.pages = nil
	fd.gen++
	fd.inFlight = false
	return true
}

// Next fetches and appends the following page for whatever filter is current.
func (fd *Feed) Next(ctx context.Context) (domain.ProductPage, error) {
	p, _, err := fd.next(ctx, nil)
	return p, err
}

// NextFor loads the following page only if the feed is still on f, and
// returns the feed state as of the append. If another caller switched the
// filter first, it returns ErrStaleResponse without fetching.
func (fd *Feed) NextFor(ctx context.Context, f Filter) (Snapshot, error) {
	f = f.Normalize()
	_, snap, err := fd.next(ctx, &f)
	return snap, err
}

func (fd *Feed) next(ctx context.Context, want *Filter) (domain.ProductPage, Snapshot, error) {
	fd.mu.Lock()
	if want != nil && *want != fd.filter {
		fd.mu.Unlock()
		return domain.ProductPage{}, Snapshot{}, ErrStaleResponse
	}
	if fd.inFlight {
		fd.mu.Unlock()
		return domain.ProductPage{}, Snapshot{}, ErrFetchInProgress
	}
	page, ok := NextPage(fd.pages)
	if !ok {
		fd.mu.Unlock()
		return domain.ProductPage{}, Snapshot{}, ErrNoMorePages
	}
	gen, filter := fd.gen, fd.filter
	fd.inFlight = true
	fd.mu.Unlock()

	p, err := fd.src.FetchPage(ctx, filter, page)

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if gen != fd.gen {
		return domain.ProductPage{}, Snapshot{}, ErrStaleResponse
	}
	fd.inFlight = false
	if err != nil {
		return domain.ProductPage{}, Snapshot{}, err
	}
	fd.pages = append(fd.pages, p)
	return p, fd.snapshotLocked(), nil
}

func (fd *Feed) Snapshot() Snapshot {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.snapshotLocked()
}

func (fd *Feed) snapshotLocked() Snapshot {
	pages := make([]domain.ProductPage, len(fd.pages))
	copy(pages, fd.pages)
	return Snapshot{
		Filter:     fd.filter,
		Generation: fd.gen,
		Pages:      pages,
		HasMore:    HasMore(fd.pages),
	}
}

func (fd *Feed) Filter() Filter {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.filter
}

func (fd *Feed) Pages() []domain.ProductPage {
	return fd.Snapshot().Pages
}

// Products flattens every loaded page in order.
func (fd *Feed) Products() []domain.ProductSummary {
	return fd.Snapshot().Products()
}

func (fd *Feed) HasMore() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return HasMore(fd.pages)
}

func (fd *Feed) Generation() uint64 {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.gen
}

// Feeds hands out one Feed per client id. Feeds not touched for the idle
// timeout are evicted on the next lookup; a zero timeout keeps them forever.
type Feeds struct {
	src     pageFetcher
	idle    time.Duration
	nowFunc func() time.Time

	mu    sync.Mutex
	feeds map[string]*Feed
}

func NewFeeds(src pageFetcher, idle time.Duration) *Feeds {
	return &Feeds{src: src, idle: idle, nowFunc: time.Now, feeds: make(map[string]*Feed)}
}

// For returns the client's feed switched to f, creating it on first use,
// together with its state right after the switch.
func (fs *Feeds) For(clientID string, f Filter) (*Feed, Snapshot) {
	f = f.Normalize()
	now := fs.nowFunc()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.evictLocked(now)
	fd, ok := fs.feeds[clientID]
	if !ok {
		fd = NewFeed(fs.src, f)
		fs.feeds[clientID] = fd
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.lastUsed = now
	fd.setFilterLocked(f)
	return fd, fd.snapshotLocked()
}

// Forget drops the client's feed.
func (fs *Feeds) Forget(clientID string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.feeds, clientID)
}

// Len reports how many client feeds are held.
func (fs *Feeds) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.feeds)
}

func (fs *Feeds) evictLocked(now time.Time) {
	if fs.idle <= 0 {
		return
	}
	for id, fd := range fs.feeds {
		fd.mu.Lock()
		idle := now.Sub(fd.lastUsed) > fs.idle && !fd.inFlight
		fd.mu.Unlock()
		if idle {
			delete(fs.feeds, id)
		}
	}
}
