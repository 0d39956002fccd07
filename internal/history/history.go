// Package history pages through past purchases. Pages are cached briefly
// so flipping back and forth does not refetch, and the status filter is
// always applied locally because the backend's filter support is not
// guaranteed. When the backend is unreachable the viewer falls back to the
// durable local purchase log.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/cache"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
)

var (
	ErrInvalidFilter = errors.New("invalid status filter")
	ErrNoSuchPage    = errors.New("no such page")
)

const offlinePageSize = 50

// Source is the backend query for one page of history.
type Source interface {
	History(ctx context.Context, page int, status string) (*domain.HistoryPage, error)
}

type Viewer struct {
	api   Source
	cache cache.PageCache
	store storage.LocalStore
	log   *zap.Logger

	mu     sync.Mutex
	page   int
	filter string
	last   *domain.HistoryPage // last page as fetched, pre-filter
}

func NewViewer(api Source, pageCache cache.PageCache, store storage.LocalStore, log *zap.Logger) *Viewer {
	return &Viewer{
		api:    api,
		cache:  pageCache,
		store:  store,
		log:    log,
		page:   1,
		filter: domain.StatusFilterAll,
	}
}

func (v *Viewer) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *Viewer) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetFilter changes the status filter and resets to the first page.
func (v *Viewer) SetFilter(filter string) error {
	if filter != domain.StatusFilterAll && !domain.TransactionStatus(filter).IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if filter != v.filter {
		v.filter = filter
		v.page = 1
		v.last = nil
	}
	return nil
}

// Load fetches the current page, trying the cache first. The returned page
// holds only transactions matching the active filter; pagination metadata
// reflects the unfiltered backend page.
func (v *Viewer) Load(ctx context.Context) (*domain.HistoryPage, error) {
	v.mu.Lock()
	page, filter := v.page, v.filter
	v.mu.Unlock()

	key := fmt.Sprintf("page_%d_%s", page, filter)

	cached, err := v.cache.GetHistoryPage(ctx, key)
	if err == nil {
		return v.present(page, cached), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		v.log.Warn("history cache read failed", zap.Error(err))
	}

	fetched, err := v.api.History(ctx, page, filter)
	if err != nil {
		v.log.Warn("history fetch failed, falling back to local purchases",
			zap.Error(err))
		return v.loadOffline(ctx, filter)
	}

	if err := v.cache.SetHistoryPage(ctx, key, fetched); err != nil {
		v.log.Warn("history cache write failed", zap.Error(err))
	}
	return v.present(page, fetched), nil
}

// NextPage advances when the last loaded page says more exist.
func (v *Viewer) NextPage() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil || !v.last.HasNext {
		return ErrNoSuchPage
	}
	v.page++
	return nil
}

func (v *Viewer) PrevPage() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil || !v.last.HasPrev || v.page <= 1 {
		return ErrNoSuchPage
	}
	v.page--
	return nil
}

// present records the raw page for pagination decisions and returns a copy
// filtered down to the active status.
func (v *Viewer) present(page int, raw *domain.HistoryPage) *domain.HistoryPage {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.page != page {
		// The viewer moved on while this load was in flight.
		return filterPage(raw, v.filter)
	}
	v.last = raw
	return filterPage(raw, v.filter)
}

func (v *Viewer) loadOffline(ctx context.Context, filter string) (*domain.HistoryPage, error) {
	purchases, err := v.store.Purchases(ctx, offlinePageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("local purchase log unavailable: %w", err)
	}

	// The local log is one flat page.
	v.mu.Lock()
	v.page = 1
	v.mu.Unlock()

	raw := &domain.HistoryPage{
		Transactions: purchases,
		Total:        len(purchases),
		Page:         1,
		Limit:        offlinePageSize,
		TotalPages:   1,
	}
	return v.present(1, raw), nil
}

// filterPage keeps only transactions matching the filter. ALL keeps
// everything. Filtering always happens here regardless of what the backend
// was asked for.
func filterPage(raw *domain.HistoryPage, filter string) *domain.HistoryPage {
	out := *raw
	out.Transactions = make([]domain.Transaction, 0, len(raw.Transactions))
	for _, txn := range raw.Transactions {
		if filter == domain.StatusFilterAll || string(txn.Status) == filter {
			out.Transactions = append(out.Transactions, txn)
		}
	}
	return &out
}
