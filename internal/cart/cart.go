// Package cart holds the shared cart state. Every mutation fully recomputes
// the derived totals before the snapshot is persisted, so a torn snapshot
// can never reach durable storage. Persistence is best-effort: a storage
// failure is logged and the in-memory mutation stands.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
)

type Service struct {
	mu    sync.Mutex
	store storage.LocalStore
	log   *zap.Logger
	state domain.CartState
}

func NewService(store storage.LocalStore, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
	}
}

// AddProduct inserts a new line with the given quantity, or raises an
// existing line's quantity. Quantity is silently clamped to the stock
// ceiling, matching the storefront's add-to-cart behaviour.
func (s *Service) AddProduct(ctx context.Context, p domain.Product, qty int) {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(p.ID); item != nil {
		item.Quantity = clamp(item.Quantity+qty, 1, item.Stock)
	} else if p.Stock < 1 {
		return
	} else {
		s.state.Items = append(s.state.Items, domain.CartItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Slug:     p.Slug,
			Stock:    p.Stock,
			Quantity: clamp(qty, 1, p.Stock),
		})
	}

	s.recomputeAndPersist(ctx)
}

// RemoveProduct deletes the line unconditionally.
func (s *Service) RemoveProduct(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	s.recomputeAndPersist(ctx)
}

func (s *Service) IncrementItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil || item.Quantity >= item.Stock {
		return
	}
	item.Quantity++

	s.recomputeAndPersist(ctx)
}

// DecrementItem lowers the quantity by one; at quantity 1 the line is
// removed instead of dropping to 0.
func (s *Service) DecrementItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil {
		return
	}
	if item.Quantity == 1 {
		s.removeLocked(productID)
	} else {
		item.Quantity--
	}

	s.recomputeAndPersist(ctx)
}

// UpdateQuantity sets an absolute quantity. Out-of-range requests are a
// no-op rather than an error.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil || qty <= 0 || qty > item.Stock {
		return
	}
	item.Quantity = qty

	s.recomputeAndPersist(ctx)
}

func (s *Service) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.CartState{Items: []domain.CartItem{}}
	s.persist(ctx)
}

// Restore loads the persisted snapshot into an empty cart. A non-empty
// in-memory cart wins over storage so live edits are never clobbered.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsEmpty() {
		return nil
	}

	data, err := s.store.Get(ctx, storage.KeyCartSnapshot)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	var snapshot domain.CartState
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	if snapshot.IsEmpty() {
		return nil
	}

	s.state = snapshot
	s.log.Info("cart restored from storage",
		zap.Int("total_quantity", snapshot.TotalQuantity),
		zap.Int64("total_amount", snapshot.TotalAmount))
	return nil
}

// State returns a copy of the current cart state.
func (s *Service) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	state.Items = append([]domain.CartItem(nil), s.state.Items...)
	return state
}

func (s *Service) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(productID); item != nil {
		return item.Quantity
	}
	return 0
}

func (s *Service) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsEmpty()
}

func (s *Service) find(productID string) *domain.CartItem {
	for i := range s.state.Items {
		if s.state.Items[i].ID == productID {
			return &s.state.Items[i]
		}
	}
	return nil
}

func (s *Service) removeLocked(productID string) {
	for i, item := range s.state.Items {
		if item.ID == productID {
			s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
			return
		}
	}
}

func (s *Service) recomputeAndPersist(ctx context.Context) {
	totalQuantity := 0
	var totalAmount int64
	for _, item := range s.state.Items {
		totalQuantity += item.Quantity
		totalAmount += item.Price * int64(item.Quantity)
	}
	s.state.TotalQuantity = totalQuantity
	s.state.TotalAmount = totalAmount

	s.persist(ctx)
}

func (s *Service) persist(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error("failed to encode cart snapshot", zap.Error(err))
		return
	}
	if err := s.store.Put(ctx, storage.KeyCartSnapshot, data); err != nil {
		s.log.Error("failed to persist cart snapshot", zap.Error(err))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
