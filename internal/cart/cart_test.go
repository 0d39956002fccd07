package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
)

type mockStore struct {
	m         sync.RWMutex
	snapshots map[string][]byte
	putErr    error
	puts      int
}

func newMockStore() *mockStore {
	return &mockStore{snapshots: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	value, ok := m.snapshots[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return value, nil
}

func (m *mockStore) Put(_ context.Context, key string, value []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.snapshots[key] = value
	return nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.snapshots, key)
	return nil
}

func (m *mockStore) AppendPurchase(context.Context, domain.Transaction) error {
	return nil
}

func (m *mockStore) Purchases(context.Context, int, int) ([]domain.Transaction, error) {
	return nil, nil
}

func (m *mockStore) Close() error { return nil }

func product(id string, price int64, stock int) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, Stock: stock}
}

func assertTotalsConsistent(t *testing.T, state domain.CartState) {
	t.Helper()
	quantity := 0
	var amount int64
	for _, item := range state.Items {
		quantity += item.Quantity
		amount += item.Price * int64(item.Quantity)
	}
	assert.Equal(t, quantity, state.TotalQuantity)
	assert.Equal(t, amount, state.TotalAmount)
}

func TestAddProduct_NewLine(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 5), 1)

	state := s.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.Items[0].Quantity)
	assert.Equal(t, 1, state.TotalQuantity)
	assert.Equal(t, int64(1000), state.TotalAmount)
}

func TestAddProduct_ExistingLineClampsAtStock(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 3), 2)
	s.AddProduct(ctx, product("p1", 1000, 3), 5)

	state := s.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 3, state.Items[0].Quantity)
	assertTotalsConsistent(t, state)
}

func TestAddProduct_OutOfStockIgnored(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())

	s.AddProduct(context.Background(), product("p1", 1000, 0), 1)

	assert.True(t, s.IsEmpty())
}

func TestIncrementItem_NeverExceedsStock(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 2), 1)
	s.IncrementItem(ctx, "p1")
	s.IncrementItem(ctx, "p1")
	s.IncrementItem(ctx, "p1")

	assert.Equal(t, 2, s.ItemQuantity("p1"))
	assertTotalsConsistent(t, s.State())
}

func TestDecrementItem_AtOneRemovesLine(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 5), 1)
	s.DecrementItem(ctx, "p1")

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.State().TotalQuantity)
}

func TestUpdateQuantity_RejectsOutOfRange(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 5), 2)

	s.UpdateQuantity(ctx, "p1", 0)
	assert.Equal(t, 2, s.ItemQuantity("p1"))

	s.UpdateQuantity(ctx, "p1", 6)
	assert.Equal(t, 2, s.ItemQuantity("p1"))

	s.UpdateQuantity(ctx, "p1", 5)
	assert.Equal(t, 5, s.ItemQuantity("p1"))
	assertTotalsConsistent(t, s.State())
}

func TestTotals_HoldAcrossMutationSequences(t *testing.T) {
	s := NewService(newMockStore(), zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1500, 10), 3)
	assertTotalsConsistent(t, s.State())

	s.AddProduct(ctx, product("p2", 2000, 4), 1)
	assertTotalsConsistent(t, s.State())

	s.IncrementItem(ctx, "p2")
	assertTotalsConsistent(t, s.State())

	s.DecrementItem(ctx, "p1")
	assertTotalsConsistent(t, s.State())

	s.UpdateQuantity(ctx, "p1", 7)
	assertTotalsConsistent(t, s.State())

	s.RemoveProduct(ctx, "p2")
	state := s.State()
	assertTotalsConsistent(t, state)
	assert.Equal(t, 7, state.TotalQuantity)
	assert.Equal(t, int64(7*1500), state.TotalAmount)
}

func TestClearAll_ZeroesTotalsAndPersists(t *testing.T) {
	store := newMockStore()
	s := NewService(store, zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 5), 2)
	s.ClearAll(ctx)

	state := s.State()
	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.TotalQuantity)
	assert.Equal(t, int64(0), state.TotalAmount)

	snapshot, err := store.Get(ctx, storage.KeyCartSnapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total_quantity":0,"total_amount":0}`, string(snapshot))
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()

	s := NewService(store, zap.NewNop())
	s.AddProduct(ctx, product("p1", 1500, 10), 3)
	s.AddProduct(ctx, product("p2", 2000, 4), 1)
	want := s.State()

	restored := NewService(store, zap.NewNop())
	require.NoError(t, restored.Restore(ctx))

	assert.Equal(t, want, restored.State())
}

func TestRestore_DoesNotClobberLiveCart(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()

	stale := NewService(store, zap.NewNop())
	stale.AddProduct(ctx, product("p1", 1000, 5), 1)

	s := NewService(store, zap.NewNop())
	s.AddProduct(ctx, product("p2", 2000, 5), 2)
	require.NoError(t, s.Restore(ctx))

	state := s.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, "p2", state.Items[0].ID)
}

func TestPersistFailure_DoesNotRollBackMutation(t *testing.T) {
	store := newMockStore()
	store.putErr = assert.AnError
	s := NewService(store, zap.NewNop())

	s.AddProduct(context.Background(), product("p1", 1000, 5), 1)

	assert.Equal(t, 1, s.ItemQuantity("p1"))
	assert.Equal(t, 1, store.puts)
}

func TestEveryMutationPersists(t *testing.T) {
	store := newMockStore()
	s := NewService(store, zap.NewNop())
	ctx := context.Background()

	s.AddProduct(ctx, product("p1", 1000, 5), 1)
	s.IncrementItem(ctx, "p1")
	s.UpdateQuantity(ctx, "p1", 3)
	s.DecrementItem(ctx, "p1")
	s.RemoveProduct(ctx, "p1")
	s.ClearAll(ctx)

	assert.Equal(t, 6, store.puts)
}
