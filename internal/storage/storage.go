package storage

import (
	"context"
	"errors"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// Fixed keys under which whole snapshots are persisted.
const (
	KeyCartSnapshot     = "tienda_cart"
	KeyAccessToken      = "access_token"
	KeyCheckoutProgress = "tienda_checkout_progress"
)

var ErrKeyNotFound = errors.New("key not found")

// LocalStore is the durable client-side store. Snapshots are written whole
// under fixed keys; purchases are an append-only log of completed
// transactions.
type LocalStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	AppendPurchase(ctx context.Context, t domain.Transaction) error
	Purchases(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
	Close() error
}
