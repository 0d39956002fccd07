package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
)

// ResumeWindow is how long a saved checkout stays resumable. Anything
// older is discarded on read.
const ResumeWindow = 30 * time.Minute

// Marker step numbers as persisted. stepProcessing marks a confirmed
// transaction still awaiting its final status; stepDone marks a finished
// checkout kept around so a restart can show the outcome.
const (
	stepProcessing = 3
	stepDone       = 5
)

// Progress is the durable checkout marker. It survives restarts so an
// interrupted checkout can be picked up where it left off.
type Progress struct {
	Step          int                      `json:"step"`
	TransactionID string                   `json:"transaction_id"`
	Reference     string                   `json:"reference"`
	Amount        int64                    `json:"amount"`
	ProductID     string                   `json:"product_id"`
	ProductName   string                   `json:"product_name,omitempty"`
	Quantity      int                      `json:"quantity"`
	Status        domain.TransactionStatus `json:"status,omitempty"`
	Timestamp     int64                    `json:"timestamp"` // unix millis
}

// Purchase converts the marker into a purchase-log entry carrying the
// given final status.
func (p Progress) Purchase(status domain.TransactionStatus, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          p.TransactionID,
		Reference:   p.Reference,
		Amount:      p.Amount,
		Status:      status,
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Quantity:    p.Quantity,
		CreatedAt:   at,
	}
}

// Pending reports whether the marker refers to a transaction whose final
// status is still unknown.
func (p Progress) Pending() bool {
	return p.Step == stepProcessing
}

// LoadProgress reads the saved marker, discarding it when absent or older
// than the resume window.
func LoadProgress(ctx context.Context, store storage.LocalStore, log *zap.Logger) (Progress, bool) {
	return loadProgressAt(ctx, store, log, time.Now)
}

func loadProgressAt(ctx context.Context, store storage.LocalStore, log *zap.Logger, now func() time.Time) (Progress, bool) {
	data, err := store.Get(ctx, storage.KeyCheckoutProgress)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			log.Warn("failed to read checkout progress", zap.Error(err))
		}
		return Progress{}, false
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn("discarding corrupt checkout progress", zap.Error(err))
		_ = store.Delete(ctx, storage.KeyCheckoutProgress)
		return Progress{}, false
	}

	age := now().Sub(time.UnixMilli(p.Timestamp))
	if age > ResumeWindow {
		if err := store.Delete(ctx, storage.KeyCheckoutProgress); err != nil {
			log.Warn("failed to clear expired checkout progress", zap.Error(err))
		}
		return Progress{}, false
	}
	return p, true
}

// saveProgressLocked persists the marker for the session's current
// transaction. Best effort: a write failure is logged and the checkout
// continues.
func (s *Session) saveProgressLocked(ctx context.Context, step int) {
	if s.txn == nil {
		return
	}
	productName := s.txn.ProductName
	if productName == "" {
		productName = s.product.Name
	}
	p := Progress{
		Step:          step,
		TransactionID: s.txn.ID,
		Reference:     s.txn.Reference,
		Amount:        s.txn.Amount,
		ProductID:     s.product.ID,
		ProductName:   productName,
		Quantity:      s.quantity,
		Timestamp:     s.now().UnixMilli(),
	}
	if step == stepDone {
		p.Status = s.txn.Status
	}

	data, err := json.Marshal(p)
	if err != nil {
		s.log.Error("failed to encode checkout progress", zap.Error(err))
		return
	}
	if err := s.store.Put(ctx, storage.KeyCheckoutProgress, data); err != nil {
		s.log.Error("failed to persist checkout progress", zap.Error(err))
	}
}

func (s *Session) clearProgressLocked(ctx context.Context) {
	if err := s.store.Delete(ctx, storage.KeyCheckoutProgress); err != nil {
		s.log.Error("failed to clear checkout progress", zap.Error(err))
	}
}
