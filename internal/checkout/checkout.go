// Package checkout drives the payment flow: payment -> summary ->
// processing -> result. A session belongs to one product purchase; closing
// the UI discards it. Status observations arrive from the poller or the
// webhook listener through the same sink, guarded by a per-attempt
// identifier so a superseded attempt can never mutate the session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/poller"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/validate"
)

var (
	ErrInvalidStep   = errors.New("operation not allowed in current step")
	ErrSessionClosed = errors.New("checkout session is closed")
)

// TransactionAPI is the slice of the backend client the session needs.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error)
}

// Cart is mutated when a purchase is approved.
type Cart interface {
	RemoveProduct(ctx context.Context, productID string)
}

type Session struct {
	api   TransactionAPI
	cart  Cart
	store storage.LocalStore
	log   *zap.Logger

	now       func() time.Time
	autoClose time.Duration
	onClosed  func()

	mu         sync.Mutex
	product    domain.Product
	quantity   int
	step       domain.CheckoutStep
	form       domain.PaymentForm
	txn        *domain.Transaction
	attempt    uint64
	closed     bool
	closeTimer *time.Timer
}

type Option func(*Session)

// WithAutoCloseDelay sets how long the confirmation stays on screen before
// the session closes itself after an approved purchase.
func WithAutoCloseDelay(d time.Duration) Option {
	return func(s *Session) { s.autoClose = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnClosed registers a hook invoked once when the session closes.
func WithOnClosed(fn func()) Option {
	return func(s *Session) { s.onClosed = fn }
}

func NewSession(api TransactionAPI, cart Cart, store storage.LocalStore, log *zap.Logger,
	product domain.Product, quantity int, opts ...Option) *Session {

	s := &Session{
		api:       api,
		cart:      cart,
		store:     store,
		log:       log,
		now:       time.Now,
		autoClose: 5 * time.Second,
		product:   product,
		quantity:  quantity,
		step:      domain.StepPayment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Step() domain.CheckoutStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Quote prices the order being checked out.
func (s *Session) Quote() domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PriceOrder(s.product.Price * int64(s.quantity))
}

// Transaction returns a copy of the session's transaction, if any.
func (s *Session) Transaction() *domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txn == nil {
		return nil
	}
	txn := *s.txn
	return &txn
}

// SubmitPayment validates the form and, when clean, advances to the
// summary step. The validated payload is carried forward; it is not
// re-validated on later transitions.
func (s *Session) SubmitPayment(form domain.PaymentForm) (validate.Errors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.step != domain.StepPayment {
		return nil, fmt.Errorf("%w: step %s", ErrInvalidStep, s.step)
	}

	errs := validate.Validate(form)
	if !errs.Valid() {
		return errs, nil
	}

	s.form = form
	return nil, s.stepToLocked(domain.StepSummary)
}

// stepToLocked moves to the given step after checking the transition table.
func (s *Session) stepToLocked(to domain.CheckoutStep) error {
	if !domain.CanTransition(s.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStep, s.step, to)
	}
	s.step = to
	return nil
}

// EditPayment returns from the summary to the payment step.
func (s *Session) EditPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return s.stepToLocked(domain.StepPayment)
}

// Confirm submits the transaction to the gateway. A fresh idempotent
// reference is synthesized for every attempt so retries never collide.
// A failed creation call resolves locally to a terminal ERROR result
// instead of leaving the session stuck in processing.
func (s *Session) Confirm(ctx context.Context) (domain.Transaction, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Transaction{}, ErrSessionClosed
	}
	if s.step != domain.StepSummary {
		step := s.step
		s.mu.Unlock()
		return domain.Transaction{}, fmt.Errorf("%w: step %s", ErrInvalidStep, step)
	}

	s.step = domain.StepProcessing
	s.attempt++ // supersedes any sink handed out for the previous attempt
	attempt := s.attempt
	reference := NewReference(s.now())
	quote := domain.PriceOrder(s.product.Price * int64(s.quantity))
	req := domain.TransactionRequest{
		ProductID:    s.product.ID,
		Quantity:     s.quantity,
		Amount:       quote.Total,
		Reference:    reference,
		CardNumber:   s.form.CardNumber,
		ExpiryDate:   s.form.ExpiryDate,
		CVV:          s.form.CVV,
		Cardholder:   s.form.CardholderName,
		DocumentType: s.form.DocumentType,
		DocumentNum:  s.form.DocumentNumber,
		Delivery:     s.form.Delivery(),
	}
	s.mu.Unlock()

	txn, err := s.api.CreateTransaction(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || attempt != s.attempt {
		// Session moved on while the request was in flight.
		return domain.Transaction{}, ErrSessionClosed
	}

	if err != nil {
		s.log.Error("transaction creation failed",
			zap.String("reference", reference),
			zap.Error(err))
		s.txn = &domain.Transaction{
			ID:        fmt.Sprintf("local_%d", s.now().UnixMilli()),
			Reference: reference,
			Amount:    quote.Total,
			Status:    domain.StatusError,
			ProductID: s.product.ID,
			Quantity:  s.quantity,
			CreatedAt: s.now(),
		}
		s.step = domain.StepResult
		s.clearProgressLocked(ctx)
		return *s.txn, nil
	}

	s.txn = txn
	if txn.Status.IsTerminal() {
		s.finishLocked(ctx, txn.Status)
	} else {
		s.saveProgressLocked(ctx, stepProcessing)
	}
	return *s.txn, nil
}

// Sink returns the status intake for the current attempt, to be handed to
// the poller or the webhook dispatcher. Observations for superseded
// attempts are discarded and stop their source.
func (s *Session) Sink() poller.Sink {
	s.mu.Lock()
	attempt := s.attempt
	s.mu.Unlock()

	return poller.SinkFunc(func(u domain.StatusUpdate) bool {
		return s.applyStatus(attempt, u)
	})
}

func (s *Session) applyStatus(attempt uint64, u domain.StatusUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || attempt != s.attempt || s.txn == nil || u.TransactionID != s.txn.ID {
		return false
	}
	if s.txn.Status.IsTerminal() {
		// Terminal already shown; nothing may overwrite it.
		return false
	}
	if !u.Status.IsTerminal() {
		return true
	}

	s.txn.Status = u.Status
	s.finishLocked(context.Background(), u.Status)
	return true
}

// finishLocked moves to the result step and runs the terminal side
// effects. Cart removal and the purchase log entry happen only on
// webhook/poll-confirmed approval.
func (s *Session) finishLocked(ctx context.Context, status domain.TransactionStatus) {
	s.step = domain.StepResult
	s.saveProgressLocked(ctx, stepDone)

	s.log.Info("checkout finished",
		zap.String("transaction_id", s.txn.ID),
		zap.String("status", status.String()))

	if status != domain.StatusApproved {
		return
	}

	s.cart.RemoveProduct(ctx, s.product.ID)
	purchase := *s.txn
	if purchase.ProductName == "" {
		purchase.ProductName = s.product.Name
	}
	if err := s.store.AppendPurchase(ctx, purchase); err != nil {
		s.log.Error("failed to record purchase", zap.Error(err))
	}

	if s.autoClose > 0 {
		s.closeTimer = time.AfterFunc(s.autoClose, func() {
			s.Close(context.Background())
		})
	}
}

// Retry returns to the summary after a declined or errored result so the
// user can confirm again. The next Confirm synthesizes a new reference.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step != domain.StepResult {
		return fmt.Errorf("%w: step %s", ErrInvalidStep, s.step)
	}
	if s.txn == nil || s.txn.Status == domain.StatusApproved {
		return fmt.Errorf("%w: approved purchases cannot be retried", ErrInvalidStep)
	}
	return s.stepToLocked(domain.StepSummary)
}

// Close discards the session. In-flight status observations for it are
// ignored from here on; the poller stops at its next delivery.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.attempt++
	s.step = domain.StepPayment
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	pending := s.txn != nil && !s.txn.Status.IsTerminal()
	onClosed := s.onClosed
	s.mu.Unlock()

	if !pending {
		// Nothing to resume later.
		if err := s.store.Delete(ctx, storage.KeyCheckoutProgress); err != nil {
			s.log.Error("failed to clear checkout progress", zap.Error(err))
		}
	}

	if onClosed != nil {
		onClosed()
	}
}
