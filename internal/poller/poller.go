// Package poller watches a pending transaction until the gateway reports a
// terminal status. Polls run on a ticker and each response carries the
// sequence number of its request, so a slow response from an earlier poll
// can never overwrite a newer observation.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// StatusSource is the backend query used for each poll.
type StatusSource interface {
	TransactionStatus(ctx context.Context, transactionID string) (domain.StatusUpdate, error)
}

// Sink receives status observations. Apply returns false once the receiver
// is no longer interested (terminal status shown, session closed); the
// poller stops at the first false.
type Sink interface {
	Apply(update domain.StatusUpdate) bool
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(update domain.StatusUpdate) bool

func (f SinkFunc) Apply(update domain.StatusUpdate) bool { return f(update) }

// Poller is reusable: every Watch call carries its own fencing state, so
// one Poller serves many transactions, concurrently or one after another.
type Poller struct {
	source   StatusSource
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func New(source StatusSource, interval, timeout time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// watch is the per-Watch fencing state. Sequence numbers order responses
// within one watched transaction only.
type watch struct {
	mu      sync.Mutex
	nextSeq uint64
	applied uint64 // seq of the newest applied response
	stopped bool
}

// Watch polls until the sink reports a terminal status, the sink declines
// an update, or ctx is cancelled. It blocks; run it in its own goroutine.
// Requests are issued on every tick even if the previous one is still in
// flight; deliver discards whatever arrives out of order.
func (p *Poller) Watch(ctx context.Context, transactionID string, sink Sink) {
	w := &watch{}

	done := make(chan struct{})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(done) }) }

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	poll := func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.nextSeq++
		seq := w.nextSeq
		w.mu.Unlock()

		pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		update, err := p.source.TransactionStatus(pollCtx, transactionID)
		if err != nil {
			p.log.Warn("status poll failed",
				zap.String("transaction_id", transactionID),
				zap.Error(err))
			return
		}

		if !w.deliver(seq, update, sink) {
			stop()
		}
	}

	go poll()
	for {
		select {
		case <-ticker.C:
			go poll()
		case <-done:
			w.markStopped()
			return
		case <-ctx.Done():
			w.markStopped()
			return
		}
	}
}

// deliver applies an update unless a response from a newer request has
// already been applied. Returns false when polling should stop.
func (w *watch) deliver(seq uint64, update domain.StatusUpdate, sink Sink) bool {
	w.mu.Lock()
	if w.stopped || seq <= w.applied {
		w.mu.Unlock()
		return !w.stopped
	}
	w.applied = seq
	w.mu.Unlock()

	if !sink.Apply(update) {
		return false
	}
	return !update.Status.IsTerminal()
}

func (w *watch) markStopped() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}
