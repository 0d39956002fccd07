package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

type scriptedSource struct {
	mu      sync.Mutex
	updates []domain.StatusUpdate
	calls   int
	err     error
}

func (s *scriptedSource) TransactionStatus(_ context.Context, id string) (domain.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if s.err != nil {
		return domain.StatusUpdate{}, s.err
	}
	if i >= len(s.updates) {
		i = len(s.updates) - 1
	}
	u := s.updates[i]
	u.TransactionID = id
	return u, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSink struct {
	mu       sync.Mutex
	applied  []domain.StatusUpdate
	accept   bool
	terminal bool
}

func (r *recordingSink) Apply(u domain.StatusUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return false
	}
	r.applied = append(r.applied, u)
	if u.Status.IsTerminal() {
		r.terminal = true
	}
	return r.accept
}

func (r *recordingSink) statuses() []domain.TransactionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TransactionStatus, 0, len(r.applied))
	for _, u := range r.applied {
		out = append(out, u.Status)
	}
	return out
}

func TestWatch_StopsOnTerminalStatus(t *testing.T) {
	source := &scriptedSource{updates: []domain.StatusUpdate{
		{Status: domain.StatusPending, IsPending: true},
		{Status: domain.StatusPending, IsPending: true},
		{Status: domain.StatusApproved, IsCompleted: true},
	}}
	sink := &recordingSink{accept: true}

	p := New(source, 10*time.Millisecond, time.Second, zap.NewNop())

	finished := make(chan struct{})
	go func() {
		p.Watch(context.Background(), "txn_1", sink)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after terminal status")
	}

	statuses := sink.statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.StatusApproved, statuses[len(statuses)-1])

	// No further status is applied after the terminal observation.
	applied := len(statuses)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sink.statuses(), applied)
}

func TestWatch_CancellationStopsPolling(t *testing.T) {
	source := &scriptedSource{updates: []domain.StatusUpdate{
		{Status: domain.StatusPending, IsPending: true},
	}}
	sink := &recordingSink{accept: true}

	p := New(source, 10*time.Millisecond, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		p.Watch(ctx, "txn_1", sink)
		close(finished)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestWatch_SinkDeclineStopsPolling(t *testing.T) {
	source := &scriptedSource{updates: []domain.StatusUpdate{
		{Status: domain.StatusPending, IsPending: true},
	}}
	sink := &recordingSink{accept: false} // session already closed

	p := New(source, 10*time.Millisecond, time.Second, zap.NewNop())

	finished := make(chan struct{})
	go func() {
		p.Watch(context.Background(), "txn_1", sink)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop when sink declined")
	}
}

func TestWatch_PollErrorsAreRetried(t *testing.T) {
	source := &scriptedSource{err: assert.AnError}
	sink := &recordingSink{accept: true}

	p := New(source, 10*time.Millisecond, time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	p.Watch(ctx, "txn_1", sink)

	assert.Greater(t, source.callCount(), 1, "errors should not stop the poll loop")
	assert.Empty(t, sink.statuses())
}

func TestDeliver_StalePendingAfterTerminalIsDiscarded(t *testing.T) {
	sink := &recordingSink{accept: true}
	w := &watch{}

	// Request 1 (PENDING) is issued first but its response arrives after
	// request 2's APPROVED response.
	cont := w.deliver(2, domain.StatusUpdate{TransactionID: "txn_1", Status: domain.StatusApproved}, sink)
	assert.False(t, cont)

	cont = w.deliver(1, domain.StatusUpdate{TransactionID: "txn_1", Status: domain.StatusPending}, sink)
	assert.True(t, cont, "stale response is discarded, not treated as a stop signal")

	assert.Equal(t, []domain.TransactionStatus{domain.StatusApproved}, sink.statuses())
}

func TestDeliver_OutOfOrderAcrossPendingPolls(t *testing.T) {
	sink := &recordingSink{accept: true}
	w := &watch{}

	assert.True(t, w.deliver(3, domain.StatusUpdate{Status: domain.StatusPending}, sink))
	assert.True(t, w.deliver(1, domain.StatusUpdate{Status: domain.StatusPending}, sink))
	assert.True(t, w.deliver(2, domain.StatusUpdate{Status: domain.StatusPending}, sink))

	// Only the newest request's response was applied.
	assert.Len(t, sink.statuses(), 1)
}

func TestWatch_PollerIsReusableAcrossTransactions(t *testing.T) {
	source := &scriptedSource{updates: []domain.StatusUpdate{
		{Status: domain.StatusApproved, IsCompleted: true},
	}}

	p := New(source, 10*time.Millisecond, time.Second, zap.NewNop())

	// First transaction runs to its terminal status.
	first := &recordingSink{accept: true}
	finished := make(chan struct{})
	go func() {
		p.Watch(context.Background(), "txn_1", first)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("first watch did not finish")
	}
	callsAfterFirst := source.callCount()

	// The same poller must serve the next transaction from a clean slate.
	second := &recordingSink{accept: true}
	finished = make(chan struct{})
	go func() {
		p.Watch(context.Background(), "txn_2", second)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("second watch on the same poller never polled")
	}

	assert.Greater(t, source.callCount(), callsAfterFirst)
	statuses := second.statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.StatusApproved, statuses[len(statuses)-1])
}

func TestWatch_ConcurrentPollsDoNotRace(t *testing.T) {
	source := &scriptedSource{updates: []domain.StatusUpdate{
		{Status: domain.StatusPending, IsPending: true},
	}}
	sink := &recordingSink{accept: true}

	p := New(source, 5*time.Millisecond, time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Watch(ctx, "txn_1", sink)

	assert.Greater(t, source.callCount(), 2)
}
