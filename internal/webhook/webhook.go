// Package webhook receives gateway callbacks about transaction status
// changes and dispatches them to whoever is watching that transaction.
// Webhooks and polling feed the same sink, so the stale-response and
// terminal-status guards apply to both paths.
package webhook

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/poller"
)

type Server struct {
	log *zap.Logger

	mu    sync.Mutex
	sinks map[string]poller.Sink
}

func NewServer(log *zap.Logger) *Server {
	return &Server{
		log:   log,
		sinks: make(map[string]poller.Sink),
	}
}

// Register routes events for the given transaction to the sink. A second
// registration for the same transaction replaces the first.
func (s *Server) Register(transactionID string, sink poller.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[transactionID] = sink
}

func (s *Server) Unregister(transactionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sinks, transactionID)
}

// Handler returns the HTTP surface for gateway callbacks.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/webhooks/transactions", s.handleTransactionEvent)
	return r
}

type transactionEventDTO struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID        string `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
		} `json:"transaction"`
	} `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// POST /webhooks/transactions
func (s *Server) handleTransactionEvent(w http.ResponseWriter, r *http.Request) {
	var event transactionEventDTO
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	txn := event.Data.Transaction
	status := domain.TransactionStatus(txn.Status)
	if txn.ID == "" || !status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_event",
			"transaction id and a known status are required")
		return
	}

	update := domain.StatusUpdate{
		TransactionID: txn.ID,
		Reference:     txn.Reference,
		Status:        status,
		IsPending:     !status.IsTerminal(),
		IsCompleted:   status.IsTerminal(),
	}

	s.mu.Lock()
	sink, ok := s.sinks[txn.ID]
	s.mu.Unlock()

	if !ok {
		// Nobody is watching this transaction here. Acknowledge so the
		// gateway stops redelivering.
		s.log.Info("webhook for unwatched transaction",
			zap.String("transaction_id", txn.ID),
			zap.String("status", txn.Status))
		w.WriteHeader(http.StatusOK)
		return
	}

	if !sink.Apply(update) || status.IsTerminal() {
		s.Unregister(txn.ID)
	}

	s.log.Info("webhook dispatched",
		zap.String("transaction_id", txn.ID),
		zap.String("status", txn.Status))
	w.WriteHeader(http.StatusOK)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}
