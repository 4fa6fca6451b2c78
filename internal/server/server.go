package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cryptoduel/internal/domain"
	"cryptoduel/internal/engine"
	"cryptoduel/internal/infra"
	"cryptoduel/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Server is the thin presentation shell over the game session: it
// serves the read-only projection and forwards player intents. It never
// touches round state directly.
type Server struct {
	session *engine.Session
	hub     *Hub
	store   *storage.Storage // may be nil when history is disabled
	httpSrv *http.Server
}

// New wires the HTTP shell. store may be nil.
func New(addr string, session *engine.Session, hub *Hub, store *storage.Storage) *Server {
	s := &Server{
		session: session,
		hub:     hub,
		store:   store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/bet", s.handleBet)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/next", s.handleNext)
	mux.HandleFunc("POST /api/abandon", s.handleAbandon)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.Handle("GET /ws", hub)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("presentation shell listening", slog.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return
	}
	if err := s.session.CommitWager(body.Amount); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssetID string `json:"asset_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return
	}
	if err := s.session.SelectAsset(body.AssetID); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartNextRound(); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Abandon(); err != nil {
		writeError(w, intentStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("history disabled"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.store.RecentRounds(limit)
	if err != nil {
		slog.Error("failed to load round history", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}

	stats, err := s.store.Stats()
	if err != nil {
		slog.Error("failed to load round stats", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": recs,
		"stats":  stats,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infra.GlobalMetrics.Snapshot())
}

// intentStatus maps the game error taxonomy onto HTTP statuses:
// rejected inputs are 400s, wrong-phase intents are conflicts.
func intentStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidWager), errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
