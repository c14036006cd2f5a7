// Package api exposes the operator control surface: manual buys and position
// inspection.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/grouk-eth/PumpBot/internal/engine"
	"github.com/grouk-eth/PumpBot/internal/logger"
	"github.com/grouk-eth/PumpBot/internal/notify"
	"github.com/grouk-eth/PumpBot/pkg/utils"
)

// Executor is the slice of the engine the API needs.
type Executor interface {
	Buy(ctx context.Context, order engine.Order) (*engine.TradeResult, error)
	Positions() map[string]engine.Position
}

// Server is the HTTP control surface
type Server struct {
	executor   Executor
	notifier   notify.Notifier
	logger     *logger.Logger
	httpServer *http.Server
}

// NewServer creates a control server listening on the given port
func NewServer(port int, executor Executor, notifier notify.Notifier, log *logger.Logger) *Server {
	s := &Server{
		executor: executor,
		notifier: notifier,
		logger:   log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/positions", s.handlePositions)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("🌐 Control server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "PumpBot running")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type executeRequest struct {
	Token *executeToken `json:"token"`
}

type executeToken struct {
	Mint              string      `json:"mint"`
	Symbol            string      `json:"symbol"`
	Name              string      `json:"name"`
	SuggestedSpendSOL interface{} `json:"suggested_spend_sol"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Token == nil || req.Token.Mint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token required"})
		return
	}

	symbol := req.Token.Symbol
	if symbol == "" {
		symbol = req.Token.Name
	}

	order := engine.Order{
		Mint:              req.Token.Mint,
		Symbol:            symbol,
		SuggestedSpendSOL: utils.ParseFloat(req.Token.SuggestedSpendSOL, 0),
	}

	result, err := s.executor.Buy(r.Context(), order)
	if err != nil {
		s.logger.WithToken(order.Mint).WithError(err).Error("Execute request failed")
		if notifyErr := s.notifier.Send(r.Context(), "Executor error: "+err.Error()); notifyErr != nil {
			s.logger.WithError(notifyErr).Warn("Notification failed")
		}
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidSpend) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.executor.Positions())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
