package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grouk-eth/PumpBot/internal/engine"
	"github.com/grouk-eth/PumpBot/internal/logger"
	"github.com/grouk-eth/PumpBot/internal/notify"
)

type fakeExecutor struct {
	lastOrder engine.Order
	result    *engine.TradeResult
	err       error
	positions map[string]engine.Position
}

func (e *fakeExecutor) Buy(_ context.Context, order engine.Order) (*engine.TradeResult, error) {
	e.lastOrder = order
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *fakeExecutor) Positions() map[string]engine.Position {
	return e.positions
}

func newTestServer(t *testing.T, executor Executor) *Server {
	t.Helper()
	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return NewServer(0, executor, notify.NewLogNotifier(log.Logger), log)
}

func TestHandleRoot(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PumpBot running")
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleExecute_Success(t *testing.T) {
	executor := &fakeExecutor{result: &engine.TradeResult{
		Status:   engine.StatusExecuted,
		Mint:     "MintA",
		SpendSOL: 0.01,
		TxRef:    "tx-1",
	}}
	srv := newTestServer(t, executor)

	body := `{"token":{"mint":"MintA","symbol":"AAA","suggested_spend_sol":"0.02"}}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.TradeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, engine.StatusExecuted, result.Status)
	assert.Equal(t, "tx-1", result.TxRef)

	// String numerics in the payload are accepted.
	assert.Equal(t, "MintA", executor.lastOrder.Mint)
	assert.Equal(t, "AAA", executor.lastOrder.Symbol)
	assert.Equal(t, 0.02, executor.lastOrder.SuggestedSpendSOL)
}

func TestHandleExecute_NameFallsBackForSymbol(t *testing.T) {
	executor := &fakeExecutor{result: &engine.TradeResult{Status: engine.StatusExecuted, Mint: "MintA"}}
	srv := newTestServer(t, executor)

	body := `{"token":{"mint":"MintA","name":"Alpha Token"}}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alpha Token", executor.lastOrder.Symbol)
}

func TestHandleExecute_MissingToken(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	for _, body := range []string{`{}`, `{"token":{"symbol":"AAA"}}`} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "token required")
	}
}

func TestHandleExecute_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExecute_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/execute", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleExecute_EngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid spend maps to 400", engine.ErrInvalidSpend, http.StatusBadRequest},
		{"broadcast failure maps to 500", errors.New("rpc timeout"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeExecutor{err: tt.err})

			body := `{"token":{"mint":"MintA"}}`
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandlePositions(t *testing.T) {
	executor := &fakeExecutor{positions: map[string]engine.Position{
		"MintA": {Mint: "MintA", Symbol: "AAA", SpentSOL: 0.01},
	}}
	srv := newTestServer(t, executor)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/positions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var positions map[string]engine.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Contains(t, positions, "MintA")
	assert.Equal(t, 0.01, positions["MintA"].SpentSOL)
}

func TestHandlePositions_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/positions", strings.NewReader("{}")))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
