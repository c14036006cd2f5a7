package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TradeLog represents a trade journal entry
type TradeLog struct {
	Timestamp    time.Time `json:"timestamp"`
	TradeType    string    `json:"trade_type"` // "buy" or "sell"
	Mint         string    `json:"mint"`
	TokenSymbol  string    `json:"token_symbol,omitempty"`
	SpendSOL     float64   `json:"spend_sol,omitempty"`
	TokenAmount  float64   `json:"token_amount,omitempty"`
	TxRef        string    `json:"tx_ref,omitempty"`
	Status       string    `json:"status"` // "executed", "simulated", "skipped", "failed"
	ErrorMessage string    `json:"error_message,omitempty"`
}

// TradeLogger appends trade records to daily JSONL files
type TradeLogger struct {
	baseDir string
	logger  *Logger
	mu      sync.Mutex
}

// NewTradeLogger creates a new trade logger
func NewTradeLogger(baseDir string, logger *Logger) (*TradeLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade log directory: %w", err)
	}

	return &TradeLogger{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// LogTrade logs a trade to both structured logs and the daily trade file
func (tl *TradeLogger) LogTrade(trade TradeLog) error {
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	tl.logger.WithFields(map[string]interface{}{
		"event":        "trade_logged",
		"trade_type":   trade.TradeType,
		"mint":         trade.Mint,
		"spend_sol":    trade.SpendSOL,
		"token_amount": trade.TokenAmount,
		"tx_ref":       trade.TxRef,
		"status":       trade.Status,
	}).Debug("Trade logged")

	filename := fmt.Sprintf("trades_%s.jsonl", trade.Timestamp.Format("2006-01-02"))
	path := filepath.Join(tl.baseDir, filename)

	tl.mu.Lock()
	defer tl.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trade log file: %w", err)
	}
	defer file.Close()

	tradeBytes, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	if _, err := file.Write(append(tradeBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write trade to file: %w", err)
	}

	return nil
}
