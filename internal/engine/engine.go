// Package engine owns the position table and executes buy and sell decisions
// against a pluggable broadcaster. Nothing outside the engine mutates a
// position; the watcher and the HTTP surface reach it only through Buy, Sell,
// TriggerAutoSell and Positions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grouk-eth/PumpBot/internal/broadcast"
	"github.com/grouk-eth/PumpBot/internal/logger"
	"github.com/grouk-eth/PumpBot/internal/notify"
	"github.com/grouk-eth/PumpBot/pkg/utils"
)

// ErrInvalidSpend is returned when the resolved spend amount is not positive.
var ErrInvalidSpend = errors.New("resolved spend amount must be positive")

// Status classifies the outcome of a buy or sell call. Soft outcomes (skips,
// no-position) are statuses rather than errors so callers can branch without
// unwrapping.
type Status string

const (
	StatusExecuted     Status = "executed"
	StatusSimulated    Status = "simulated"
	StatusSkippedLimit Status = "skipped-position-limit"
	StatusNoPosition   Status = "no-position"
	StatusSold         Status = "sold"
)

// Order is a buy request for one asset.
type Order struct {
	Mint              string
	Symbol            string
	SuggestedSpendSOL float64 // 0 or negative means "use the configured default"
}

func (o Order) displayName() string {
	if o.Symbol != "" {
		return o.Symbol
	}
	return o.Mint
}

// Position is the tracked exposure for one asset.
type Position struct {
	Mint        string    `json:"mint"`
	Symbol      string    `json:"symbol,omitempty"`
	SpentSOL    float64   `json:"spent_sol"`
	TokenAmount float64   `json:"token_amount"`
	LastTxRef   string    `json:"last_tx_ref,omitempty"`
	OpenedAt    time.Time `json:"opened_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TradeResult reports the outcome of a buy or sell call.
type TradeResult struct {
	Status   Status  `json:"status"`
	Mint     string  `json:"mint"`
	SpendSOL float64 `json:"spend_sol,omitempty"`
	TxRef    string  `json:"tx_ref,omitempty"`
}

// Config contains the engine's spend limits
type Config struct {
	MaxSpendSOL        float64
	MaxPositionSizeSOL float64
}

// Engine maintains positions and executes trades
type Engine struct {
	cfg         Config
	broadcaster broadcast.Broadcaster
	notifier    notify.Notifier
	logger      *logger.Logger
	trades      *logger.TradeLogger // optional

	// mu guards the position map and the per-mint lock table. Each mutation
	// for a mint additionally holds that mint's lock across the broadcaster
	// call, so a manual buy and an auto-sell for the same asset cannot
	// interleave.
	mu        sync.Mutex
	positions map[string]*Position
	mintLocks map[string]*mintLock
}

// mintLock is a reference-counted keyed mutex entry. The count tracks holders
// and waiters so the table entry can be removed once the last one releases.
type mintLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an execution engine
func New(cfg Config, b broadcast.Broadcaster, n notify.Notifier, log *logger.Logger, trades *logger.TradeLogger) *Engine {
	return &Engine{
		cfg:         cfg,
		broadcaster: b,
		notifier:    n,
		logger:      log,
		trades:      trades,
		positions:   make(map[string]*Position),
		mintLocks:   make(map[string]*mintLock),
	}
}

func (e *Engine) lockMint(mint string) *mintLock {
	e.mu.Lock()
	lock, ok := e.mintLocks[mint]
	if !ok {
		lock = &mintLock{}
		e.mintLocks[mint] = lock
	}
	lock.refs++
	e.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (e *Engine) unlockMint(mint string, lock *mintLock) {
	lock.mu.Unlock()

	e.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(e.mintLocks, mint)
	}
	e.mu.Unlock()
}

// notify delivers a message best-effort; failures are logged, never returned.
func (e *Engine) notify(ctx context.Context, text string) {
	if err := e.notifier.Send(ctx, text); err != nil {
		e.logger.WithError(err).Warn("Notification failed")
	}
}

func (e *Engine) logTrade(trade logger.TradeLog) {
	if e.trades == nil {
		return
	}
	if err := e.trades.LogTrade(trade); err != nil {
		e.logger.WithError(err).Warn("Trade journal write failed")
	}
}

// resolveSpend applies the default and the per-buy cap to a suggested spend.
func (e *Engine) resolveSpend(suggested float64) float64 {
	if suggested <= 0 {
		suggested = e.cfg.MaxSpendSOL
	}
	return utils.Min(e.cfg.MaxSpendSOL, suggested)
}

// Buy executes a purchase for the given order. The per-asset position ceiling
// is a hard limit: a buy that would cross it is skipped, not truncated.
func (e *Engine) Buy(ctx context.Context, order Order) (*TradeResult, error) {
	if order.Mint == "" {
		return nil, fmt.Errorf("order mint is required")
	}

	spend := e.resolveSpend(order.SuggestedSpendSOL)
	if spend <= 0 {
		return nil, ErrInvalidSpend
	}

	lock := e.lockMint(order.Mint)
	defer e.unlockMint(order.Mint, lock)

	current := e.spentFor(order.Mint)
	if current+spend > e.cfg.MaxPositionSizeSOL {
		e.logger.WithFields(map[string]interface{}{
			"mint":      order.Mint,
			"current":   current,
			"spend":     spend,
			"max_total": e.cfg.MaxPositionSizeSOL,
		}).Info("🚫 Position limit reached, skipping buy")
		e.notify(ctx, fmt.Sprintf("Position limit reached for %s. Skipping buy.", order.displayName()))
		return &TradeResult{Status: StatusSkippedLimit, Mint: order.Mint}, nil
	}

	e.logger.LogTradeAttempt("buy", order.Mint, spend)
	e.notify(ctx, fmt.Sprintf("Executor: Preparing BUY %s with %v SOL", order.displayName(), spend))

	receipt, err := e.broadcaster.SubmitBuy(ctx, order.Mint, spend)
	if err != nil {
		e.logger.LogTradeError("buy", order.Mint, err)
		e.notify(ctx, fmt.Sprintf("Buy failed for %s: %v", order.displayName(), err))
		e.logTrade(logger.TradeLog{
			TradeType:    "buy",
			Mint:         order.Mint,
			TokenSymbol:  order.Symbol,
			SpendSOL:     spend,
			Status:       "failed",
			ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("buy %s: %w", order.Mint, err)
	}

	e.applyBuy(order, spend, receipt)

	status := StatusExecuted
	journalStatus := "executed"
	if receipt.Simulated {
		status = StatusSimulated
		journalStatus = "simulated"
	}

	e.logger.LogTradeSuccess("buy", order.Mint, spend, receipt.TxRef)
	e.notify(ctx, fmt.Sprintf("BUY executed for %s. spend=%v SOL tx=%s", order.displayName(), spend, receipt.TxRef))
	e.logTrade(logger.TradeLog{
		TradeType:   "buy",
		Mint:        order.Mint,
		TokenSymbol: order.Symbol,
		SpendSOL:    spend,
		TokenAmount: receipt.TokensDelta,
		TxRef:       receipt.TxRef,
		Status:      journalStatus,
	})

	return &TradeResult{Status: status, Mint: order.Mint, SpendSOL: spend, TxRef: receipt.TxRef}, nil
}

// Sell liquidates the full position for a mint. The position entry is removed
// only after the broadcaster reports success; a failed sell keeps the tracked
// exposure.
func (e *Engine) Sell(ctx context.Context, mint string) (*TradeResult, error) {
	lock := e.lockMint(mint)
	defer e.unlockMint(mint, lock)

	position, ok := e.positionFor(mint)
	if !ok {
		e.logger.WithToken(mint).Info("No position to sell")
		e.notify(ctx, fmt.Sprintf("No position for %s to sell.", mint))
		return &TradeResult{Status: StatusNoPosition, Mint: mint}, nil
	}

	e.logger.LogTradeAttempt("sell", mint, position.SpentSOL)
	e.notify(ctx, fmt.Sprintf("Executor: Preparing SELL for %s", mint))

	receipt, err := e.broadcaster.SubmitSell(ctx, mint)
	if err != nil {
		e.logger.LogTradeError("sell", mint, err)
		e.notify(ctx, fmt.Sprintf("Sell failed for %s: %v", mint, err))
		e.logTrade(logger.TradeLog{
			TradeType:    "sell",
			Mint:         mint,
			TokenSymbol:  position.Symbol,
			Status:       "failed",
			ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("sell %s: %w", mint, err)
	}

	e.removePosition(mint)

	journalStatus := "executed"
	if receipt.Simulated {
		journalStatus = "simulated"
	}

	e.logger.LogTradeSuccess("sell", mint, position.SpentSOL, receipt.TxRef)
	e.notify(ctx, fmt.Sprintf("SELL executed for %s. tx=%s", mint, receipt.TxRef))
	e.logTrade(logger.TradeLog{
		TradeType:   "sell",
		Mint:        mint,
		TokenSymbol: position.Symbol,
		SpendSOL:    position.SpentSOL,
		TxRef:       receipt.TxRef,
		Status:      journalStatus,
	})

	return &TradeResult{Status: StatusSold, Mint: mint, TxRef: receipt.TxRef}, nil
}

// TriggerAutoSell is the watcher's integration point: it announces the
// trigger and sells whatever position exists. Safe to call for an unknown
// mint.
func (e *Engine) TriggerAutoSell(ctx context.Context, mint string) (*TradeResult, error) {
	e.notify(ctx, fmt.Sprintf("Auto-sell triggered for %s", mint))
	return e.Sell(ctx, mint)
}

// Positions returns a snapshot copy of the position table keyed by mint.
func (e *Engine) Positions() map[string]Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := make(map[string]Position, len(e.positions))
	for mint, position := range e.positions {
		snapshot[mint] = *position
	}
	return snapshot
}

// Summary renders a one-message overview of open positions.
func (e *Engine) Summary() string {
	positions := e.Positions()
	if len(positions) == 0 {
		return "Position summary: no open positions."
	}

	mints := make([]string, 0, len(positions))
	for mint := range positions {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	var b strings.Builder
	fmt.Fprintf(&b, "Position summary: %d open position(s)\n", len(positions))
	for _, mint := range mints {
		p := positions[mint]
		name := p.Symbol
		if name == "" {
			name = p.Mint
		}
		fmt.Fprintf(&b, "- %s: spent %v SOL, holding %v tokens", name, p.SpentSOL, p.TokenAmount)
		if p.LastTxRef != "" {
			fmt.Fprintf(&b, " (tx %s)", p.LastTxRef)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Engine) spentFor(mint string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if position, ok := e.positions[mint]; ok {
		return position.SpentSOL
	}
	return 0
}

func (e *Engine) positionFor(mint string) (Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if position, ok := e.positions[mint]; ok {
		return *position, true
	}
	return Position{}, false
}

func (e *Engine) applyBuy(order Order, spend float64, receipt *broadcast.Receipt) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	position, ok := e.positions[order.Mint]
	if !ok {
		position = &Position{
			Mint:     order.Mint,
			Symbol:   order.Symbol,
			OpenedAt: now,
		}
		e.positions[order.Mint] = position
	}

	position.SpentSOL += spend
	position.TokenAmount += receipt.TokensDelta
	position.LastTxRef = receipt.TxRef
	position.UpdatedAt = now
	if position.Symbol == "" {
		position.Symbol = order.Symbol
	}
}

func (e *Engine) removePosition(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.positions, mint)
}
