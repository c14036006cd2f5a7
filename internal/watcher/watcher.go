// Package watcher polls the token feed, raises candidate and big-buy alerts
// and hands big-buy triggers to the execution engine.
package watcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/grouk-eth/PumpBot/internal/engine"
	"github.com/grouk-eth/PumpBot/internal/feed"
	"github.com/grouk-eth/PumpBot/internal/logger"
	"github.com/grouk-eth/PumpBot/internal/notify"
)

// AutoSeller is the slice of the engine the watcher needs.
type AutoSeller interface {
	TriggerAutoSell(ctx context.Context, mint string) (*engine.TradeResult, error)
}

// Config contains watcher thresholds and timing
type Config struct {
	PollInterval       time.Duration
	MinVolumeUSD       float64
	BigBuyUSDThreshold float64
	BigBuyWindow       time.Duration
}

// Watcher drives the feed polling loop
type Watcher struct {
	cfg      Config
	feed     feed.Source
	notifier notify.Notifier
	seller   AutoSeller
	logger   *logger.Logger

	window      *BuyWindow
	lastAlerted string // suppresses back-to-back candidate alerts for one mint

	// polling guards against overlapping ticks: a tick that fires while the
	// previous poll is still in flight is skipped.
	polling atomic.Bool

	now func() time.Time
}

// New creates a watcher
func New(cfg Config, source feed.Source, notifier notify.Notifier, seller AutoSeller, log *logger.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		feed:     source,
		notifier: notifier,
		seller:   seller,
		logger:   log,
		window:   NewBuyWindow(cfg.BigBuyWindow),
		now:      time.Now,
	}
}

// Snipable reports whether a token passes the coarse candidate filter:
// liquidity has been added and reported volume clears the threshold.
func (w *Watcher) Snipable(token feed.Token) bool {
	return token.LiquidityAdded && token.VolumeUSD > w.cfg.MinVolumeUSD
}

// Start runs the polling loop until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.WithFields(map[string]interface{}{
		"poll_interval": w.cfg.PollInterval,
		"big_buy_usd":   w.cfg.BigBuyUSDThreshold,
		"window":        w.cfg.BigBuyWindow,
	}).Info("👀 Watcher started")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return
		case <-ticker.C:
			// Polls run off the loop goroutine so a slow feed cannot stall the
			// ticker; a tick that fires mid-poll is skipped, not queued.
			if !w.polling.CompareAndSwap(false, true) {
				w.logger.Debug("Previous poll still in flight, skipping tick")
				continue
			}
			go func() {
				defer w.polling.Store(false)
				w.PollOnce(ctx)
			}()
		}
	}
}

// PollOnce fetches one feed snapshot and processes every token in it. Feed
// failures are logged and skipped; they never terminate the loop.
func (w *Watcher) PollOnce(ctx context.Context) {
	snapshot, err := w.feed.FetchSnapshot(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("⚠️ Feed unavailable, tick skipped")
		return
	}

	for _, token := range snapshot.Tokens {
		w.processToken(ctx, token)
	}
}

func (w *Watcher) processToken(ctx context.Context, token feed.Token) {
	if w.Snipable(token) && token.Mint != w.lastAlerted {
		w.lastAlerted = token.Mint
		w.logger.LogCandidateAlert(token.Mint, token.DisplayName(), token.VolumeUSD)
		w.sendNotification(ctx, candidateAlertMessage(token))
	}

	if len(token.BuyEvents) == 0 {
		return
	}

	now := w.now()
	for _, event := range token.BuyEvents {
		// Recorded at observation time; the feed's own timestamp is
		// informational only.
		w.window.Record(token.Mint, event.USD, now)
	}

	aggregated := w.window.Total(token.Mint, now)
	if aggregated < w.cfg.BigBuyUSDThreshold {
		return
	}

	w.logger.LogBigBuy(token.Mint, aggregated)
	w.sendNotification(ctx, bigBuyAlertMessage(token, aggregated))

	// Fire-and-forget: the polling loop never waits on a sell.
	go func(mint string) {
		if _, err := w.seller.TriggerAutoSell(ctx, mint); err != nil {
			w.logger.WithToken(mint).WithError(err).Error("Auto-sell failed")
		}
	}(token.Mint)

	// One trigger per burst: a new burst reaccumulates from zero.
	w.window.Reset(token.Mint)
}

func (w *Watcher) sendNotification(ctx context.Context, text string) {
	if err := w.notifier.Send(ctx, text); err != nil {
		w.logger.WithError(err).Warn("Notification failed")
	}
}

func candidateAlertMessage(token feed.Token) string {
	return fmt.Sprintf(
		"*PULSE ALERT*\nSymbol: %s\nMint: %s\nVolume: $%v\nLiquidity added: %v\n\nUse POST /execute with the token payload to buy.",
		token.DisplayName(), token.Mint, token.VolumeUSD, token.LiquidityAdded)
}

func bigBuyAlertMessage(token feed.Token, aggregatedUSD float64) string {
	return fmt.Sprintf(
		"*BIG BUY DETECTED* for %s\nAggregated buys in window: $%v\nTriggering AUTO-SELL for existing positions.",
		token.DisplayName(), aggregatedUSD)
}
