package watcher

import (
	"sync"
	"time"
)

type buyRecord struct {
	ts  time.Time
	usd float64
}

// BuyWindow aggregates observed buy events per mint over a trailing time
// window. It is a sliding window, not a fixed-size ring: records age out by
// timestamp only.
type BuyWindow struct {
	length time.Duration

	mu     sync.Mutex
	events map[string][]buyRecord
}

// NewBuyWindow creates a window of the given trailing length
func NewBuyWindow(length time.Duration) *BuyWindow {
	return &BuyWindow{
		length: length,
		events: make(map[string][]buyRecord),
	}
}

// Record appends a buy observation for a mint at the given time and drops
// records that have aged out of the window.
func (w *BuyWindow) Record(mint string, usd float64, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := append(w.events[mint], buyRecord{ts: now, usd: usd})
	w.events[mint] = w.purge(records, now)
}

// Total returns the aggregated USD sum of the mint's current window.
func (w *BuyWindow) Total(mint string, now time.Time) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := w.purge(w.events[mint], now)
	if len(records) == 0 {
		// Quiet mints do not keep map entries alive.
		delete(w.events, mint)
		return 0
	}
	w.events[mint] = records

	var sum float64
	for _, r := range records {
		sum += r.usd
	}
	return sum
}

// Reset clears the mint's window entirely. Called after a big-buy trigger so
// one accumulation burst fires at most once.
func (w *BuyWindow) Reset(mint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.events, mint)
}

func (w *BuyWindow) purge(records []buyRecord, now time.Time) []buyRecord {
	cutoff := now.Add(-w.length)
	kept := records[:0]
	for _, r := range records {
		if !r.ts.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}
