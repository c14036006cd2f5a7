package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grouk-eth/PumpBot/internal/engine"
	"github.com/grouk-eth/PumpBot/internal/feed"
	"github.com/grouk-eth/PumpBot/internal/logger"
)

type fakeFeed struct {
	mu        sync.Mutex
	snapshots []*feed.Snapshot
	err       error
}

func (f *fakeFeed) FetchSnapshot(context.Context) (*feed.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.snapshots) == 0 {
		return &feed.Snapshot{}, nil
	}
	snapshot := f.snapshots[0]
	if len(f.snapshots) > 1 {
		f.snapshots = f.snapshots[1:]
	}
	return snapshot, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) countWithPrefix(prefix string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.messages {
		if strings.HasPrefix(msg, prefix) {
			count++
		}
	}
	return count
}

type fakeSeller struct {
	triggered chan string
}

func newFakeSeller() *fakeSeller {
	return &fakeSeller{triggered: make(chan string, 8)}
}

func (s *fakeSeller) TriggerAutoSell(_ context.Context, mint string) (*engine.TradeResult, error) {
	s.triggered <- mint
	return &engine.TradeResult{Status: engine.StatusNoPosition, Mint: mint}, nil
}

func newTestWatcher(t *testing.T, cfg Config, source feed.Source, notifier *fakeNotifier, seller AutoSeller) *Watcher {
	t.Helper()
	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return New(cfg, source, notifier, seller, log)
}

func defaultConfig() Config {
	return Config{
		PollInterval:       10 * time.Millisecond,
		MinVolumeUSD:       500,
		BigBuyUSDThreshold: 50000,
		BigBuyWindow:       60 * time.Second,
	}
}

func snipableToken(mint string) feed.Token {
	return feed.Token{Mint: mint, Symbol: mint[:3], VolumeUSD: 1200, LiquidityAdded: true}
}

func TestSnipable(t *testing.T) {
	w := newTestWatcher(t, defaultConfig(), &fakeFeed{}, &fakeNotifier{}, newFakeSeller())

	assert.True(t, w.Snipable(feed.Token{LiquidityAdded: true, VolumeUSD: 501}))
	assert.False(t, w.Snipable(feed.Token{LiquidityAdded: true, VolumeUSD: 500}), "threshold is strict")
	assert.False(t, w.Snipable(feed.Token{LiquidityAdded: false, VolumeUSD: 10000}))
}

func TestCandidateAlert_SuppressesConsecutiveDuplicates(t *testing.T) {
	notifier := &fakeNotifier{}
	source := &fakeFeed{snapshots: []*feed.Snapshot{
		{Tokens: []feed.Token{snipableToken("AAAmint")}},
	}}
	w := newTestWatcher(t, defaultConfig(), source, notifier, newFakeSeller())
	ctx := context.Background()

	// Same asset snipable on 5 consecutive ticks produces exactly 1 alert.
	for i := 0; i < 5; i++ {
		w.PollOnce(ctx)
	}
	assert.Equal(t, 1, notifier.countWithPrefix("*PULSE ALERT*"))

	// A different asset on the next tick produces a 2nd alert.
	source.mu.Lock()
	source.snapshots = []*feed.Snapshot{{Tokens: []feed.Token{snipableToken("BBBmint")}}}
	source.mu.Unlock()
	w.PollOnce(ctx)
	assert.Equal(t, 2, notifier.countWithPrefix("*PULSE ALERT*"))

	// The first asset again: it alerts once more since a different asset
	// interrupted the sequence.
	source.mu.Lock()
	source.snapshots = []*feed.Snapshot{{Tokens: []feed.Token{snipableToken("AAAmint")}}}
	source.mu.Unlock()
	w.PollOnce(ctx)
	assert.Equal(t, 3, notifier.countWithPrefix("*PULSE ALERT*"))
}

func TestBigBuy_TriggersExactlyOncePerBurst(t *testing.T) {
	notifier := &fakeNotifier{}
	seller := newFakeSeller()
	token := feed.Token{
		Mint:   "WhaleMint",
		Symbol: "WHL",
		BuyEvents: []feed.BuyEvent{
			{USD: 20000}, {USD: 20000}, {USD: 20000},
		},
	}
	source := &fakeFeed{snapshots: []*feed.Snapshot{{Tokens: []feed.Token{token}}}}
	w := newTestWatcher(t, defaultConfig(), source, notifier, seller)
	ctx := context.Background()

	w.PollOnce(ctx)

	assert.Equal(t, 1, notifier.countWithPrefix("*BIG BUY DETECTED*"))
	select {
	case mint := <-seller.triggered:
		assert.Equal(t, "WhaleMint", mint)
	case <-time.After(time.Second):
		t.Fatal("auto-sell was not triggered")
	}

	// The window was cleared: a small follow-up event does not re-trigger.
	source.mu.Lock()
	source.snapshots = []*feed.Snapshot{{Tokens: []feed.Token{{
		Mint:      "WhaleMint",
		Symbol:    "WHL",
		BuyEvents: []feed.BuyEvent{{USD: 1000}},
	}}}}
	source.mu.Unlock()
	w.PollOnce(ctx)

	assert.Equal(t, 1, notifier.countWithPrefix("*BIG BUY DETECTED*"))
	select {
	case mint := <-seller.triggered:
		t.Fatalf("unexpected auto-sell trigger for %s", mint)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBigBuy_BelowThresholdDoesNotTrigger(t *testing.T) {
	notifier := &fakeNotifier{}
	seller := newFakeSeller()
	source := &fakeFeed{snapshots: []*feed.Snapshot{{Tokens: []feed.Token{{
		Mint:      "SmallMint",
		BuyEvents: []feed.BuyEvent{{USD: 20000}, {USD: 20000}},
	}}}}}
	w := newTestWatcher(t, defaultConfig(), source, notifier, seller)

	w.PollOnce(context.Background())

	assert.Equal(t, 0, notifier.countWithPrefix("*BIG BUY DETECTED*"))
	assert.Empty(t, seller.triggered)
}

func TestBigBuy_OldEventsAgeOut(t *testing.T) {
	notifier := &fakeNotifier{}
	seller := newFakeSeller()
	source := &fakeFeed{snapshots: []*feed.Snapshot{{Tokens: []feed.Token{{
		Mint:      "AgedMint",
		BuyEvents: []feed.BuyEvent{{USD: 30000}},
	}}}}}
	w := newTestWatcher(t, defaultConfig(), source, notifier, seller)

	base := time.Now()
	w.now = func() time.Time { return base }
	w.PollOnce(context.Background())

	// 61s later another 30k arrives; the first event is out of the window so
	// the 50k threshold is not met.
	w.now = func() time.Time { return base.Add(61 * time.Second) }
	w.PollOnce(context.Background())

	assert.Equal(t, 0, notifier.countWithPrefix("*BIG BUY DETECTED*"))
	assert.Empty(t, seller.triggered)
}

func TestPollOnce_FeedErrorIsSoft(t *testing.T) {
	notifier := &fakeNotifier{}
	source := &fakeFeed{err: errors.New("connection refused")}
	w := newTestWatcher(t, defaultConfig(), source, notifier, newFakeSeller())

	w.PollOnce(context.Background())

	assert.Empty(t, notifier.messages, "feed failures never raise alerts")
}

// blockingFeed holds every fetch until released, counting attempts.
type blockingFeed struct {
	calls   int32
	release chan struct{}
}

func (f *blockingFeed) FetchSnapshot(ctx context.Context) (*feed.Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	select {
	case <-f.release:
	case <-ctx.Done():
	}
	return &feed.Snapshot{}, nil
}

func TestStart_SkipsTicksWhilePollInFlight(t *testing.T) {
	source := &blockingFeed{release: make(chan struct{})}
	w := newTestWatcher(t, defaultConfig(), source, &fakeNotifier{}, newFakeSeller())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Many poll intervals elapse while the first fetch is stuck; the ticks in
	// between must be skipped, not queued behind it.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))

	close(source.release)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	source := &fakeFeed{}
	w := newTestWatcher(t, defaultConfig(), source, &fakeNotifier{}, newFakeSeller())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
