// Package feed defines the token feed contract the watcher polls against.
package feed

import "context"

// BuyEvent is a large purchase reported by the feed alongside a token.
type BuyEvent struct {
	USD       float64
	Buyer     string
	Timestamp int64 // feed-reported unix ms, informational only
}

// Token is one feed-reported candidate token.
type Token struct {
	Mint              string
	Symbol            string
	Name              string
	VolumeUSD         float64
	LiquidityAdded    bool
	SuggestedSpendSOL float64
	BuyEvents         []BuyEvent
}

// DisplayName returns the symbol, falling back to the name and then the mint.
func (t Token) DisplayName() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	if t.Name != "" {
		return t.Name
	}
	return t.Mint
}

// Snapshot is one feed poll result.
type Snapshot struct {
	Tokens []Token
}

// Source fetches the current feed snapshot. Implementations may fail or time
// out; the watcher treats that as a skipped tick.
type Source interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}
