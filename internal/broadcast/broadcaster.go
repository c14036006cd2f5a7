// Package broadcast submits buy and sell actions to an execution venue and
// reports a transaction reference back to the engine. The engine never learns
// how a broadcaster fills an order, only whether it did.
package broadcast

import "context"

// Receipt is what a broadcaster reports back for a submitted action.
type Receipt struct {
	// TxRef is an opaque reference to the executed transaction.
	TxRef string

	// TokensDelta is the token amount acquired by a buy. Implementations that
	// cannot resolve the fill amount report 0; the engine keeps the position's
	// held amount unresolved rather than fabricating a value.
	TokensDelta float64

	// Simulated marks receipts produced without touching a real venue.
	Simulated bool
}

// Broadcaster signs and submits trade actions.
type Broadcaster interface {
	// SubmitBuy spends spendSOL of funding currency into the given mint.
	SubmitBuy(ctx context.Context, mint string, spendSOL float64) (*Receipt, error)

	// SubmitSell liquidates the full position for the given mint.
	SubmitSell(ctx context.Context, mint string) (*Receipt, error)
}

// Error wraps a transport or signing failure from a broadcaster.
type Error struct {
	Op   string // "buy" or "sell"
	Mint string
	Err  error
}

func (e *Error) Error() string {
	return "broadcast " + e.Op + " for " + e.Mint + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
