package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/grouk-eth/PumpBot/internal/config"
)

// Simulator is a deterministic in-memory broadcaster used in dry-run mode and
// in tests. Transaction references are sequential and reproducible.
type Simulator struct {
	mu  sync.Mutex
	seq uint64
}

// NewSimulator creates a simulated broadcaster
func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// SubmitBuy records a simulated purchase. The credited token amount is a fixed
// nominal placeholder so simulated positions are visibly non-empty.
func (s *Simulator) SubmitBuy(_ context.Context, mint string, _ float64) (*Receipt, error) {
	return &Receipt{
		TxRef:       fmt.Sprintf("SIM-BUY-%s-%06d", shortMint(mint), s.next()),
		TokensDelta: config.PlaceholderTokenAmount,
		Simulated:   true,
	}, nil
}

// SubmitSell records a simulated liquidation
func (s *Simulator) SubmitSell(_ context.Context, mint string) (*Receipt, error) {
	return &Receipt{
		TxRef:     fmt.Sprintf("SIM-SELL-%s-%06d", shortMint(mint), s.next()),
		Simulated: true,
	}, nil
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8]
}
