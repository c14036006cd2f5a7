package broadcast

import (
	"context"
	"time"

	"github.com/blocto/solana-go-sdk/program/sysprog"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"github.com/grouk-eth/PumpBot/internal/config"
	"github.com/grouk-eth/PumpBot/internal/wallet"
)

// SolanaBroadcaster signs and submits transactions through a Solana RPC node.
//
// The current fill path is a placeholder: a buy moves the spend amount with a
// self-transfer and a sell submits a zero-lamport self-transfer, so every
// action produces a genuine on-chain signature without routing through a DEX.
// Swap integration replaces buildBuyInstruction/buildSellInstruction; the
// engine-facing contract stays the same.
type SolanaBroadcaster struct {
	wallet         *wallet.Wallet
	logger         *logrus.Logger
	confirmTimeout time.Duration
}

// SolanaBroadcasterConfig contains broadcaster settings
type SolanaBroadcasterConfig struct {
	ConfirmTimeout time.Duration
}

// NewSolanaBroadcaster creates a broadcaster backed by the given wallet
func NewSolanaBroadcaster(w *wallet.Wallet, cfg SolanaBroadcasterConfig, logger *logrus.Logger) *SolanaBroadcaster {
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}

	return &SolanaBroadcaster{
		wallet:         w,
		logger:         logger,
		confirmTimeout: cfg.ConfirmTimeout,
	}
}

// SubmitBuy submits the placeholder purchase transaction
func (b *SolanaBroadcaster) SubmitBuy(ctx context.Context, mint string, spendSOL float64) (*Receipt, error) {
	instruction := b.buildBuyInstruction(spendSOL)

	signature, err := b.submit(ctx, instruction)
	if err != nil {
		return nil, &Error{Op: "buy", Mint: mint, Err: err}
	}

	b.logger.WithFields(logrus.Fields{
		"mint":      mint,
		"spend_sol": spendSOL,
		"signature": signature,
	}).Info("Buy transaction confirmed")

	// Token delta stays unresolved until a real swap route reports the fill.
	return &Receipt{TxRef: signature}, nil
}

// SubmitSell submits the placeholder liquidation transaction
func (b *SolanaBroadcaster) SubmitSell(ctx context.Context, mint string) (*Receipt, error) {
	instruction := b.buildSellInstruction()

	signature, err := b.submit(ctx, instruction)
	if err != nil {
		return nil, &Error{Op: "sell", Mint: mint, Err: err}
	}

	b.logger.WithFields(logrus.Fields{
		"mint":      mint,
		"signature": signature,
	}).Info("Sell transaction confirmed")

	return &Receipt{TxRef: signature}, nil
}

func (b *SolanaBroadcaster) buildBuyInstruction(spendSOL float64) types.Instruction {
	return sysprog.Transfer(sysprog.TransferParam{
		From:   b.wallet.GetPublicKey(),
		To:     b.wallet.GetPublicKey(),
		Amount: config.ConvertSOLToLamports(spendSOL),
	})
}

func (b *SolanaBroadcaster) buildSellInstruction() types.Instruction {
	return sysprog.Transfer(sysprog.TransferParam{
		From:   b.wallet.GetPublicKey(),
		To:     b.wallet.GetPublicKey(),
		Amount: 0,
	})
}

func (b *SolanaBroadcaster) submit(ctx context.Context, instruction types.Instruction) (string, error) {
	transaction, err := b.wallet.CreateTransaction(ctx, []types.Instruction{instruction})
	if err != nil {
		return "", err
	}

	return b.wallet.SendAndConfirmTransaction(ctx, transaction, b.confirmTimeout)
}
