package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/grouk-eth/PumpBot/internal/config"
	"github.com/grouk-eth/PumpBot/internal/solana"
)

// Wallet represents a Solana wallet
type Wallet struct {
	account   types.Account
	rpcClient *solana.Client
	logger    *logrus.Logger
}

// WalletConfig selects one key source. Priority: PrivateKey, PrivateKeyPath,
// Mnemonic.
type WalletConfig struct {
	PrivateKey     string // base58-encoded 64-byte secret key
	PrivateKeyPath string // JSON byte-array keyfile
	Mnemonic       string // BIP39 phrase
	Network        string
}

// NewWallet creates a new wallet instance from the configured key source
func NewWallet(cfg WalletConfig, rpcClient *solana.Client, logger *logrus.Logger) (*Wallet, error) {
	account, err := loadAccount(cfg)
	if err != nil {
		return nil, err
	}

	wallet := &Wallet{
		account:   account,
		rpcClient: rpcClient,
		logger:    logger,
	}

	logger.WithFields(logrus.Fields{
		"public_key": wallet.GetPublicKeyString(),
		"network":    cfg.Network,
	}).Info("Wallet initialized")

	return wallet, nil
}

func loadAccount(cfg WalletConfig) (types.Account, error) {
	switch {
	case cfg.PrivateKey != "":
		secret, err := base58.Decode(cfg.PrivateKey)
		if err != nil {
			return types.Account{}, fmt.Errorf("invalid base58 private key: %w", err)
		}
		if len(secret) != ed25519.PrivateKeySize {
			return types.Account{}, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
		}
		account, err := types.AccountFromBytes(secret)
		if err != nil {
			return types.Account{}, fmt.Errorf("invalid private key: %w", err)
		}
		return account, nil

	case cfg.PrivateKeyPath != "":
		raw, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return types.Account{}, fmt.Errorf("read keyfile: %w", err)
		}
		var secret []byte
		if err := json.Unmarshal(raw, &secret); err != nil {
			return types.Account{}, fmt.Errorf("parse keyfile %s: %w", cfg.PrivateKeyPath, err)
		}
		account, err := types.AccountFromBytes(secret)
		if err != nil {
			return types.Account{}, fmt.Errorf("invalid keyfile secret: %w", err)
		}
		return account, nil

	case cfg.Mnemonic != "":
		// Solana keygen derivation: ed25519 keypair from the first 32 bytes of
		// the BIP39 seed.
		seed := bip39.NewSeed(cfg.Mnemonic, "")
		privateKey := ed25519.NewKeyFromSeed(seed[:32])
		account, err := types.AccountFromBytes(privateKey)
		if err != nil {
			return types.Account{}, fmt.Errorf("derive account from mnemonic: %w", err)
		}
		return account, nil

	default:
		return types.Account{}, fmt.Errorf("no wallet key source configured")
	}
}

// GetPublicKey returns the wallet's public key
func (w *Wallet) GetPublicKey() common.PublicKey {
	return w.account.PublicKey
}

// GetPublicKeyString returns the wallet's public key as base58 string
func (w *Wallet) GetPublicKeyString() string {
	return w.account.PublicKey.String()
}

// GetBalanceSOL returns the wallet's SOL balance as float64
func (w *Wallet) GetBalanceSOL(ctx context.Context) (float64, error) {
	balance, err := w.rpcClient.GetBalance(ctx, w.GetPublicKeyString())
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return config.ConvertLamportsToSOL(balance), nil
}

// CreateTransaction creates a signed transaction with a recent blockhash
func (w *Wallet) CreateTransaction(ctx context.Context, instructions []types.Instruction) (types.Transaction, error) {
	blockhash, err := w.rpcClient.GetLatestBlockhash(ctx)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	transaction, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{w.account},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        w.account.PublicKey,
			RecentBlockhash: blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"blockhash":    blockhash,
		"instructions": len(instructions),
	}).Debug("Created transaction")

	return transaction, nil
}

// SendTransaction sends a transaction to the network
func (w *Wallet) SendTransaction(ctx context.Context, transaction types.Transaction) (string, error) {
	txBytes, err := transaction.Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	encodedTx := base64.StdEncoding.EncodeToString(txBytes)

	signature, err := w.rpcClient.SendTransaction(ctx, encodedTx)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	w.logger.WithField("signature", signature).Info("Transaction sent")
	return signature, nil
}

// SendAndConfirmTransaction sends a transaction and waits for confirmation
func (w *Wallet) SendAndConfirmTransaction(ctx context.Context, transaction types.Transaction, confirmTimeout time.Duration) (string, error) {
	signature, err := w.SendTransaction(ctx, transaction)
	if err != nil {
		return "", err
	}

	confirmCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	if err := w.WaitForConfirmation(confirmCtx, signature); err != nil {
		return signature, fmt.Errorf("transaction sent but confirmation failed: %w", err)
	}

	w.logger.WithField("signature", signature).Info("Transaction confirmed")
	return signature, nil
}

// WaitForConfirmation polls until the transaction is confirmed or the context
// expires
func (w *Wallet) WaitForConfirmation(ctx context.Context, signature string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			confirmed, err := w.rpcClient.ConfirmTransaction(ctx, signature)
			if err != nil {
				return err
			}
			if confirmed {
				return nil
			}
			w.logger.WithField("signature", signature).Debug("Waiting for confirmation...")
		}
	}
}
