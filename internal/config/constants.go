package config

// Solana network constants
const LamportsPerSol = 1_000_000_000

// Default trading limits, mirrored by setDefaults()
const (
	DefaultMaxSpendSOL        = 0.01
	DefaultMaxPositionSizeSOL = 0.05
)

// Default watcher thresholds
const (
	DefaultMinVolumeUSD       = 500.0
	DefaultBigBuyUSDThreshold = 50_000.0
	DefaultBigBuyWindowMs     = 60_000
	DefaultPollIntervalMs     = 2_000
	DefaultFeedTimeoutMs      = 6_000
)

// PlaceholderTokenAmount is the nominal token amount a simulated buy credits to
// a position. Real fills report the acquired amount through the broadcaster
// receipt instead.
const PlaceholderTokenAmount = 0.0001

// ConvertLamportsToSOL converts lamports to SOL
func ConvertLamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}

// ConvertSOLToLamports converts SOL to lamports
func ConvertSOLToLamports(sol float64) uint64 {
	return uint64(sol * LamportsPerSol)
}
