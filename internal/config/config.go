package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network string `mapstructure:"network" yaml:"network"`
	RPCUrl  string `mapstructure:"rpc_url" yaml:"rpc_url"`

	// Wallet settings. Exactly one key source is required outside dry-run mode.
	PrivateKey     string `mapstructure:"private_key" yaml:"private_key"`
	PrivateKeyPath string `mapstructure:"private_key_path" yaml:"private_key_path"`
	Mnemonic       string `mapstructure:"mnemonic" yaml:"mnemonic"`

	// Feed settings
	Feed FeedConfig `mapstructure:"feed" yaml:"feed"`

	// Watcher settings
	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`

	// Trading settings
	Trading TradingConfig `mapstructure:"trading" yaml:"trading"`

	// Telegram settings
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`

	// HTTP control server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Daily position summary settings
	Summary SummaryConfig `mapstructure:"summary" yaml:"summary"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// FeedConfig contains token feed polling settings
type FeedConfig struct {
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	TimeoutMs      int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// PollInterval returns the poll interval as a duration
func (f FeedConfig) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalMs) * time.Millisecond
}

// Timeout returns the feed request timeout as a duration
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

// WatcherConfig contains candidate filtering and big-buy aggregation settings
type WatcherConfig struct {
	MinVolumeUSD       float64 `mapstructure:"min_volume_usd" yaml:"min_volume_usd"`
	BigBuyUSDThreshold float64 `mapstructure:"big_buy_usd_threshold" yaml:"big_buy_usd_threshold"`
	BigBuyWindowMs     int64   `mapstructure:"big_buy_window_ms" yaml:"big_buy_window_ms"`
}

// BigBuyWindow returns the trailing aggregation window as a duration
func (w WatcherConfig) BigBuyWindow() time.Duration {
	return time.Duration(w.BigBuyWindowMs) * time.Millisecond
}

// TradingConfig contains trading-related settings
type TradingConfig struct {
	MaxSpendSOL        float64 `mapstructure:"max_spend_sol" yaml:"max_spend_sol"`
	MaxPositionSizeSOL float64 `mapstructure:"max_position_size_sol" yaml:"max_position_size_sol"`
	DryRun             bool    `mapstructure:"dry_run" yaml:"dry_run"`
	ConfirmTimeoutSec  int     `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
}

// TelegramConfig contains notification channel settings
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// ServerConfig contains the HTTP control surface settings
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// SummaryConfig contains the scheduled position summary settings
type SummaryConfig struct {
	// Schedule is a cron expression; empty disables the summary.
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	TradeLogDir string `mapstructure:"trade_log_dir" yaml:"trade_log_dir"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string, envPath string) (*Config, error) {
	// Load .env first so viper's env bindings can see its values.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	} else {
		// Best effort for the default locations.
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pumpbot/")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PUMPBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "mainnet")
	v.SetDefault("rpc_url", "")

	v.SetDefault("feed.endpoint", "")
	v.SetDefault("feed.poll_interval_ms", DefaultPollIntervalMs)
	v.SetDefault("feed.timeout_ms", DefaultFeedTimeoutMs)

	v.SetDefault("watcher.min_volume_usd", DefaultMinVolumeUSD)
	v.SetDefault("watcher.big_buy_usd_threshold", DefaultBigBuyUSDThreshold)
	v.SetDefault("watcher.big_buy_window_ms", DefaultBigBuyWindowMs)

	v.SetDefault("trading.max_spend_sol", DefaultMaxSpendSOL)
	v.SetDefault("trading.max_position_size_sol", DefaultMaxPositionSizeSOL)
	v.SetDefault("trading.dry_run", true)
	v.SetDefault("trading.confirm_timeout_sec", 30)

	v.SetDefault("server.port", 3000)
	v.SetDefault("summary.schedule", "0 8 * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.trade_log_dir", "trades")
}

// bindEnvVariables manually binds environment variables that viper might miss
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("network", "PUMPBOT_NETWORK")
	v.BindEnv("rpc_url", "PUMPBOT_RPC_URL")
	v.BindEnv("private_key", "PUMPBOT_PRIVATE_KEY")
	v.BindEnv("private_key_path", "PUMPBOT_PRIVATE_KEY_PATH")
	v.BindEnv("mnemonic", "PUMPBOT_MNEMONIC")

	v.BindEnv("feed.endpoint", "PUMPBOT_FEED_ENDPOINT")
	v.BindEnv("feed.poll_interval_ms", "PUMPBOT_FEED_POLL_INTERVAL_MS")
	v.BindEnv("feed.timeout_ms", "PUMPBOT_FEED_TIMEOUT_MS")

	v.BindEnv("watcher.min_volume_usd", "PUMPBOT_WATCHER_MIN_VOLUME_USD")
	v.BindEnv("watcher.big_buy_usd_threshold", "PUMPBOT_WATCHER_BIG_BUY_USD_THRESHOLD")
	v.BindEnv("watcher.big_buy_window_ms", "PUMPBOT_WATCHER_BIG_BUY_WINDOW_MS")

	v.BindEnv("trading.max_spend_sol", "PUMPBOT_TRADING_MAX_SPEND_SOL")
	v.BindEnv("trading.max_position_size_sol", "PUMPBOT_TRADING_MAX_POSITION_SIZE_SOL")
	v.BindEnv("trading.dry_run", "PUMPBOT_TRADING_DRY_RUN")
	v.BindEnv("trading.confirm_timeout_sec", "PUMPBOT_TRADING_CONFIRM_TIMEOUT_SEC")

	v.BindEnv("telegram.bot_token", "PUMPBOT_TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "PUMPBOT_TELEGRAM_CHAT_ID")

	v.BindEnv("server.port", "PUMPBOT_SERVER_PORT")
	v.BindEnv("summary.schedule", "PUMPBOT_SUMMARY_SCHEDULE")

	v.BindEnv("logging.level", "PUMPBOT_LOGGING_LEVEL")
	v.BindEnv("logging.format", "PUMPBOT_LOGGING_FORMAT")
	v.BindEnv("logging.trade_log_dir", "PUMPBOT_LOGGING_TRADE_LOG_DIR")
}

func validateConfig(config *Config) error {
	if config.Feed.PollIntervalMs <= 0 {
		return fmt.Errorf("feed.poll_interval_ms must be positive, got %d", config.Feed.PollIntervalMs)
	}
	if config.Feed.TimeoutMs <= 0 {
		return fmt.Errorf("feed.timeout_ms must be positive, got %d", config.Feed.TimeoutMs)
	}
	if config.Watcher.BigBuyUSDThreshold <= 0 {
		return fmt.Errorf("watcher.big_buy_usd_threshold must be positive, got %v", config.Watcher.BigBuyUSDThreshold)
	}
	if config.Watcher.BigBuyWindowMs <= 0 {
		return fmt.Errorf("watcher.big_buy_window_ms must be positive, got %d", config.Watcher.BigBuyWindowMs)
	}
	if config.Trading.MaxSpendSOL <= 0 {
		return fmt.Errorf("trading.max_spend_sol must be positive, got %v", config.Trading.MaxSpendSOL)
	}
	if config.Trading.MaxPositionSizeSOL < config.Trading.MaxSpendSOL {
		return fmt.Errorf("trading.max_position_size_sol (%v) must be at least trading.max_spend_sol (%v)",
			config.Trading.MaxPositionSizeSOL, config.Trading.MaxSpendSOL)
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", config.Server.Port)
	}

	if !config.Trading.DryRun {
		if config.RPCUrl == "" {
			return fmt.Errorf("rpc_url is required when dry_run is disabled")
		}
		if config.PrivateKey == "" && config.PrivateKeyPath == "" && config.Mnemonic == "" {
			return fmt.Errorf("a wallet key source (private_key, private_key_path or mnemonic) is required when dry_run is disabled")
		}
	}

	return nil
}
