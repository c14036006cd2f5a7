package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/grouk-eth/PumpBot/internal/api"
	"github.com/grouk-eth/PumpBot/internal/broadcast"
	"github.com/grouk-eth/PumpBot/internal/config"
	"github.com/grouk-eth/PumpBot/internal/engine"
	"github.com/grouk-eth/PumpBot/internal/feed"
	"github.com/grouk-eth/PumpBot/internal/logger"
	"github.com/grouk-eth/PumpBot/internal/notify"
	"github.com/grouk-eth/PumpBot/internal/solana"
	"github.com/grouk-eth/PumpBot/internal/watcher"
	"github.com/grouk-eth/PumpBot/internal/wallet"
)

const Version = "0.2.0"

// CLI flags
var (
	configFile = flag.String("config", "", "Path to config file")
	envFile    = flag.String("env", "", "Path to .env file")
	dryRun     = flag.Bool("dry-run", false, "Force dry-run mode (no real transactions)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
)

// App wires the watcher, engine and control surfaces together
type App struct {
	config   *config.Config
	logger   *logger.Logger
	notifier notify.Notifier
	engine   *engine.Engine
	watcher  *watcher.Watcher
	server   *api.Server
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyCliOverrides(cfg)

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		TradeLogDir: cfg.Logging.TradeLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("Application failed")
	}
}

func applyCliOverrides(cfg *config.Config) {
	if *dryRun {
		cfg.Trading.DryRun = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
}

// NewApp builds the component graph from configuration
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	tradeLogger, err := logger.NewTradeLogger(cfg.Logging.TradeLogDir, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create trade logger: %w", err)
	}

	notifier := notify.NewTelegramNotifier(cfg.Telegram, log.Logger)

	broadcaster, err := createBroadcaster(cfg, log)
	if err != nil {
		cancel()
		return nil, err
	}

	eng := engine.New(engine.Config{
		MaxSpendSOL:        cfg.Trading.MaxSpendSOL,
		MaxPositionSizeSOL: cfg.Trading.MaxPositionSizeSOL,
	}, broadcaster, notifier, log, tradeLogger)

	feedClient := feed.NewHTTPClient(feed.ClientConfig{
		Endpoint: cfg.Feed.Endpoint,
		Timeout:  cfg.Feed.Timeout(),
	}, log.Logger)

	watch := watcher.New(watcher.Config{
		PollInterval:       cfg.Feed.PollInterval(),
		MinVolumeUSD:       cfg.Watcher.MinVolumeUSD,
		BigBuyUSDThreshold: cfg.Watcher.BigBuyUSDThreshold,
		BigBuyWindow:       cfg.Watcher.BigBuyWindow(),
	}, feedClient, notifier, eng, log)

	server := api.NewServer(cfg.Server.Port, eng, notifier, log)

	app := &App{
		config:   cfg,
		logger:   log,
		notifier: notifier,
		engine:   eng,
		watcher:  watch,
		server:   server,
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.Summary.Schedule != "" {
		app.cron = cron.New(cron.WithLocation(time.UTC))
		if _, err := app.cron.AddFunc(cfg.Summary.Schedule, app.sendPositionSummary); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid summary schedule %q: %w", cfg.Summary.Schedule, err)
		}
	}

	return app, nil
}

// createBroadcaster selects the execution path: a deterministic simulator in
// dry-run mode, the Solana placeholder path otherwise.
func createBroadcaster(cfg *config.Config, log *logger.Logger) (broadcast.Broadcaster, error) {
	if cfg.Trading.DryRun {
		log.Info("🧪 Dry-run mode: trades are simulated")
		return broadcast.NewSimulator(), nil
	}

	rpcClient := solana.NewClient(solana.ClientConfig{
		Endpoint: cfg.RPCUrl,
		Timeout:  30 * time.Second,
	}, log.Logger)

	walletInstance, err := wallet.NewWallet(wallet.WalletConfig{
		PrivateKey:     cfg.PrivateKey,
		PrivateKeyPath: cfg.PrivateKeyPath,
		Mnemonic:       cfg.Mnemonic,
		Network:        cfg.Network,
	}, rpcClient, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return broadcast.NewSolanaBroadcaster(walletInstance, broadcast.SolanaBroadcasterConfig{
		ConfirmTimeout: time.Duration(cfg.Trading.ConfirmTimeoutSec) * time.Second,
	}, log.Logger), nil
}

// Start runs all components until a shutdown signal arrives
func (a *App) Start() error {
	a.logger.LogStartup(Version, a.config.Network, a.config.Feed.Endpoint)

	if a.config.Feed.Endpoint == "" {
		a.logger.Warn("⚠️ No feed endpoint configured, watcher will log errors every tick")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.server.Start()
	}()

	go a.watcher.Start(a.ctx)

	if a.cron != nil {
		a.cron.Start()
		a.logger.WithField("schedule", a.config.Summary.Schedule).Info("🗓️ Position summary scheduled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("🎯 Bot started - watching the feed!")

	select {
	case sig := <-sigChan:
		a.logger.Info(fmt.Sprintf("🛑 Received signal: %v", sig))
		a.shutdown()
		return nil
	case err := <-errChan:
		a.shutdown()
		return err
	}
}

func (a *App) sendPositionSummary() {
	summary := a.engine.Summary()
	if err := a.notifier.Send(a.ctx, summary); err != nil {
		a.logger.WithError(err).Warn("Position summary notification failed")
	}
}

func (a *App) shutdown() {
	a.logger.LogShutdown("signal")
	a.cancel()

	if a.cron != nil {
		a.cron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Control server shutdown failed")
	}

	a.logger.Info("✅ Shutdown complete")
}
