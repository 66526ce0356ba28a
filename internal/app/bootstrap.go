package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lending_go/internal/action"
	"lending_go/internal/cache"
	"lending_go/internal/domain"
	"lending_go/internal/engine"
	"lending_go/internal/event"
	"lending_go/internal/execution"
	"lending_go/internal/infra"
	"lending_go/internal/infra/lendingapi"
	"lending_go/internal/infra/livefeed"
	"lending_go/internal/server"
	"lending_go/internal/storage"
)

const (
	inboxSize         = 1024
	notificationLimit = 50
	seedLimit         = 20
	shutdownTimeout   = 5 * time.Second
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *infra.Metrics

	Store      *storage.Store
	Cache      cache.Store
	Reader     *cache.Reader
	Client     *lendingapi.Client
	Gateway    execution.Gateway
	Wallet     *action.ConfiguredWallet
	Inbox      *action.Inbox
	Controller *action.Controller
	Dialog     *action.Dialog
	Sequencer  *engine.Sequencer
	Feed       *livefeed.Worker

	closers []func() error
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and builds every component. Nothing is
// started until Run.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath(configPath))
	if err != nil {
		return err
	}
	if err := cfg.ApplySecrets(); err != nil {
		return err
	}
	b.Config = cfg

	// 2. Workspace (data/{mode}, logs/{mode})
	mode := strings.ToLower(cfg.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)
	for _, dir := range []string{dataDir, logDir} {
		if err := infra.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// 3. Logger
	logger, closeLog := infra.NewLogger(cfg.Logging, logDir)
	slog.SetDefault(logger)
	b.Logger = logger
	b.closers = append(b.closers, closeLog)
	logger.Info("🚀 Bootstrapping lending dashboard...", slog.String("mode", cfg.Mode))

	// 4. Singleton Instance Lock
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() error { unlock(); return nil })

	// 5. Metrics
	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	b.Metrics = infra.NewMetrics(b.Registry)

	// 6. Store (WAL-mode sqlite)
	if cfg.Storage.Enabled {
		dbPath := infra.WorkspacePath(dataDir, cfg.Storage.File)
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return err
		}
		b.Store = store
		b.closers = append(b.closers, store.Close)
		logger.Info("✅ Store initialized (WAL-mode)", slog.String("path", dbPath))
	}

	// 7. Query cache
	if err := b.initCache(ctx); err != nil {
		return err
	}

	// 8. Lending API client for reads
	ua := infra.UserAgent(cfg.App.Version)
	b.Client = lendingapi.New(lendingapi.ConfigFrom(cfg.API, readBaseURL(cfg), ua), b.Metrics, logger)
	b.closers = append(b.closers, b.Client.Close)

	b.Reader = cache.NewReader(b.Cache, b.Client, cache.StaleTimes{
		Markets:   time.Duration(cfg.Cache.MarketsTTLMS) * time.Millisecond,
		Stats:     time.Duration(cfg.Cache.StatsTTLMS) * time.Millisecond,
		Positions: time.Duration(cfg.Cache.PositionTTLMS) * time.Millisecond,
	}, logger)

	// 9. Execution gateway by mode
	gw, err := execution.NewFactory(cfg, b.Reader, b.Metrics, logger).CreateGateway()
	if err != nil {
		return err
	}
	b.Gateway = gw
	b.closers = append(b.closers, gw.Close)

	// 10. Action controller
	b.Wallet = action.NewConfiguredWallet(cfg.Wallet, cfg.Network)
	b.Inbox = action.NewInbox(notificationLimit, action.NewLogNotifier(logger))
	b.Dialog = &action.Dialog{}
	deps := action.Deps{
		Wallet:   b.Wallet,
		Markets:  b.Reader,
		Gateway:  b.Gateway,
		Cache:    b.Reader,
		Notifier: b.Inbox,
		Metrics:  b.Metrics,
		Logger:   logger,
	}
	if b.Store != nil {
		deps.Journal = b.Store
	}
	b.Controller = action.NewController(deps)
	if !b.Wallet.Connected() {
		logger.Warn("⚠️ No wallet configured; actions will be rejected")
	}

	// 11. Live feed
	b.Sequencer = engine.NewSequencer(inboxSize, b.Store, logger)
	if err := b.Sequencer.Recover(ctx); err != nil {
		return fmt.Errorf("live state recovery failed: %w", err)
	}
	if cfg.API.WSURL != "" {
		b.Feed = livefeed.NewWorker(livefeed.Config{
			URL:       cfg.API.WSURL,
			Token:     cfg.API.Token,
			UserAgent: ua,
		}, b.Sequencer.Inbox(), b.Metrics, logger)
	}

	return nil
}

func (b *Bootstrap) initCache(ctx context.Context) error {
	cc := b.Config.Cache
	switch cc.Backend {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cc.RedisURL, cc.RedisPassword, cc.Namespace)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.Cache = rs
		b.Logger.Info("✅ Redis query cache connected", slog.String("namespace", cc.Namespace))
	default:
		b.Cache = cache.NewMemoryStore()
	}
	b.closers = append(b.closers, b.Cache.Close)
	return nil
}

// readBaseURL points reads at the demo API in DEMO mode.
func readBaseURL(cfg *infra.Config) string {
	if execution.Mode(cfg.Mode) == execution.ModeDemo {
		return cfg.API.DemoBaseURL
	}
	return cfg.API.BaseURL
}

// Handler builds the HTTP view surface.
func (b *Bootstrap) Handler() http.Handler {
	deps := server.Deps{
		Reader:     b.Reader,
		Risk:       b.Client,
		Live:       b.Sequencer,
		Controller: b.Controller,
		Dialog:     b.Dialog,
		Wallet:     b.Wallet,
		Inbox:      b.Inbox,
		Gatherer:   b.Registry,
		Logger:     b.Logger,
	}
	if b.Store != nil {
		deps.Actions = b.Store
	}
	return server.NewRouter(deps)
}

// Run starts the sequencer, the feed and the HTTP server and blocks until
// ctx is cancelled or the server fails.
func (b *Bootstrap) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	seqDone := make(chan struct{})
	go func() {
		b.Sequencer.Run(ctx)
		close(seqDone)
	}()
	b.Logger.Info("✅ Sequencer started")
	updates, unsubscribe := b.Sequencer.Subscribe(8)
	go b.watchRisk(updates, unsubscribe)
	b.seedLive(ctx)

	if b.Feed != nil {
		b.Feed.Start(ctx)
		b.Logger.Info("✅ Live feed started", slog.String("url", b.Config.API.WSURL))
	} else {
		b.Logger.Warn("⚠️ api.ws_url not set; live panels stay empty")
	}

	if markets, err := b.Reader.Markets(ctx); err != nil {
		b.Logger.Warn("Initial market load failed", slog.Any("error", err))
	} else {
		b.Logger.Info("✅ Markets loaded", slog.Int("count", len(markets)))
	}

	srv := server.NewHTTPServer(b.Config.Server.Listen, b.Handler())
	srvErr := make(chan error, 1)
	go func() {
		b.Logger.Info("✨ View server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-srvErr:
		if ok {
			runErr = fmt.Errorf("view server: %w", err)
		}
	}

	b.Logger.Info("👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		b.Logger.Error("server shutdown error", slog.Any("error", err))
	}
	if b.Feed != nil {
		b.Feed.Stop()
	}
	cancel()
	<-seqDone
	return runErr
}

// seedLive fills an empty live snapshot from the REST history endpoints so
// the panels are populated before the first push arrives.
func (b *Bootstrap) seedLive(ctx context.Context) {
	snap := b.Sequencer.Snapshot()
	if snap.Stats != nil || len(snap.RecentTransactions) > 0 || len(snap.RecentLiquidations) > 0 {
		return
	}

	var events []event.Event
	if stats, err := b.Reader.Stats(ctx); err != nil {
		b.Logger.Warn("Live seed: stats unavailable", slog.Any("error", err))
	} else {
		events = append(events, &event.MarketsEvent{Stats: *stats})
	}
	if txs, err := b.Client.RecentTransactions(ctx, seedLimit); err != nil {
		b.Logger.Warn("Live seed: transactions unavailable", slog.Any("error", err))
	} else {
		events = append(events, &event.TransactionsEvent{Transactions: txs})
	}
	if liqs, err := b.Client.RecentLiquidations(ctx, seedLimit); err != nil {
		b.Logger.Warn("Live seed: liquidations unavailable", slog.Any("error", err))
	} else {
		events = append(events, &event.LiquidationsEvent{Liquidations: liqs})
	}

	for _, ev := range events {
		select {
		case b.Sequencer.Inbox() <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// watchRisk logs whenever the pushed risk counts change. It returns when
// the sequencer closes its subscribers.
func (b *Bootstrap) watchRisk(updates <-chan domain.LiveSnapshot, unsubscribe func()) {
	defer unsubscribe()

	var last domain.RiskCounts
	for snap := range updates {
		if snap.RiskCounts == last {
			continue
		}
		last = snap.RiskCounts
		level := slog.LevelInfo
		if last.LiquidatableCount > 0 {
			level = slog.LevelWarn
		}
		b.Logger.Log(context.Background(), level, "🚨 Risk monitor update",
			slog.Int("at_risk", last.AtRiskCount),
			slog.Int("liquidatable", last.LiquidatableCount))
	}
}

// Close releases resources in reverse order of creation.
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// PrintBanner writes the startup banner to stdout.
func (b *Bootstrap) PrintBanner() {
	infra.PrintBanner(os.Stdout, b.Config)
}
