package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ETFDesk/internal/analysis"
	"ETFDesk/internal/calculator"
	"ETFDesk/internal/collector"
	"ETFDesk/internal/config"
	"ETFDesk/internal/dashboard"
	"ETFDesk/internal/instrument"
	"ETFDesk/internal/metrics"
	"ETFDesk/internal/model"
	"ETFDesk/internal/notifier"
	"ETFDesk/internal/recorder"
	"ETFDesk/internal/scheduler"
	"ETFDesk/internal/session"
	"ETFDesk/internal/strategy"
)

func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func newEngine(cfg *config.Config) (*strategy.Engine, error) {
	engine := strategy.NewEngine()
	for i := range engine.Sell {
		engine.Sell[i].Multiplier = cfg.Tiers.Sell[i]
	}
	for i := range engine.Buy {
		engine.Buy[i].Multiplier = cfg.Tiers.Buy[i]
	}
	return engine, engine.Validate()
}

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic("load config: " + err.Error())
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	zap.L().Info("ETFDesk starting", zap.String("config", cfgPath))

	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("config validation", zap.Error(err))
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	// Fetchers and history cache
	overrides := make(map[string]model.Market, len(cfg.Instruments))
	for code, m := range cfg.Instruments {
		overrides[code] = model.Market(m)
	}
	quotes := collector.NewSinaQuoteFetcher(cfg.Quote.BaseURL, cfg.Quote.Referer, cfg.Proxy, cfg.Quote.Timeout)
	history := collector.NewEastMoneyHistoryFetcher(cfg.History.BaseURL, cfg.Proxy, cfg.History.Timeout)

	var store collector.BarStore
	if cfg.Cache.RedisAddr != "" {
		store = collector.NewRedisStore(cfg.Cache.RedisAddr)
		zap.L().Info("history cache: redis", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		ms, err := collector.NewMemoryStore()
		if err != nil {
			zap.L().Fatal("init history cache", zap.Error(err))
		}
		store = ms
	}
	defer store.Close()
	cached := collector.NewCachedHistory(history, store, cfg.Cache.TTL)

	col := collector.NewCollector(instrument.NewResolver(overrides), quotes, cached,
		cfg.History.LookbackDays, model.AdjustMode(cfg.History.Adjust))

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			zap.L().Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	engine, err := newEngine(cfg)
	if err != nil {
		zap.L().Fatal("tier config", zap.Error(err))
	}
	bands := calculator.BandParams{Window: cfg.Bands.Window, K: cfg.Bands.K}
	svc := analysis.NewService(col, bands, engine, rec, cfg.Session.HistoryCap)
	sessions := session.NewBoundedStore(cfg.Session.IdleTTL, cfg.Session.MaxSessions)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(rec, sessions, cfg.Database.RetentionDays)
	if err := sched.RegisterAll(cfg.Schedule.PruneCron, cfg.Schedule.SweepCron); err != nil {
		zap.L().Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)
		go tn.StartPolling(ctx, notifier.NewCommands(svc, sessions).Handle)
		zap.L().Info("telegram polling started")
	}

	srv := dashboard.New(svc, sessions, reg)
	go func() {
		if err := srv.Listen(cfg.Server.Listen); err != nil {
			zap.L().Error("dashboard stopped", zap.Error(err))
			cancel()
		}
	}()

	zap.L().Info("ETFDesk is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		zap.L().Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	if err := srv.Shutdown(); err != nil {
		zap.L().Warn("dashboard shutdown", zap.Error(err))
	}
	zap.L().Info("ETFDesk stopped")
}
