package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/valuebot/config"
	"github.com/alejandrodnm/valuebot/internal/adapters/notify"
	"github.com/alejandrodnm/valuebot/internal/adapters/oddsapi"
	"github.com/alejandrodnm/valuebot/internal/adapters/storage"
	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/alejandrodnm/valuebot/internal/ledger"
	"github.com/alejandrodnm/valuebot/internal/ports"
	"github.com/alejandrodnm/valuebot/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print alerts as a table on the console")
	history := flag.Duration("history", 0, "print cycles from the last duration (e.g. 24h) and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *table {
		cfg.Notify.Table = true
	}
	setupLogger(cfg.Log)

	if *history > 0 {
		if err := printHistory(context.Background(), os.Stdout, cfg.Storage, *history); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	slog.Info("valuebot starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"sports", len(cfg.Scanner.Sports),
		"storage", cfg.Storage.Driver,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ledgerStore, cycleStore := openStorage(ctx, cfg.Storage)
	if ledgerStore != nil {
		defer ledgerStore.Close()
	}

	dispatcher := buildDispatcher(cfg)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			slog.Warn("closing senders", "err", err)
		}
	}()

	lo, hi := cfg.WindowBounds()
	scanCfg := scanner.DefaultConfig()
	scanCfg.ScanInterval = cfg.ScanInterval()
	scanCfg.Sports = cfg.Scanner.Sports
	scanCfg.Markets = cfg.Scanner.Markets
	scanCfg.Bookmakers = cfg.Scanner.Bookmakers
	scanCfg.Regions = cfg.Scanner.Regions
	scanCfg.Reference = cfg.Scanner.ReferenceBookmaker
	scanCfg.Window = domain.Window{Min: lo, Max: hi}
	scanCfg.Evaluator = domain.Evaluator{MinOdds: cfg.Scanner.MinOdds, Threshold: cfg.Scanner.Threshold}
	scanCfg.Heartbeat = cfg.HeartbeatEnabled()
	scanCfg.Once = *once

	led := ledger.Load(ctx, ledgerStore, cfg.LedgerRetention(), time.Now())
	client := oddsapi.NewClient(cfg.API.OddsBase, cfg.API.APIKey, cfg.API.RequestsPerSecond)

	s := scanner.New(scanCfg, client, dispatcher, led, ledgerStore, cycleStore)
	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("valuebot stopped cleanly")
}

// openStorage abre el store del ledger según el driver. Si falla, sigue en memoria:
// perder el ledger solo provoca re-alertas, nunca detiene el bot.
func openStorage(ctx context.Context, cfg config.StorageConfig) (ports.LedgerStore, ports.CycleStore) {
	switch cfg.Driver {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(cfg.DSN)
		if err != nil {
			slog.Error("failed to open storage, ledger in memory only", "err", err, "dsn", cfg.DSN)
			return nil, nil
		}
		return store, store
	case "redis":
		store, err := storage.NewRedisLedger(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
		if err != nil {
			slog.Error("failed to connect to redis, ledger in memory only", "err", err, "addr", cfg.RedisAddr)
			return nil, nil
		}
		return store, nil
	default:
		return nil, nil
	}
}

func buildDispatcher(cfg *config.Config) *notify.Dispatcher {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.ConsoleEnabled() {
		senders = append(senders, notify.NewConsole(cfg.Notify.Table))
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		senders = append(senders, notify.NewKafkaSender(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic))
	}

	d := notify.NewDispatcher(notify.NewFormatter(cfg.Notify.Leagues, cfg.Notify.Timezone), senders...)
	if len(senders) == 0 {
		slog.Warn("no notification senders configured, alerts will only be logged")
	} else {
		slog.Info("notification senders ready", "senders", d.Senders())
	}
	return d
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
