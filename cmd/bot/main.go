package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaponukz/cobraBot/internal/bot"
	"github.com/gaponukz/cobraBot/internal/chain"
	"github.com/gaponukz/cobraBot/internal/database"
	"github.com/gaponukz/cobraBot/internal/directory"
	"github.com/gaponukz/cobraBot/internal/dispatch"
	"github.com/gaponukz/cobraBot/internal/health"
	"github.com/gaponukz/cobraBot/internal/i18n"
	"github.com/gaponukz/cobraBot/internal/lifecycle"
	"github.com/gaponukz/cobraBot/internal/middleware"
	"github.com/gaponukz/cobraBot/internal/notify"
	"github.com/gaponukz/cobraBot/internal/ratelimit"
	"github.com/gaponukz/cobraBot/internal/schedule"
	"github.com/gaponukz/cobraBot/pkg/config"
	"github.com/gaponukz/cobraBot/pkg/graceful"
	"github.com/gaponukz/cobraBot/pkg/logger"
	"github.com/gaponukz/cobraBot/pkg/metrics"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	flushSentry, err := logger.InitSentry(cfg)
	if err != nil {
		log.Error("failed to initialize sentry", slog.Any("error", err))
		os.Exit(1)
	}
	defer flushSentry()

	log.Info("starting cobra notification bot",
		slog.String("env", cfg.AppEnv),
		slog.String("storage", cfg.Storage.Driver),
		slog.Duration("poll_interval", cfg.Chain.PollInterval),
	)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open user directory", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	contract, err := chain.LoadContract(cfg.Chain.ContractFile)
	if err != nil {
		log.Error("failed to load contract descriptor", slog.Any("error", err))
		os.Exit(1)
	}
	source := chain.NewRPCSource(cfg.Chain.ProviderURL, contract, cfg.Chain.RequestTimeout)

	catalogs, err := i18n.LoadFromDir(cfg.I18n.Dir, cfg.I18n.DefaultLanguage)
	if err != nil {
		log.Error("failed to load message catalogs", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.I18n.Watch {
		go func() {
			if err := i18n.Watch(ctx, catalogs, log); err != nil {
				log.Warn("catalog watcher stopped", slog.Any("error", err))
			}
		}()
	}

	var redisClient *redis.Client
	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		limiter = ratelimit.NewRedisLimiter(redisClient, log)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(log)
		go memLimiter.RunCleanup(ctx, 10*time.Minute, time.Hour)
		limiter = memLimiter
	}

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rules := ratelimit.NewRules(cfg.RateLimit)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, catalogs, log)
	}

	tgBot, err := bot.New(cfg, store, source, catalogs, rateLimitMw, log)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	sender := notify.NewTelegramSender(tgBot.Telebot())
	notifier := notify.New(sender, limiter, notify.Options{
		SendTimeout: cfg.Notify.SendTimeout,
		RateLimit:   cfg.Notify.RateLimit,
		RateWindow:  cfg.Notify.RateWindow,
	}, log)

	dispatcher := dispatch.New(store, notifier, catalogs, log)

	poller := chain.NewPoller(source, dispatcher, cfg.Chain.PollInterval, log)
	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("event poller exited", slog.Any("error", err))
			stop()
		}
	}()

	scheduler, err := startScheduler(ctx, cfg, store, notifier, log)
	if err != nil {
		log.Error("failed to start broadcast scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	go metrics.NewDirectoryCollector(store).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("directory", store)
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))
	checker.AddCheck("source", chain.NewSourceChecker(source))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}

	srv := graceful.NewServer(log, cfg.Server.Port, checker, cfg.Server.ShutdownTimeout)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server exited", slog.Any("error", err))
		}
	}()

	go tgBot.Start()

	<-ctx.Done()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram-bot", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	shutdown.Register("scheduler", func(context.Context) error {
		scheduler.Wait()
		return nil
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("cobra notification bot stopped")
}

// openStore builds the configured directory backend. The postgres driver gets
// its schema migrated before first use.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (directory.Store, func(), error) {
	if cfg.Storage.Driver == "postgres" {
		db, err := sql.Open("postgres", cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		migrationsDir := cfg.Storage.Postgres.MigrationsDir
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
			db.Close()
			return nil, nil, err
		}

		store := directory.NewPostgresStore(db, log)
		return store, func() { store.Close() }, nil
	}

	store, err := directory.OpenFileStore(cfg.Storage.File.Path, log)
	if err != nil {
		return nil, nil, err
	}

	return store, func() { store.Close() }, nil
}

func startScheduler(ctx context.Context, cfg *config.Config, store directory.Store, notifier *notify.Notifier, log *slog.Logger) (*schedule.Scheduler, error) {
	loc := time.Local
	if cfg.Broadcasts.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Broadcasts.Timezone)
		if err != nil {
			return nil, err
		}
		loc = parsed
	}

	broadcasts, err := schedule.LoadBroadcasts(cfg.Broadcasts.File)
	if err != nil {
		return nil, err
	}

	scheduler := schedule.New(store, notifier, loc, log)
	scheduler.Start(ctx, broadcasts)

	return scheduler, nil
}

