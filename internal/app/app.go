package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	botpkg "github.com/toannhu96/gia-vang-365/internal/bot"
	"github.com/toannhu96/gia-vang-365/internal/cache"
	"github.com/toannhu96/gia-vang-365/internal/config"
	"github.com/toannhu96/gia-vang-365/internal/infra/doji"
	repopg "github.com/toannhu96/gia-vang-365/internal/repository/postgres"
	"github.com/toannhu96/gia-vang-365/internal/scheduler"
	pricesvc "github.com/toannhu96/gia-vang-365/internal/service/prices"
	snapsvc "github.com/toannhu96/gia-vang-365/internal/service/snapshot"
	"github.com/toannhu96/gia-vang-365/internal/transport/httptransport"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client
	e   *echo.Echo

	serv *http.Server

	historyRepo *repopg.HistoryRepo
	subsRepo    *repopg.SubscriberRepo

	store *cache.RedisStore

	prices    pricesvc.Service
	snapshots snapsvc.Service

	jobs *scheduler.Scheduler

	bot *botpkg.Bot
}

func New(cfg config.Config, log *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) (*App, error) {
	app := &App{cfg: cfg, log: log, db: db, rdb: rdb}

	app.historyRepo = repopg.NewHistoryRepository(db)
	app.subsRepo = repopg.NewSubscriberRepository(db)

	app.store = cache.NewRedisStore(rdb)
	local := cache.NewMemoryTier(cfg.Cache.LocalCapacity)
	c := cache.New(app.store, local, cache.EnvToggles{}, log)

	feed := doji.NewClient(cfg.Doji)

	app.prices = pricesvc.NewService(feed, app.historyRepo, c, log)
	app.snapshots = snapsvc.NewService(app.prices, app.historyRepo, cfg.Scheduler.SnapshotQuote, log)

	if cfg.Telegram.Enabled {
		// When the bot is on, a missing token is a configuration error.
		token := strings.TrimSpace(cfg.Telegram.Token)
		if token == "" {
			log.Error("telegram enabled but TELEGRAM_BOT_TOKEN is empty")
			return nil, errors.New("telegram token is empty")
		}

		tgBot, err := botpkg.New(
			botpkg.Config{Token: token, LongPollTimeout: cfg.Telegram.LongPollTimeout},
			app.prices,
			app.subsRepo,
			log,
		)
		if err != nil {
			log.Error("telegram init failed", slog.String("error", err.Error()))
			return nil, err
		}
		app.bot = tgBot
	}

	if cfg.Scheduler.Enabled {
		var broadcaster scheduler.Broadcaster
		if app.bot != nil {
			broadcaster = app.bot
		}
		jobs, err := scheduler.New(cfg.Scheduler, app.snapshots, broadcaster, log)
		if err != nil {
			return nil, err
		}
		app.jobs = jobs
	}

	e := echo.New()
	e.HideBanner = true
	app.e = e

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(log))
	e.Static("/", cfg.Server.StaticDir)

	rl := httptransport.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	api := e.Group("", rl.Middleware())

	ph := httptransport.NewGoldPricesHandler(log, app.prices, cfg.Doji.Timeout)
	ph.RegisterRoutes(api)

	hh := httptransport.NewHealthHandler(log, app.store, db, cfg.Postgres.Timeout)
	hh.RegisterRoutes(e)

	app.serv = &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Handler:      e,
	}

	log.Info("app initialized",
		slog.Bool("telegram_enabled", cfg.Telegram.Enabled),
		slog.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		slog.String("http_addr", cfg.Server.Addr),
	)
	return app, nil
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

func (a *App) Run(ctx context.Context) error {
	if a.jobs != nil {
		a.log.Info("starting scheduler")
		a.jobs.Start()
	}

	if a.bot != nil {
		a.log.Info("starting bot")
		a.bot.Start(ctx)
	}

	a.log.Info("starting server", slog.String("addr", a.cfg.Server.Addr))
	go func() {
		if err := a.e.StartServer(a.serv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	return a.Shutdown(context.Background())
}

func (a *App) Shutdown(ctx context.Context) error {
	shCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.e != nil {
		if err := a.e.Shutdown(shCtx); err != nil {
			a.log.Error("http shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.jobs != nil {
		a.jobs.Stop(shCtx)
	}

	if a.bot != nil {
		a.bot.Stop()
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.db != nil {
		a.db.Close()
	}

	a.log.Info("application stopped")
	return nil
}
