package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/LinkDesk/config"
	apprepository "github.com/sifan077/LinkDesk/internal/app/repository"
	appserver "github.com/sifan077/LinkDesk/internal/app/server"
	appservice "github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/sifan077/LinkDesk/internal/http/middleware"
	infraCloudinary "github.com/sifan077/LinkDesk/internal/infra/cloudinary"
	"github.com/sifan077/LinkDesk/internal/infra/logger"
	infraNATS "github.com/sifan077/LinkDesk/internal/infra/nats"
	infraPostgres "github.com/sifan077/LinkDesk/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/LinkDesk/internal/infra/prometheus"
	infraRedis "github.com/sifan077/LinkDesk/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	isDev := !cfg.App.IsProduction()
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       cfg.App.LogLevel,
		Service:     "linkdesk",
	})
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Int("allowed_emails", len(cfg.App.AllowedEmails)),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, isDev, log)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, infraPostgres.Models()...); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		go infraPrometheus.Serve(ctx, infraPrometheus.NewServer(cfg.Prometheus, nil), log)
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	store := appservice.NewModerationStore(appservice.StoreDeps{
		Logger:   log,
		URLs:     apprepository.NewURLRepository(gormDB),
		Settings: apprepository.NewSettingRepository(gormDB),
	})
	if _, err := store.FetchAll(ctx); err != nil {
		log.Warn("Initial URL load failed", zap.Error(err))
	}

	themes := appservice.NewThemeStore(appservice.ThemeDeps{
		Logger: log,
		Repo:   apprepository.NewThemeRepository(gormDB),
	})

	uploader := infraCloudinary.New(cfg.Cloudinary, infraCloudinary.WithLogger(log))

	visitConsumer := appservice.NewVisitConsumer(js, log, store)
	if err := visitConsumer.Start(ctx); err != nil {
		log.Fatal("Failed to start visit consumer", zap.Error(err))
	}

	window, err := time.ParseDuration(cfg.RateLimit.Window)
	if err != nil {
		log.Warn("Invalid rate limit window, using default", zap.String("window", cfg.RateLimit.Window))
		window = 0
	}

	server := appserver.New(appserver.Dependencies{
		Logger:        log,
		Postgres:      pool,
		Redis:         redisClient,
		NATS:          natsConn,
		Store:         store,
		Uploader:      uploader,
		UploadFolder:  cfg.Cloudinary.Folder,
		Visits:        appservice.NewVisitPublisher(js),
		Themes:        themes,
		AllowedEmails: cfg.App.AllowedEmails,
		CORSOrigins:   cfg.App.CORSOrigins,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      window,
		},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Fiber shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.App.ListenAddr))
	if err := server.Listen(cfg.App.ListenAddr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
