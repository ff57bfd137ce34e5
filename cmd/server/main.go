package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/TrackDesk/config"
	"github.com/sifan077/TrackDesk/internal/app/client"
	appmodel "github.com/sifan077/TrackDesk/internal/app/model"
	"github.com/sifan077/TrackDesk/internal/app/page"
	apprepository "github.com/sifan077/TrackDesk/internal/app/repository"
	appserver "github.com/sifan077/TrackDesk/internal/app/server"
	"github.com/sifan077/TrackDesk/internal/app/service"
	"github.com/sifan077/TrackDesk/internal/app/session"
	inthttp "github.com/sifan077/TrackDesk/internal/http/handler"
	"github.com/sifan077/TrackDesk/internal/http/middleware"
	httpUtil "github.com/sifan077/TrackDesk/internal/http/util"
	"github.com/sifan077/TrackDesk/internal/infra/logger"
	infraNATS "github.com/sifan077/TrackDesk/internal/infra/nats"
	infraPostgres "github.com/sifan077/TrackDesk/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/TrackDesk/internal/infra/prometheus"
	infraRedis "github.com/sifan077/TrackDesk/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := logger.FromEnv("trackdesk")
	log := logger.MustInit(logCfg)
	defer func() { _ = logger.Sync() }()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("addr", cfg.Server.Addr),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Bool("redis_enabled", cfg.Redis.Enabled()),
		zap.Bool("nats_enabled", cfg.NATS.Enabled()),
		zap.Bool("postgres_enabled", cfg.Postgres.Enabled()),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infraPrometheus.NewMetrics(registry)

	if cfg.Prometheus.Enabled || !logCfg.Development {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, registry)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	var (
		checks      []inthttp.Check
		redisClient *redis.Client
		sessions    session.Store = session.NewMemoryStore(cfg.Server.SessionTTL)
	)

	if cfg.Redis.Enabled() {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient, cfg.Server.SessionTTL)
		checks = append(checks, inthttp.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
		log.Info("Connected to Redis successfully")
	} else {
		log.Info("Redis not configured, keeping sessions in memory")
	}

	var history apprepository.LookupEventRepository
	if cfg.Postgres.Enabled() {
		gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
		if err != nil {
			log.Fatal("Failed to open GORM connection", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.LookupEvent{}); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}

		pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()
		checks = append(checks, inthttp.Check{Name: "postgres", Ping: pool.Ping})

		history = apprepository.NewLookupEventRepository(gormDB)
		log.Info("Connected to Postgres successfully")
	}

	var lookups service.LookupRecorder
	if cfg.NATS.Enabled() {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		if err := infraNATS.EnsureStream(js, appmodel.LookupStreamName,
			[]string{appmodel.LookupStreamSubject}, appmodel.LookupStreamMaxBytes); err != nil {
			log.Fatal("Failed to prepare lookup stream", zap.Error(err))
		}
		lookups = service.NewLookupPublisher(js)
		checks = append(checks, inthttp.Check{Name: "nats", Ping: func(context.Context) error {
			return natsConn.FlushTimeout(time.Second)
		}})
		log.Info("Connected to NATS successfully")

		if history != nil {
			consumer := service.NewLookupConsumer(js, log.Named("lookups"), history)
			if err := consumer.Start(ctx); err != nil {
				log.Fatal("Failed to start lookup consumer", zap.Error(err))
			}
		}
	}

	secret := []byte(cfg.Server.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal("Failed to generate session secret", zap.Error(err))
		}
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	api := client.New(client.Options{
		BaseURL:  cfg.API.BaseURL,
		User:     cfg.API.BasicUser,
		Password: cfg.API.BasicPassword,
		Timeout:  cfg.API.Timeout,
		Logger:   log,
		Recorder: metrics,
	})

	page.MaxSubmitDuration = page.SubmitWindow(cfg.API.Timeout)

	pages := service.NewPageService(service.PageDeps{
		Logger:   log,
		Sessions: sessions,
		API:      api,
		Lookups:  lookups,
		Metrics:  metrics,
	})

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		AppTitle: cfg.Server.Title,
		Pages:    pages,
		Redis:    redisClient,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
			KeyPrefix:   "trackdesk:ratelimit",
		},
		Sessions: httpUtil.NewSessionSigner(secret, cfg.Server.SessionTTL),
		Cookie: middleware.SessionConfig{
			CookieName: cfg.Server.CookieName,
			TTL:        cfg.Server.SessionTTL,
			Secure:     !logCfg.Development,
		},
		Incidents: metrics,
		History:   history,
		Checks:    checks,
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.Server.Addr))
	if err := server.Listen(cfg.Server.Addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
