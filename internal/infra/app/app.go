package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/config"
	"github.com/BillBrieferServer/scribe/internal/infra/database"
	kafkainfra "github.com/BillBrieferServer/scribe/internal/infra/kafka"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
	"github.com/BillBrieferServer/scribe/internal/infra/mail"
	redisinfra "github.com/BillBrieferServer/scribe/internal/infra/redis"
	"github.com/BillBrieferServer/scribe/internal/infra/security"
	"github.com/BillBrieferServer/scribe/internal/infra/telemetry"
	"github.com/BillBrieferServer/scribe/internal/repository/memory"
	postgresrepo "github.com/BillBrieferServer/scribe/internal/repository/postgres"
	redisrepo "github.com/BillBrieferServer/scribe/internal/repository/redis"
	"github.com/BillBrieferServer/scribe/internal/transport/http/middleware"
	"github.com/BillBrieferServer/scribe/internal/transport/http/routes"
	"github.com/BillBrieferServer/scribe/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	sharePolicy := port.ShareLimitPolicy{
		PerResource: cfg.RateLimit.SharePerNote,
		PerAccount:  cfg.RateLimit.SharePerAccount,
		Window:      cfg.RateLimit.ShareWindow,
	}

	var (
		redisClient  *redisinfra.Client
		shareLimiter port.ShareLimiter
		rateLimiter  *middleware.RateLimiter
		cacheChecker routes.CacheChecker
	)

	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		shareLimiter = redisrepo.NewShareLimiter(redisClient.Client(), sharePolicy)
		cacheChecker = redisClient

		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "scribe:rate-limit",
			TTL:       rateLimitWindow * 2,
		})
		rateLimiter = middleware.NewRateLimiter(rateLimitStore, log)
	} else {
		log.Info("redis disabled, sharing quotas tracked in process memory")
		shareLimiter = memory.NewShareLimiter(sharePolicy)
	}

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mailer port.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mail.NewSMTPMailer(cfg.SMTP, log)
		if err != nil {
			pool.Close()
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("init mailer: %w", err)
		}
		mailer = smtpMailer
	} else {
		log.Info("smtp host not configured, logging outbound mail")
		mailer = mail.NewLogMailer(log)
	}

	passwordValidator := security.DefaultPasswordValidator()
	issuer := usecase.NewSessionIssuer(repos.Sessions, cfg.Session.TTL)

	authService, err := usecase.NewAuthService(repos.Accounts, issuer)
	if err != nil {
		pool.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	authService = authService.WithEvents(eventPublisher)

	registrationService := usecase.NewRegistrationService(repos.Accounts, issuer, mailer, eventPublisher, passwordValidator, cfg.Session.CodeTTL)
	passwordResetService := usecase.NewPasswordResetService(repos.Accounts, mailer, eventPublisher, passwordValidator, cfg.Session.CodeTTL)
	noteService := usecase.NewNoteService(repos.Notes)
	shareService := usecase.NewShareService(repos.Notes, shareLimiter, mailer, eventPublisher)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       cacheChecker,
		Metrics:     metrics,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			PasswordReset: passwordResetService,
			Notes:         noteService,
			Share:         shareService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting scribe API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
