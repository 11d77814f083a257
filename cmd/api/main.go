package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/config"
	"github.com/noah-isme/gema-ide-api/internal/database"
	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/handler"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/repository"
	"github.com/noah-isme/gema-ide-api/internal/router"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/session"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "gema-ide-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, falling back to redis pub/sub")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	problemRepo := repository.NewProblemRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	runner := execution.NewRunner(execution.NewEvaluator(), execution.RunnerConfig{
		CompileDelay: cfg.CompileDelay,
		CaseDelay:    cfg.CaseDelay,
	}, logger)
	sessionStore := session.NewRedisStore(redisClient, cfg.SessionTTL, cfg.SessionLockTTL)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	problemService := service.NewProblemService(problemRepo, testCaseRepo, redisClient, cfg.ProblemCacheTTL, logger)
	adminProblemService := service.NewAdminProblemService(problemRepo, testCaseRepo, problemService, validate, logger)
	verdictService := service.NewVerdictService(redisClient, cfg.RealtimeChannel, natsConn, logger)
	verdictService.Start(rootCtx)
	ideService := service.NewIDEService(problemService, sessionStore, session.NewMachine(runner), verdictService, validate, logger)
	authService := service.NewAuthService(profileRepo, redisClient, logger)
	seedService := service.NewSeedService(problemRepo, problemService, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler:       handler.NewProblemHandler(problemService, ideService, logger),
		IDEHandler:           handler.NewIDEHandler(ideService, logger),
		ConsoleSocketHandler: handler.NewConsoleSocketHandler(ideService, validate, logger),
		VerdictHandler:       handler.NewVerdictHandler(verdictService, logger, cfg.StreamKeepAlive),
		AuthHandler:          handler.NewAuthHandler(authService, logger),
		AdminProblemHandler:  handler.NewAdminProblemHandler(adminProblemService, logger),
		SeedHandler:          handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret, authService),
		AdminResolver:        authService,
		RunLimiter:           middleware.RateLimit("ide-run", cfg.RunRateLimit, cfg.RunRateLimitWindow),
		HealthProbes: []handler.HealthProbe{
			{Name: "database", Check: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancelRoot, logger)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
