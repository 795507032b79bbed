package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/truskill-essay-api/internal/config"
	"github.com/noah-isme/truskill-essay-api/internal/database"
	"github.com/noah-isme/truskill-essay-api/internal/handler"
	"github.com/noah-isme/truskill-essay-api/internal/middleware"
	"github.com/noah-isme/truskill-essay-api/internal/observability"
	"github.com/noah-isme/truskill-essay-api/internal/repository"
	"github.com/noah-isme/truskill-essay-api/internal/router"
	"github.com/noah-isme/truskill-essay-api/internal/service"
	"github.com/noah-isme/truskill-essay-api/pkg/ai"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "truskill-essay-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: cfg.AppName,
		Environment: cfg.AppEnv,
		Exporter:    cfg.TraceExporter,
		Endpoint:    cfg.TraceEndpoint,
		Insecure:    cfg.TraceInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, essay history cache disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	essayOpts := service.EssayServiceOptions{
		Cache:        redisClient,
		CacheTTL:     cfg.EssayCacheTTL,
		RenderTTL:    cfg.EssayRenderTTL,
		EventSubject: cfg.EventSubject,
	}
	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, essay events disabled")
	}
	if natsConn != nil {
		defer natsConn.Drain()
		essayOpts.Events = natsConn
	}

	generator, err := newGenerator(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure ai generator")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	essayRepo := repository.NewEssayRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	essayService := service.NewEssayService(essayRepo, ai.NewAssessor(generator, logger), validate, essayOpts, logger)
	profileService := service.NewStudentProfileService(studentRepo, logger)
	reportService := service.NewReportService(essayRepo, studentRepo, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EssayHandler:   handler.NewEssayHandler(essayService, logger),
		ProfileHandler: handler.NewProfileHandler(profileService, logger),
		ReportHandler:  handler.NewReportHandler(reportService, logger),
		HealthProbes:   probes,
		AuthMiddleware: middleware.Authenticate(cfg.JWTSecret),
		SubmitLimiter:  middleware.RateLimit("essays", cfg.EssaySubmitLimit, cfg.EssaySubmitWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newGenerator(cfg config.Config, logger zerolog.Logger) (*ai.OpenAIGenerator, error) {
	generatorCfg := ai.OpenAIConfig{
		APIKey:      cfg.AIAPIKey,
		Model:       cfg.AIModel,
		BaseURL:     cfg.AIBaseURL,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Timeout:     cfg.AITimeout,
		JSONMode:    true,
		Logger:      logger,
	}

	if cfg.AIProvider == config.AIProviderGemini {
		if generatorCfg.BaseURL == "" {
			generatorCfg.BaseURL = ai.GeminiBaseURL
		}
		generatorCfg.JSONMode = false
	}

	generator, err := ai.NewOpenAIGenerator(generatorCfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("provider", cfg.AIProvider).Str("model", generator.Model()).Msg("ai generator ready")
	return generator, nil
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
