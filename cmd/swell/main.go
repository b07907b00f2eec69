package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/swellproject/swell/internal/application/orchestrator"
	"github.com/swellproject/swell/internal/config"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
	memoryevents "github.com/swellproject/swell/pkg/adapters/events/memory"
	redisevents "github.com/swellproject/swell/pkg/adapters/events/redis"
	"github.com/swellproject/swell/pkg/adapters/llm"
	"github.com/swellproject/swell/pkg/adapters/metrics/prometheus"
	grpcapi "github.com/swellproject/swell/pkg/api/grpc"
	httpapi "github.com/swellproject/swell/pkg/api/http"
	"github.com/swellproject/swell/pkg/api/tools"
	"github.com/swellproject/swell/pkg/api/websocket"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting swell orchestrator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Load the backend registry document
	doc, err := registry.LoadDocument(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("failed to load backend registry", zap.Error(err))
	}

	clients, err := llm.NewClients(doc.Backends, &llm.Config{
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		RequestTimeout:  cfg.LLM.RequestTimeout,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("failed to create LLM clients", zap.Error(err))
	}

	reg, err := registry.New(doc, clients)
	if err != nil {
		logger.Fatal("invalid backend registry", zap.Error(err))
	}
	logger.Info("backend registry loaded",
		zap.Int("backends", len(reg.All())),
		zap.Int("enabled", len(reg.Enabled())),
		zap.String("planner", reg.Planner().Name))

	// Initialize event bus
	var eventBus ports.EventBus
	var redisClient *goredis.Client
	switch cfg.Events.Provider {
	case "redis":
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		eventBus, err = redisevents.NewStreamsEventBus(
			redisClient,
			"swell-consumers",
			fmt.Sprintf("swell-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
	default:
		eventBus = memoryevents.NewEventBus()
	}

	metricsCollector := prometheus.NewCollector()

	// Initialize orchestration components
	classifier := orchestrator.NewClassifier(reg)
	aggregator := orchestrator.NewAggregator()
	planner := orchestrator.NewPlanner(reg, classifier, aggregator, logger,
		cfg.LLM.DefaultTemperature, cfg.LLM.DefaultMaxTokens)
	executor := orchestrator.NewExecutor(reg, classifier, eventBus, metricsCollector, logger,
		cfg.Executor.MaxRetries, cfg.Executor.RetryBaseDelay, cfg.Executor.EscalationEnabled,
		cfg.LLM.DefaultMaxTokens, cfg.LLM.DefaultTemperature)
	synthesizer := orchestrator.NewSynthesizer(reg, logger,
		cfg.LLM.DefaultTemperature, cfg.LLM.DefaultMaxTokens)

	manager := orchestrator.NewManager(reg, classifier, planner, executor, aggregator,
		synthesizer, eventBus, metricsCollector, logger, cfg.Timeouts.OrchestrationTimeout)

	dispatcher := tools.NewDispatcher(manager, logger)

	// Initialize API servers
	httpServer := httpapi.NewServer(&httpapi.Config{
		Port:       cfg.HTTPPort,
		Manager:    manager,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpcapi.NewServer(&grpcapi.Config{
		Port:    cfg.GRPCPort,
		Manager: manager,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("swell orchestrator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("events_provider", cfg.Events.Provider))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestration manager shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("swell orchestrator shut down complete")
}

// initLogger initializes the logger based on log level.
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
