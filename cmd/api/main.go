package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/zhouzirui/roundtable/backend/internal/config"
	"github.com/zhouzirui/roundtable/backend/internal/handler"
	"github.com/zhouzirui/roundtable/backend/internal/logging"
	"github.com/zhouzirui/roundtable/backend/internal/metrics"
	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
	"github.com/zhouzirui/roundtable/backend/internal/service/ai"
	"github.com/zhouzirui/roundtable/backend/internal/service/debate"
	"github.com/zhouzirui/roundtable/backend/internal/service/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	logger := logging.New(cfg.Log)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", zap.Error(envErr))
	}

	store, err := loadCatalog(cfg.Debate.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	// Initialize agent factory
	var factory debate.AgentFactory
	if cfg.AI.Enabled() {
		factory = ai.NewFactory(cfg.AI, store, ai.AgentOptions{
			ContextLimit: cfg.Debate.ContextLimit,
			TurnTimeout:  cfg.Debate.TurnTimeout,
		}, ai.WithLogger(logger))
		logger.Info("AI backend initialized", zap.String("model", cfg.AI.Model))
	} else {
		logger.Warn("Ark 凭证未配置，辩论启动将返回 503")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("roundtable", reg, logger)

	engine := debate.NewEngine(debate.Config{
		MaxRounds: cfg.Debate.MaxRounds,
		TurnDelay: cfg.Debate.TurnDelay,
		Prompt:    cfg.Debate.Prompt,
	}, logger, debate.WithRecorder(collector))

	managerOpts := []debate.ManagerOption{debate.WithManagerRecorder(collector)}
	if client := gateway.NewClient(cfg.Gateway, logger); client != nil {
		managerOpts = append(managerOpts, debate.WithGateway(client))
		logger.Info("orchestration gateway configured", zap.String("url", client.URL()))
	}
	manager := debate.NewManager(ctx, engine, factory, logger, managerOpts...)

	router := handler.NewRouter(ctx, cfg, handler.Dependencies{
		Manager:  manager,
		Catalog:  store,
		Logger:   logger,
		Recorder: collector,
		Gatherer: reg,
	})

	startServer(ctx, cfg.Server, router, logger)

	// Runs observe ctx and stop between calls.
	manager.Wait()
	logger.Info("all debates stopped")
}

func loadCatalog(path string) (*catalog.MemoryStore, error) {
	if path == "" {
		return catalog.NewMemoryStore(catalog.Seed()), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryStore(c), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("roundtable backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
