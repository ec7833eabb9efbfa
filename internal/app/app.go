package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/exam-service/internal/bank"
	"github.com/prepdesk/exam-service/internal/config"
	"github.com/prepdesk/exam-service/internal/exam"
	"github.com/prepdesk/exam-service/internal/logging"
	"github.com/prepdesk/exam-service/internal/parser"
	"github.com/prepdesk/exam-service/internal/server"
	ws "github.com/prepdesk/exam-service/pkg/http/ws"
)

// Application aggregates shared infrastructure (bank, session manager, HTTP
// server, optional Redis cache).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis   *redis.Client
	manager *exam.Manager
	http    *http.Server

	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, the question bank, the session manager and
// the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	var redisClient *redis.Client
	var bankCache bank.Cache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		bankCache = bank.NewRedisCache(redisClient, cfg.Bank.CacheTTL)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis bank cache enabled")
	} else {
		bankCache = bank.NewMemoryCache(cfg.Bank.CacheTTL)
		logger.Info().Msg("in-memory bank cache enabled")
	}

	loader := bank.NewLoader(os.DirFS(cfg.Bank.Dir), logger)
	bankSvc := bank.NewService(loader, bankCache, cfg.Bank.DefaultExam, parser.Options{
		LooseLetterFallback: cfg.Parser.LooseAnswerFallback,
	}, logger)

	manager := exam.NewManager(exam.ManagerConfig{
		Duration:     cfg.Exam.Duration,
		TickInterval: cfg.Exam.TickInterval,
		SessionTTL:   cfg.Exam.SessionTTL,
	}, logger)

	hub := ws.NewHub(logger)
	wsHandler := exam.NewWSHandler(manager, hub, logger)
	manager.SetNotifier(wsHandler)

	httpHandlers := exam.NewHTTPHandlers(bankSvc, manager, logger)
	apiServer := server.NewHTTPServer(cfg, logger, httpHandlers, wsHandler.HandleWebSocket)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		redis:     redisClient,
		manager:   manager,
		http:      apiServer,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.manager.RunJanitor(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("session janitor stopped")
		}
	}()
}
