package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/jonboulle/clockwork"

	"nest-hub/internal/config"
	"nest-hub/internal/database"
	"nest-hub/internal/engine"
	"nest-hub/internal/handlers"
	"nest-hub/internal/integrations"
	"nest-hub/internal/logging"
	"nest-hub/internal/middleware"
	"nest-hub/internal/scraper"
	"nest-hub/internal/utils"
	"nest-hub/internal/websocket"
)

// app holds every long-lived component of the process.
type app struct {
	cfg       *config.Config
	engine    *engine.Engine
	hub       *websocket.Hub
	scheduler *scraper.Scheduler
	server    *http.Server
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", a.server.Addr, "db", cfg.Database.Type)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.shutdown(stopHub)
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}
	a.shutdown(stopHub)
	return nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	clock := clockwork.NewRealClock()
	metrics := utils.NewMetricsCollector()

	tokens, err := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := database.NewStore(connectCtx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	summarizer := integrations.NewSummarizer(integrations.SummarizerConfig{
		APIKey: cfg.Integrations.GeminiAPIKey,
		Model:  cfg.Integrations.GeminiModel,
	})
	if !summarizer.Enabled() {
		slog.Warn("GEMINI_API_KEY not set, AI summaries disabled")
	}
	profiles, err := integrations.NewProfileFetcher(integrations.ProfileFetcherConfig{
		GithubToken: cfg.Integrations.GithubToken,
		Clock:       clock,
	})
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Store:       store,
		Summarizer:  summarizer,
		Profiles:    profiles,
		Tokens:      tokens,
		Clock:       clock,
		Metrics:     metrics,
		ActorSystem: actor.NewActorSystem(),
	})
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	var scheduler *scraper.Scheduler
	if cfg.Scraper.Enabled {
		s, err := scraper.New(scraper.Config{URL: cfg.Scraper.URL, Store: eng, Metrics: metrics})
		if err != nil {
			eng.Close(ctx)
			return nil, fmt.Errorf("scraper: %w", err)
		}
		if scheduler, err = scraper.NewScheduler(s, cfg.Scraper.Schedule); err != nil {
			eng.Close(ctx)
			return nil, fmt.Errorf("scraper schedule: %w", err)
		}
	}

	hub := websocket.NewHub(eng)
	srv := handlers.NewServer(eng, hub, tokens, metrics, cfg.AllowedOrigins)
	srv.RequestTimeout = cfg.Server.RequestTimeout
	srv.MetricsEnabled = cfg.Server.MetricsEnabled

	return &app{
		cfg:       cfg,
		engine:    eng,
		hub:       hub,
		scheduler: scheduler,
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// shutdown stops accepting requests, then the scraper, the chat hub and the store.
func (a *app) shutdown(stopHub context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	stopHub()
	if err := a.engine.Close(ctx); err != nil {
		slog.Error("close engine", "err", err)
	}
	slog.Info("server stopped")
}
