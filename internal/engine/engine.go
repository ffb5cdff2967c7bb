// Package engine implements the hub's operations on top of a database.Store:
// accounts, posts with their comment trees, votes, opportunities, profile
// refresh and chat history.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/jonboulle/clockwork"

	"nest-hub/internal/database"
	"nest-hub/internal/engine/actors"
	"nest-hub/internal/integrations"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// Summarizer produces an AI summary and tags for post content.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, content string) (integrations.Summary, error)
}

// ProfileFetcher collects public profile data for a user's linked handles.
// It never fails; missing data comes back as an empty update.
type ProfileFetcher interface {
	Fetch(ctx context.Context, github, leetcode string) models.ProfileUpdate
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

type Config struct {
	Store      database.Store
	Summarizer Summarizer
	Profiles   ProfileFetcher
	Tokens     TokenIssuer
	Clock      clockwork.Clock
	Metrics    *utils.MetricsCollector
	// ActorSystem hosts the presence registry. A private system is created when nil.
	ActorSystem *actor.ActorSystem
}

type Engine struct {
	store      database.Store
	summarizer Summarizer
	profiles   ProfileFetcher
	tokens     TokenIssuer
	clock      clockwork.Clock
	metrics    *utils.MetricsCollector
	presence   *actors.Presence
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = utils.NewMetricsCollector()
	}
	if cfg.ActorSystem == nil {
		cfg.ActorSystem = actor.NewActorSystem()
	}

	return &Engine{
		store:      cfg.Store,
		summarizer: cfg.Summarizer,
		profiles:   cfg.Profiles,
		tokens:     cfg.Tokens,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		presence:   actors.NewPresence(cfg.ActorSystem, cfg.Clock, cfg.Metrics),
	}, nil
}

// Close stops the presence registry and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	e.presence.Stop()
	return e.store.Close(ctx)
}

func (e *Engine) Store() database.Store { return e.store }

func (e *Engine) Metrics() *utils.MetricsCollector { return e.metrics }

func (e *Engine) now() time.Time { return e.clock.Now().UTC() }

// observe records latency for op and counts the error code when *errp is set.
// Deferred with the named error result of the operation.
func (e *Engine) observe(op string, start time.Time, errp *error) {
	e.metrics.AddOperationLatency(op, e.clock.Since(start))
	err := *errp
	if err == nil {
		return
	}
	code := utils.ErrDatabase
	if appErr, ok := utils.AsAppError(err); ok {
		code = appErr.Code
	}
	e.metrics.IncrementErrors(code)
	if code == utils.ErrDatabase || code == utils.ErrUnavailable {
		slog.Error("operation failed", "op", op, "err", err)
	}
}
