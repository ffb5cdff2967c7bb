// Package scraper keeps the opportunity listings fresh by scraping the
// public opportunities page on a cron schedule.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

const userAgent = "Mozilla/5.0 (compatible; nest-hub-scraper/1.0)"

// Upserter stores a listing keyed by title.
type Upserter interface {
	UpsertOpportunity(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error)
}

// Result summarizes one scrape run.
type Result struct {
	Found   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

type Config struct {
	URL     string
	Client  *http.Client
	Store   Upserter
	Metrics *utils.MetricsCollector
}

type Scraper struct {
	url     *url.URL
	client  *http.Client
	store   Upserter
	metrics *utils.MetricsCollector
	mu      sync.Mutex // one run at a time
}

func New(cfg Config) (*Scraper, error) {
	target, err := url.Parse(cfg.URL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid scraper url %q", cfg.URL)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("scraper requires a store")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{url: target, client: cfg.Client, store: cfg.Store, metrics: cfg.Metrics}, nil
}

// Run fetches the page once and upserts every titled listing.
func (s *Scraper) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	slog.Info("starting scrape", "url", s.url.String())

	items, err := s.fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Found: len(items)}
	for i := range items {
		opp := &items[i]
		if opp.Title == "" {
			slog.Warn("skipping opportunity due to missing title", "organizer", opp.Organizer)
			res.Skipped++
			continue
		}
		_, created, err := s.store.UpsertOpportunity(ctx, opp)
		switch {
		case err != nil:
			slog.Error("failed to upsert opportunity", "title", opp.Title, "err", err)
			res.Failed++
		case created:
			res.Created++
		default:
			res.Updated++
		}
	}

	if s.metrics != nil {
		s.metrics.RecordScraped("created", res.Created)
		s.metrics.RecordScraped("updated", res.Updated)
		s.metrics.RecordScraped("skipped", res.Skipped)
		s.metrics.RecordScraped("failed", res.Failed)
		s.metrics.AddOperationLatency("scrape", time.Since(start))
	}
	slog.Info("scrape finished",
		"found", res.Found,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]models.Opportunity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUnavailable, "opportunity page unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, utils.NewAppError(utils.ErrUnavailable, "opportunity page returned "+resp.Status, nil)
	}
	return Parse(resp.Body, s.url)
}

// Scheduler runs the scraper on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	scraper *Scraper
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(s *Scraper, spec string) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := &Scheduler{
		cron:    cron.New(),
		scraper: s,
		timeout: 5 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := sched.cron.AddFunc(spec, sched.job); err != nil {
		cancel()
		return nil, fmt.Errorf("add cron: %w", err)
	}
	return sched, nil
}

// Start schedules future runs and triggers one immediately in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.job()
}

// Stop cancels an in-flight run and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) job() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if _, err := s.scraper.Run(ctx); err != nil {
		slog.Error("scheduled scrape failed", "err", err)
	}
}
