// Package simulator drives a running nest-hub server with simulated students
// who register, post, comment and vote.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type SimConfig struct {
	NumUsers       int
	SimulationTime time.Duration
	// Activity rates, per user per hour.
	PostFrequency    float64
	CommentFrequency float64
	VoteFrequency    float64
	// Share of comment actions that reply to an existing comment.
	ReplyPercentage float64
	// Zipf exponent used to pick active users; larger means a few users do most of the work.
	ZipfS             float64
	RequestsPerSecond float64
	EngineURL         string
	Password          string
}

// DefaultConfig returns a small, polite simulation.
func DefaultConfig() SimConfig {
	return SimConfig{
		NumUsers:          10,
		SimulationTime:    2 * time.Minute,
		PostFrequency:     60,
		CommentFrequency:  120,
		VoteFrequency:     240,
		ReplyPercentage:   0.3,
		ZipfS:             1.07,
		RequestsPerSecond: 20,
		EngineURL:         "http://localhost:5000",
		Password:          "simpass123",
	}
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	TotalPosts      int
	TotalComments   int
	TotalReplies    int
	TotalVotes      int
	// Votes refused because the voter already voted.
	RepeatVotes int
}

// SimulatedUser is a registered account and its session token.
type SimulatedUser struct {
	ID       string
	Email    string
	Token    string
	Posts    []string
	Comments int
}

type simPost struct {
	ID       string
	Comments []string
}

type EnhancedSimulator struct {
	config  SimConfig
	stats   *SimulationStats
	users   []*SimulatedUser
	posts   []*simPost
	client  *http.Client
	limiter *rate.Limiter
	rng     *rand.Rand
	zipf    *rand.Zipf
	mu      sync.Mutex // guards users, posts, rng and zipf
}

func NewEnhancedSimulator(config SimConfig) *EnhancedSimulator {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 20
	}
	if config.Password == "" {
		config.Password = "simpass123"
	}
	return &EnhancedSimulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run registers the users and then simulates activity until ctx ends or
// SimulationTime elapses.
func (s *EnhancedSimulator) Run(ctx context.Context) error {
	if s.config.SimulationTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SimulationTime)
		defer cancel()
	}

	slog.Info("starting simulation", "users", s.config.NumUsers, "url", s.config.EngineURL)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()
	wg.Wait()
	return nil
}

func (s *EnhancedSimulator) createInitialUsers(ctx context.Context) error {
	users := make([]*SimulatedUser, 0, s.config.NumUsers)
	runID := time.Now().UnixNano()
	for i := 0; i < s.config.NumUsers; i++ {
		user := &SimulatedUser{Email: fmt.Sprintf("sim_%d_%d@nest.test", runID, i)}

		var err error
		for retries := 0; retries < 3; retries++ {
			if err = s.registerUser(ctx, user, i); err == nil {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			backoff := time.Duration(math.Pow(2, float64(retries))) * 250 * time.Millisecond
			slog.Warn("registration retry", "email", user.Email, "attempt", retries+1, "backoff", backoff, "err", err)
			time.Sleep(backoff)
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", user.Email, err)
		}
		users = append(users, user)
	}

	s.mu.Lock()
	s.users = users
	if len(users) > 1 {
		s.zipf = rand.NewZipf(s.rng, math.Max(s.config.ZipfS, 1.01), 1, uint64(len(users)-1))
	}
	s.mu.Unlock()
	slog.Info("users registered", "count", len(users))
	return nil
}

func (s *EnhancedSimulator) registerUser(ctx context.Context, user *SimulatedUser, n int) error {
	body := map[string]any{
		"name":     fmt.Sprintf("Sim Student %d", n),
		"username": fmt.Sprintf("sim_%d", n),
		"email":    user.Email,
		"password": s.config.Password,
		"skills":   []string{randomSkill(n)},
	}
	var out struct {
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	if _, err := s.makeRequest(ctx, http.MethodPost, "/api/users/register", "", body, &out); err != nil {
		return err
	}
	if out.UserID == "" || out.Token == "" {
		return errors.New("registration returned no user id or token")
	}
	user.ID, user.Token = out.UserID, out.Token
	return nil
}

// pickUser returns a user, favouring low indexes when more than one exists.
func (s *EnhancedSimulator) pickUser() *SimulatedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch len(s.users) {
	case 0:
		return nil
	case 1:
		return s.users[0]
	}
	return s.users[s.zipf.Uint64()]
}

func (s *EnhancedSimulator) pickPost() *simPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posts) == 0 {
		return nil
	}
	p := s.posts[s.rng.Intn(len(s.posts))]
	out := &simPost{ID: p.ID, Comments: append([]string(nil), p.Comments...)}
	return out
}

func (s *EnhancedSimulator) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

func (s *EnhancedSimulator) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// HTTPError is a non-2xx answer from the server.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s %s", e.Status, e.Code, e.Message)
}

// makeRequest sends body as JSON and decodes the response into out. Calls
// abandoned because ctx ended are not counted.
func (s *EnhancedSimulator) makeRequest(ctx context.Context, method, endpoint, token string, body, out any) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			s.recordRequestMetrics(start, err)
		}
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&env)
		httpErr := &HTTPError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
		// A repeated vote is an expected outcome, not a failure.
		if resp.StatusCode == http.StatusConflict {
			s.recordRequestMetrics(start, nil)
		} else {
			s.recordRequestMetrics(start, httpErr)
		}
		return resp.StatusCode, httpErr
	}

	s.recordRequestMetrics(start, nil)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, endpoint, err)
		}
	}
	return resp.StatusCode, nil
}

func (s *EnhancedSimulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
		slog.Debug("simulated request failed", "err", err)
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *EnhancedSimulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			slog.Info("simulation progress",
				"requests", m.TotalRequests,
				"failed", m.FailedRequests,
				"posts", m.TotalPosts,
				"comments", m.TotalComments,
				"votes", m.TotalVotes,
				"avg_latency", m.AverageLatency)
		}
	}
}

// SimulationMetrics is a snapshot of the run.
type SimulationMetrics struct {
	TotalUsers      int
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	TotalPosts      int
	TotalComments   int
	TotalReplies    int
	TotalVotes      int
	RepeatVotes     int
	Uptime          time.Duration
}

func (s *EnhancedSimulator) GetMetrics() SimulationMetrics {
	s.mu.Lock()
	users := len(s.users)
	s.mu.Unlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()
	return SimulationMetrics{
		TotalUsers:      users,
		TotalRequests:   s.stats.TotalRequests,
		SuccessRequests: s.stats.SuccessRequests,
		FailedRequests:  s.stats.FailedRequests,
		AverageLatency:  s.stats.AverageLatency,
		TotalPosts:      s.stats.TotalPosts,
		TotalComments:   s.stats.TotalComments,
		TotalReplies:    s.stats.TotalReplies,
		TotalVotes:      s.stats.TotalVotes,
		RepeatVotes:     s.stats.RepeatVotes,
		Uptime:          time.Since(s.stats.StartTime),
	}
}
