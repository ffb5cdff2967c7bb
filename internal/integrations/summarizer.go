// Package integrations wraps the outbound services posts and profiles rely on.
// Every call is best effort: callers receive an UNAVAILABLE error and pick a fallback.
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"

	"nest-hub/internal/utils"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	maxSummaryInput      = 2000
)

const summaryPrompt = `Analyze the following text from a student discussion post.
Provide a very brief summary (max 2 sentences) and a list of 3-5 relevant technical tags.
Respond with a JSON object only with this exact format:
{
  "summary": "brief summary here",
  "tags": ["tag1", "tag2", "tag3"]
}

Text: `

// Summary is the AI-derived metadata attached to a post.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

type SummarizerConfig struct {
	APIKey  string
	Model   string
	BaseURL string // defaults to the public Gemini endpoint
	Client  *http.Client
}

// Summarizer asks Gemini for a summary and tags, guarded by a circuit breaker.
type Summarizer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewSummarizer(cfg SummarizerConfig) *Summarizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 15 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Summarizer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.Client,
		breaker: breaker,
	}
}

// Enabled reports whether an API key is configured.
func (s *Summarizer) Enabled() bool {
	return s != nil && s.apiKey != "" && s.apiKey != "your_actual_valid_api_key_here"
}

// Summarize returns the model's summary and tags for content.
func (s *Summarizer) Summarize(ctx context.Context, content string) (Summary, error) {
	if !s.Enabled() {
		return Summary{}, utils.NewAppError(utils.ErrUnavailable, "AI summary is disabled", nil)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.generate(ctx, content)
	})
	if err != nil {
		return Summary{}, utils.NewAppError(utils.ErrUnavailable, "AI summary failed", err)
	}
	return result.(Summary), nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (s *Summarizer) generate(ctx context.Context, content string) (Summary, error) {
	content = truncateUTF8(content, maxSummaryInput)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: summaryPrompt + content}}}},
	})
	if err != nil {
		return Summary{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Summary{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Summary{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Summary{}, fmt.Errorf("gemini returned %s", resp.Status)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Summary{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return Summary{}, fmt.Errorf("gemini returned no candidates")
	}

	return parseSummary(gr.Candidates[0].Content.Parts[0].Text)
}

// parseSummary accepts the model's JSON answer, optionally wrapped in a code fence.
func parseSummary(raw string) (Summary, error) {
	text := raw
	if _, after, ok := strings.Cut(text, "```json"); ok {
		text, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(text, "```"); ok {
		text, _, _ = strings.Cut(after, "```")
	}

	var summary Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &summary); err != nil {
		return Summary{}, fmt.Errorf("parse summary: %w", err)
	}
	if summary.Summary == "" || summary.Tags == nil {
		return Summary{}, fmt.Errorf("invalid summary format")
	}
	return summary, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
