package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server:         &config.ServerConfig{Host: "127.0.0.1", Port: 0, MetricsEnabled: true, RequestTimeout: 5 * time.Second},
		Database:       &config.DatabaseConfig{Type: "memory"},
		Auth:           &config.AuthConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour},
		Integrations:   &config.IntegrationsConfig{},
		Scraper:        &config.ScraperConfig{Enabled: false},
		Log:            &config.LogConfig{Level: "error", Format: "text"},
		AllowedOrigins: []string{"*"},
	}
}

func TestNewAppRequiresSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.JWTSecret = ""
	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewAppRejectsBadSchedule(t *testing.T) {
	cfg := memoryConfig()
	cfg.Scraper = &config.ScraperConfig{Enabled: true, URL: "https://example.test", Schedule: "whenever"}
	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestIntegrationFlow(t *testing.T) {
	a, err := newApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)
	ts := httptest.NewServer(a.server.Handler)
	defer func() {
		ts.Close()
		stopHub()
		a.engine.Close(context.Background())
	}()

	post := func(path, token string, body any) (int, map[string]any) {
		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	// Step 1: register two users
	status, user1 := post("/api/users/register", "", map[string]string{"email": "user1@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, status)
	status, user2 := post("/api/users/register", "", map[string]string{"email": "user2@example.com", "password": "password456"})
	require.Equal(t, http.StatusCreated, status)
	token1, id1 := user1["token"].(string), user1["userId"].(string)
	token2, id2 := user2["token"].(string), user2["userId"].(string)

	// Step 2: user1 posts
	status, created := post("/api/posts", token1, map[string]string{"content": "Looking for a hackathon team", "userId": id1})
	require.Equal(t, http.StatusCreated, status)
	postID := created["data"].(map[string]any)["id"].(string)

	// Step 3: user2 comments and votes
	status, _ = post("/api/posts/"+postID+"/comment", token2, map[string]string{"text": "I'm in", "commentedBy": id2})
	require.Equal(t, http.StatusCreated, status)
	status, voted := post("/api/posts/"+postID+"/vote", token2, map[string]string{"voteType": "upvote", "userId": id2})
	require.Equal(t, http.StatusOK, status)
	votes := voted["data"].(map[string]any)["votes"].(map[string]any)
	assert.Equal(t, float64(1), votes["upvotes"])

	// Step 4: user2 cannot vote as user1
	status, _ = post("/api/posts/"+postID+"/vote", token2, map[string]string{"voteType": "upvote", "userId": id1})
	assert.Equal(t, http.StatusForbidden, status)

	// Step 5: the author's profile lists the post
	resp, err := http.Get(ts.URL + "/api/users/" + id1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var profile map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	posts := profile["data"].(map[string]any)["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, postID, posts[0].(map[string]any)["id"])
}
