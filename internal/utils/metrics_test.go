package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectorCounters(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordVote("post", "upvote")
	mc.RecordVote("post", "upvote")
	mc.RecordVote("comment", "downvote")
	mc.IncrementErrors(ErrAlreadyVoted)
	mc.RecordScraped("upserted", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.votesCast.WithLabelValues("post", "upvote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.votesCast.WithLabelValues("comment", "downvote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.errorCount.WithLabelValues(ErrAlreadyVoted)))
	assert.Equal(t, 3.0, testutil.ToFloat64(mc.scrapedItems.WithLabelValues("upserted")))
}

func TestMetricsCollectorChatGauge(t *testing.T) {
	mc := NewMetricsCollector()
	mc.ChatClientConnected()
	mc.ChatClientConnected()
	mc.ChatClientDisconnected()
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.chatClients))
}

func TestMetricsHandlerServesText(t *testing.T) {
	mc := NewMetricsCollector()
	mc.IncrementRequests("GET /health", http.StatusOK)
	mc.AddOperationLatency("vote_post", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "nest_http_requests_total")
	assert.Contains(t, body, "nest_operation_duration_seconds")
}
