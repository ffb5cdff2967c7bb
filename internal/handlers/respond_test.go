package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/api"
	"nest-hub/internal/utils"
)

func recordError(t *testing.T, err error) (int, api.ErrorResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	writeError(rec, err)
	var out api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec.Code, out
}

func TestWriteErrorSurfacesInternalDetail(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "wrapped driver error",
			err:        utils.NewDatabaseError("GetPost", errors.New("connection reset by peer")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   utils.ErrDatabase,
			wantMsg:    "Database error during GetPost",
			wantDetail: "Database error during GetPost: connection reset by peer",
		},
		{
			name:       "plain error",
			err:        errors.New("socket closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   utils.ErrDatabase,
			wantMsg:    "socket closed",
			wantDetail: "socket closed",
		},
		{
			name:       "unavailable",
			err:        utils.NewAppError(utils.ErrUnavailable, "summarizer unavailable", errors.New("quota exceeded")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   utils.ErrUnavailable,
			wantMsg:    "summarizer unavailable",
			wantDetail: "summarizer unavailable: quota exceeded",
		},
		{
			name:       "client error has no detail",
			err:        utils.NewValidationError("Content is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   utils.ErrValidationFailed,
			wantMsg:    "Content is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := recordError(t, tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.False(t, out.Success)
			assert.Equal(t, tc.wantCode, out.Code)
			assert.Equal(t, tc.wantMsg, out.Message)
			assert.Equal(t, tc.wantDetail, out.Detail)
		})
	}
}
