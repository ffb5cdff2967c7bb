package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageIncludesOrigin(t *testing.T) {
	err := NewAppError(ErrDatabase, "Failed to save post", errors.New("connection reset"))
	assert.Equal(t, "Failed to save post: connection reset", err.Error())

	bare := NewAppError(ErrNotFound, "Post not found", nil)
	assert.Equal(t, "Post not found", bare.Error())
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("voting: %w", NewCommentNotFoundError("c1"))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCommentNotFound, appErr.Code)
	assert.True(t, IsErrorCode(wrapped, ErrCommentNotFound))
	assert.False(t, IsErrorCode(wrapped, ErrPostNotFound))
	assert.True(t, IsNotFound(wrapped))
}

func TestAppErrorUnwrap(t *testing.T) {
	origin := errors.New("boom")
	err := NewDatabaseError("insert", origin)
	assert.ErrorIs(t, err, origin)
}

func TestAppErrorToHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrValidationFailed:    http.StatusBadRequest,
		ErrInvalidArgument:     http.StatusBadRequest,
		ErrPostNotFound:        http.StatusNotFound,
		ErrCommentNotFound:     http.StatusNotFound,
		ErrReplyNotFound:       http.StatusNotFound,
		ErrUserNotFound:        http.StatusNotFound,
		ErrOpportunityNotFound: http.StatusNotFound,
		ErrAlreadyVoted:        http.StatusConflict,
		ErrDuplicate:           http.StatusConflict,
		ErrUnauthorized:        http.StatusUnauthorized,
		ErrForbidden:           http.StatusForbidden,
		ErrUnavailable:         http.StatusServiceUnavailable,
		ErrDatabase:            http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, AppErrorToHTTPStatus(code), code)
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(NewUnauthorizedError("missing token")))
	assert.True(t, IsAuthError(NewAppError(ErrForbidden, "nope", nil)))
	assert.False(t, IsAuthError(NewPostNotFoundError("p1")))
	assert.False(t, IsAuthError(errors.New("plain")))
}
