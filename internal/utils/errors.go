package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Input errors
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrInvalidArgument  = "INVALID_ARGUMENT"

	// Resource errors
	ErrNotFound            = "NOT_FOUND"
	ErrUserNotFound        = "USER_NOT_FOUND"
	ErrPostNotFound        = "POST_NOT_FOUND"
	ErrCommentNotFound     = "COMMENT_NOT_FOUND"
	ErrReplyNotFound       = "REPLY_NOT_FOUND"
	ErrOpportunityNotFound = "OPPORTUNITY_NOT_FOUND"
	ErrDuplicate           = "DUPLICATE"

	// Voting
	ErrAlreadyVoted = "ALREADY_VOTED"

	// Authentication/Authorization errors
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN" // authenticated, but acting as someone else
	ErrInvalidToken       = "INVALID_TOKEN"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Store or downstream failures
	ErrUnavailable = "UNAVAILABLE"
	ErrDatabase    = "database_error"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewValidationError(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewPostNotFoundError(postID string) *AppError {
	return &AppError{
		Code:    ErrPostNotFound,
		Message: "Post not found: " + postID,
	}
}

func NewCommentNotFoundError(commentID string) *AppError {
	return &AppError{
		Code:    ErrCommentNotFound,
		Message: "Comment not found: " + commentID,
	}
}

func NewReplyNotFoundError(replyID string) *AppError {
	return &AppError{
		Code:    ErrReplyNotFound,
		Message: "Reply not found: " + replyID,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewDatabaseError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrDatabase,
		Message: "Database error during " + op,
		Origin:  err,
	}
}

// AsAppError unwraps err until it finds an *AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	return AppErrorToHTTPStatus(appErr.Code) == http.StatusNotFound
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrPostNotFound, ErrCommentNotFound,
		ErrReplyNotFound, ErrOpportunityNotFound:
		return http.StatusNotFound
	case ErrValidationFailed, ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken, ErrInvalidCredentials:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicate, ErrAlreadyVoted:
		return http.StatusConflict
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrDatabase:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
