package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"nest-hub/internal/api"
	"nest-hub/internal/middleware"
	"nest-hub/internal/utils"
)

// Request bodies larger than this are rejected.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// writeError maps err onto its status code. Errors that are not AppErrors
// are reported as database errors. Server-side failures also carry the
// original error text in detail.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrDatabase, err.Error(), nil)
	}
	status := utils.AppErrorToHTTPStatus(appErr.Code)
	resp := api.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", appErr.Code, "err", err)
		resp.Detail = appErr.Error()
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and validates its struct tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, utils.NewValidationError("Request body is required"))
		} else {
			writeError(w, utils.NewValidationError("Invalid request format"))
		}
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, utils.NewValidationError("Invalid request"))
			return false
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Code:    utils.ErrValidationFailed,
			Message: verrs[0].Field() + " is " + describeTag(verrs[0].Tag()),
			Details: details,
		})
		return false
	}
	return true
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	case "oneof":
		return "not an allowed value"
	default:
		return "invalid (" + tag + ")"
	}
}

// checkActor rejects a body actor id that differs from the token subject.
// Routes without authentication pass through.
func checkActor(r *http.Request, actorID string) error {
	subject, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || actorID == "" || subject == actorID {
		return nil
	}
	return utils.NewAppError(utils.ErrForbidden, "Cannot act on behalf of another user", nil)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.RequestTimeout)
}
