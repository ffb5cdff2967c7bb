// Package api holds the JSON envelopes written by the HTTP handlers.
package api

import "nest-hub/internal/listing"

// Response wraps a single successful payload.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details lists per-field validation failures.
	Details map[string]string `json:"details,omitempty"`
	// Detail carries the underlying error text of internal failures.
	Detail string `json:"detail,omitempty"`
}

// ListResponse is the paginated listing envelope.
type ListResponse[T any] struct {
	Success bool  `json:"success"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	Limit   int   `json:"limit"`
	Data    []T   `json:"data"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

func List[T any](res listing.Result[T]) ListResponse[T] {
	data := res.Data
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Success: true,
		Total:   res.Total,
		Page:    res.Page,
		Pages:   res.Pages,
		Limit:   res.Limit,
		Data:    data,
	}
}
