// Package listing parses paginated list queries and evaluates them in memory.
package listing

import (
	"errors"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"nest-hub/internal/utils"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside int for any accepted limit.
	MaxPage = math.MaxInt / MaxLimit
)

type Order int

const (
	Ascending  Order = 1
	Descending Order = -1
)

// Predicate matches a field against one or more values. A single value is an
// equality test; several values match when any of them is present.
type Predicate struct {
	Field  string
	Values []string
}

type Query struct {
	Filters []Predicate
	SortBy  string // empty leaves store order
	Order   Order
	Page    int
	Limit   int
}

// Skip is the number of matches before the requested page. It is never
// negative and saturates instead of overflowing.
func (q Query) Skip() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Schema describes which query parameters a collection accepts.
type Schema struct {
	// Parameter name to stored field, compared by equality.
	Equality map[string]string
	// Parameter name to stored field; the value is a comma separated any-of list.
	Membership map[string]string
	// sortBy value to stored field.
	Sortable     map[string]string
	DefaultSort  string
	DefaultOrder Order
}

var PostSchema = Schema{
	Equality:   map[string]string{"postedBy": "postedBy"},
	Membership: map[string]string{"tags": "tags"},
	Sortable: map[string]string{
		"createdAt": "createdAt",
		"updatedAt": "updatedAt",
		"upvotes":   "votes.upvotes",
		"downvotes": "votes.downvotes",
	},
	DefaultSort:  "createdAt",
	DefaultOrder: Descending,
}

var OpportunitySchema = Schema{
	Equality:   map[string]string{"type": "type"},
	Membership: map[string]string{"skills": "skills"},
	Sortable: map[string]string{
		"title":      "title",
		"organizer":  "organizer",
		"type":       "type",
		"registered": "registered",
		"days_left":  "days_left",
		"daysLeft":   "days_left",
		"createdAt":  "createdAt",
		"updatedAt":  "updatedAt",
	},
}

// ParseParams builds a Query from request parameters.
func ParseParams(values url.Values, schema Schema) (Query, error) {
	q := Query{
		Page:  min(positiveInt(values.Get("page"), 1), MaxPage),
		Limit: parseLimit(values),
		Order: Ascending,
	}

	for param, field := range schema.Equality {
		if v := strings.TrimSpace(values.Get(param)); v != "" {
			q.Filters = append(q.Filters, Predicate{Field: field, Values: []string{v}})
		}
	}
	for param, field := range schema.Membership {
		if vs := splitList(values.Get(param)); len(vs) > 0 {
			q.Filters = append(q.Filters, Predicate{Field: field, Values: vs})
		}
	}
	// map iteration order is random
	slices.SortFunc(q.Filters, func(a, b Predicate) int { return strings.Compare(a.Field, b.Field) })

	if sortBy := strings.TrimSpace(values.Get("sortBy")); sortBy != "" {
		field, ok := schema.Sortable[sortBy]
		if !ok {
			return Query{}, utils.NewValidationError("Unsupported sortBy field: %s", sortBy)
		}
		q.SortBy = field
		if strings.EqualFold(values.Get("sortOrder"), "desc") {
			q.Order = Descending
		}
	} else if schema.DefaultSort != "" {
		q.SortBy = schema.DefaultSort
		q.Order = schema.DefaultOrder
	}

	return q, nil
}

// limit wins over the legacy show alias; absent or non-positive values fall through.
func parseLimit(values url.Values) int {
	limit := positiveInt(values.Get("limit"), 0)
	if limit == 0 {
		limit = positiveInt(values.Get("show"), DefaultLimit)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

// positiveInt saturates values too large for int rather than rejecting them.
func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return n
	}
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Result is the paginated response shape.
type Result[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
	Data  []T   `json:"data"`
}

func NewResult[T any](data []T, total int64, q Query) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Total: total,
		Page:  q.Page,
		Pages: Pages(total, q.Limit),
		Limit: q.Limit,
		Data:  data,
	}
}

// Pages is ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
