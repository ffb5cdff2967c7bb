package listing

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Record exposes the named fields a Query filters and sorts on.
type Record interface {
	ListingField(name string) any
}

// Apply evaluates q over items the way the document store would: filter,
// stable sort, then skip and limit.
func Apply[T Record](items []T, q Query) Result[T] {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(item, q.Filters) {
			matched = append(matched, item)
		}
	}

	if q.SortBy != "" {
		slices.SortStableFunc(matched, func(a, b T) int {
			c := compareValues(a.ListingField(q.SortBy), b.ListingField(q.SortBy))
			if q.Order == Descending {
				return -c
			}
			return c
		})
	}

	total := int64(len(matched))
	start := min(max(q.Skip(), 0), len(matched))
	end := start + min(max(q.Limit, 0), len(matched)-start)
	return NewResult(matched[start:end], total, q)
}

// Matches reports whether every predicate holds for item.
func Matches(item Record, filters []Predicate) bool {
	for _, f := range filters {
		if !matchPredicate(item.ListingField(f.Field), f.Values) {
			return false
		}
	}
	return true
}

// A scalar matches when it equals any value; an array matches when it shares one.
func matchPredicate(field any, values []string) bool {
	switch v := field.(type) {
	case string:
		return slices.Contains(values, v)
	case []string:
		for _, want := range values {
			if slices.Contains(v, want) {
				return true
			}
		}
		return false
	case nil:
		return false
	default:
		return slices.Contains(values, fmt.Sprint(v))
	}
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return cmp.Compare(av, bv)
	case int:
		bv, _ := b.(int)
		return cmp.Compare(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}
