package listing

import (
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/utils"
)

type item struct {
	name    string
	kind    string
	skills  []string
	rank    int
	created time.Time
}

func (i item) ListingField(name string) any {
	switch name {
	case "type":
		return i.kind
	case "skills":
		return i.skills
	case "title":
		return i.name
	case "registered":
		return i.rank
	case "createdAt":
		return i.created
	}
	return nil
}

func makeItems(n int) []item {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]item, n)
	for i := range out {
		kind := "hackathon"
		if i%2 == 1 {
			kind = "quiz"
		}
		out[i] = item{
			name:    fmt.Sprintf("item-%02d", i),
			kind:    kind,
			skills:  []string{fmt.Sprintf("s%d", i%3)},
			rank:    n - i,
			created: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func parse(t *testing.T, raw string, schema Schema) Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := ParseParams(values, schema)
	require.NoError(t, err)
	return q
}

func TestParseParamsDefaults(t *testing.T) {
	q := parse(t, "", OpportunitySchema)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Empty(t, q.SortBy)
	assert.Empty(t, q.Filters)

	q = parse(t, "", PostSchema)
	assert.Equal(t, "createdAt", q.SortBy)
	assert.Equal(t, Descending, q.Order)
}

func TestParseParamsLimitPrecedence(t *testing.T) {
	assert.Equal(t, 20, parse(t, "limit=20&show=5", OpportunitySchema).Limit)
	assert.Equal(t, 5, parse(t, "show=5", OpportunitySchema).Limit)
	assert.Equal(t, 5, parse(t, "limit=0&show=5", OpportunitySchema).Limit)
	assert.Equal(t, 5, parse(t, "limit=abc&show=5", OpportunitySchema).Limit)
	assert.Equal(t, DefaultLimit, parse(t, "limit=-3", OpportunitySchema).Limit)
	assert.Equal(t, MaxLimit, parse(t, "limit=5000", OpportunitySchema).Limit)
}

func TestParseParamsPageClamp(t *testing.T) {
	assert.Equal(t, 1, parse(t, "page=0", OpportunitySchema).Page)
	assert.Equal(t, 1, parse(t, "page=x", OpportunitySchema).Page)
	assert.Equal(t, 3, parse(t, "page=3", OpportunitySchema).Page)
	assert.Equal(t, MaxPage, parse(t, "page=9223372036854775807", OpportunitySchema).Page)
	assert.Equal(t, MaxPage, parse(t, "page=99999999999999999999999", OpportunitySchema).Page)
	assert.Equal(t, MaxLimit, parse(t, "limit=99999999999999999999999", OpportunitySchema).Limit)
}

func TestSkipNeverNegative(t *testing.T) {
	cases := []struct {
		name string
		q    Query
		want int
	}{
		{"first page", Query{Page: 1, Limit: 10}, 0},
		{"zero page", Query{Page: 0, Limit: 10}, 0},
		{"third page", Query{Page: 3, Limit: 10}, 20},
		{"largest page", Query{Page: MaxPage, Limit: MaxLimit}, (MaxPage - 1) * MaxLimit},
		{"saturates", Query{Page: math.MaxInt, Limit: 10}, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.Skip())
		})
	}
}

func TestParseParamsFilters(t *testing.T) {
	q := parse(t, "type=hackathon&skills=go,%20rust,,", OpportunitySchema)
	require.Len(t, q.Filters, 2)
	assert.Equal(t, Predicate{Field: "skills", Values: []string{"go", "rust"}}, q.Filters[0])
	assert.Equal(t, Predicate{Field: "type", Values: []string{"hackathon"}}, q.Filters[1])
}

func TestParseParamsSort(t *testing.T) {
	q := parse(t, "sortBy=registered&sortOrder=desc", OpportunitySchema)
	assert.Equal(t, "registered", q.SortBy)
	assert.Equal(t, Descending, q.Order)

	q = parse(t, "sortBy=daysLeft&sortOrder=sideways", OpportunitySchema)
	assert.Equal(t, "days_left", q.SortBy)
	assert.Equal(t, Ascending, q.Order)

	q = parse(t, "sortBy=upvotes", PostSchema)
	assert.Equal(t, "votes.upvotes", q.SortBy)
	assert.Equal(t, Ascending, q.Order)

	_, err := ParseParams(url.Values{"sortBy": {"password"}}, OpportunitySchema)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailed))
}

func TestApplySecondPage(t *testing.T) {
	q := parse(t, "page=2&limit=5", OpportunitySchema)
	res := Apply(makeItems(12), q)

	assert.Equal(t, int64(12), res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 5, res.Limit)
	require.Len(t, res.Data, 5)
	assert.Equal(t, "item-05", res.Data[0].name)
}

func TestApplyLastAndPastPages(t *testing.T) {
	res := Apply(makeItems(12), parse(t, "page=3&limit=5", OpportunitySchema))
	assert.Len(t, res.Data, 2)

	res = Apply(makeItems(12), parse(t, "page=9&limit=5", OpportunitySchema))
	assert.Empty(t, res.Data)
	assert.NotNil(t, res.Data)
	assert.Equal(t, 3, res.Pages)
}

func TestApplyHugePageIsEmpty(t *testing.T) {
	for _, raw := range []string{
		"page=9223372036854775807&limit=10",
		"page=9223372036854775807&limit=100",
		"page=99999999999999999999999&show=1",
	} {
		t.Run(raw, func(t *testing.T) {
			var res Result[item]
			require.NotPanics(t, func() {
				res = Apply(makeItems(12), parse(t, raw, OpportunitySchema))
			})
			assert.Empty(t, res.Data)
			assert.NotNil(t, res.Data)
			assert.Equal(t, int64(12), res.Total)
		})
	}

	res := Apply(makeItems(3), Query{Page: math.MaxInt, Limit: 10})
	assert.Empty(t, res.Data)
}

func TestApplyLimitBeatsShow(t *testing.T) {
	res := Apply(makeItems(30), parse(t, "limit=20&show=5", OpportunitySchema))
	assert.Len(t, res.Data, 20)
	assert.Equal(t, 2, res.Pages)
}

func TestApplyFiltersAndSort(t *testing.T) {
	items := makeItems(12)

	res := Apply(items, parse(t, "type=quiz", OpportunitySchema))
	assert.Equal(t, int64(6), res.Total)
	for _, it := range res.Data {
		assert.Equal(t, "quiz", it.kind)
	}

	res = Apply(items, parse(t, "skills=s0,s1&limit=100", OpportunitySchema))
	assert.Equal(t, int64(8), res.Total)

	res = Apply(items, parse(t, "sortBy=registered", OpportunitySchema))
	assert.Equal(t, 1, res.Data[0].rank)

	res = Apply(items, parse(t, "sortBy=createdAt&sortOrder=desc", OpportunitySchema))
	assert.Equal(t, "item-11", res.Data[0].name)
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 0, Pages(5, 0))
}
