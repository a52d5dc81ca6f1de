package shared

import (
	"strconv"
	"strings"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	Page   int
	Limit  int
	Search string
}

// Normalize clamps paging values into the supported range.
func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset returns the row offset of the current page.
func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Where joins conds onto the live-row predicate.
func Where(conds ...string) string {
	return " WHERE " + strings.Join(append([]string{LivePredicate}, conds...), " AND ")
}

// Placeholder returns the positional parameter for index n.
func Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
