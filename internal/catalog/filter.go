package catalog

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultCategory  = "all"
	DefaultSortOrder = "title-asc"
)

var ErrInvalidFilter = errors.New("invalid catalog filter")

// Filter is the (category, sort order, query) tuple. It is comparable and is
// used directly as the feed key.
type Filter struct {
	Category  string `json:"category"`
	SortOrder string `json:"sortOrder"`
	Query     string `json:"query"`
}

func NewFilter(category, sortOrder, query string) Filter {
	return Filter{Category: category, SortOrder: sortOrder, Query: query}.Normalize()
}

// Normalize trims every field and fills in defaults.
func (f Filter) Normalize() Filter {
	f.Category = strings.TrimSpace(f.Category)
	f.SortOrder = strings.TrimSpace(f.SortOrder)
	f.Query = strings.TrimSpace(f.Query)
	if f.Category == "" {
		f.Category = DefaultCategory
	}
	if f.SortOrder == "" {
		f.SortOrder = DefaultSortOrder
	}
	return f
}

// AllCategories reports whether the filter spans every category.
func (f Filter) AllCategories() bool {
	return f.Category == "" || f.Category == DefaultCategory
}

// WithCategory mirrors the category picker: it keeps the sort order and
// clears the search text.
func (f Filter) WithCategory(category string) Filter {
	return Filter{Category: category, SortOrder: f.SortOrder}.Normalize()
}

func (f Filter) WithSortOrder(sortOrder string) Filter {
	f.SortOrder = sortOrder
	return f.Normalize()
}

// WithQuery mirrors the search box: a new search resets category and sort.
func (f Filter) WithQuery(query string) Filter {
	return Filter{Query: query}.Normalize()
}

// ParseSortOrder splits "field-direction" into its parts, e.g.
// "price-desc" into ("price", "desc").
func ParseSortOrder(s string) (sortBy, order string, err error) {
	sortBy, order, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || sortBy == "" {
		return "", "", fmt.Errorf("%w: sort order %q", ErrInvalidFilter, s)
	}
	order = strings.ToLower(order)
	if order != "asc" && order != "desc" {
		return "", "", fmt.Errorf("%w: sort direction %q", ErrInvalidFilter, order)
	}
	return sortBy, order, nil
}

func (f Filter) validate() error {
	if _, _, err := ParseSortOrder(f.SortOrder); err != nil {
		return err
	}
	if f.Query == "" && !validCategory(f.Category) {
		return fmt.Errorf("%w: category %q", ErrInvalidFilter, f.Category)
	}
	return nil
}

// validCategory reports whether c can be used as a single path segment.
// Dot segments would be cleaned away and land on a different endpoint.
func validCategory(c string) bool {
	return c != "." && c != ".." && !strings.ContainsAny(c, "/\\?#")
}
