package catalog

import (
	"fmt"
	"net/url"
	"strconv"

	"dummyshop/storefront/internal/domain"
)

// PageSize is the fixed number of products requested per page.
const PageSize = 20

const summaryFields = "id,title,price,thumbnail"

type Endpoint int

const (
	EndpointList Endpoint = iota
	EndpointCategory
	EndpointSearch
)

func (e Endpoint) String() string {
	switch e {
	case EndpointCategory:
		return "category"
	case EndpointSearch:
		return "search"
	default:
		return "list"
	}
}

// Query is a fully derived remote listing request.
type Query struct {
	Endpoint Endpoint
	Category string
	Params   url.Values
}

// Segments is the path below the API base URL.
func (q Query) Segments() []string {
	switch q.Endpoint {
	case EndpointSearch:
		return []string{"products", "search"}
	case EndpointCategory:
		return []string{"products", "category", q.Category}
	default:
		return []string{"products"}
	}
}

// BuildQuery derives the request for the 1-based page of f. A non-empty
// search text takes precedence over the category.
func BuildQuery(f Filter, page int) (Query, error) {
	if page < 1 {
		return Query{}, fmt.Errorf("%w: page %d", ErrInvalidFilter, page)
	}
	f = f.Normalize()
	if err := f.validate(); err != nil {
		return Query{}, err
	}
	sortBy, order, _ := ParseSortOrder(f.SortOrder)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(PageSize))
	params.Set("skip", strconv.Itoa((page-1)*PageSize))
	params.Set("select", summaryFields)
	params.Set("sortBy", sortBy)
	params.Set("order", order)

	q := Query{Params: params}
	switch {
	case f.Query != "":
		q.Endpoint = EndpointSearch
		params.Set("q", f.Query)
	case f.AllCategories():
		q.Endpoint = EndpointList
	default:
		q.Endpoint = EndpointCategory
		q.Category = f.Category
	}
	return q, nil
}

// HasMore reports whether another page exists after the last one in pages.
// With no pages loaded the first page is always available.
func HasMore(pages []domain.ProductPage) bool {
	if len(pages) == 0 {
		return true
	}
	last := pages[len(pages)-1]
	return last.Fetched() < last.Total
}

// NextPage returns the page number to request after pages, if any.
func NextPage(pages []domain.ProductPage) (int, bool) {
	if !HasMore(pages) {
		return 0, false
	}
	return len(pages) + 1, true
}
