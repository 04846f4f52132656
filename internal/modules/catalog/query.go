package catalog

import (
	"fmt"
	"strings"
)

// FilterOp is a predicate operator understood by repositories.
type FilterOp string

const (
	OpEq       FilterOp = "eq"
	OpContains FilterOp = "contains" // case-insensitive substring
	OpIn       FilterOp = "in"
)

// Filter is one AND-ed predicate on a products column.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// Order is the primary sort of a query.
type Order struct {
	Column    string
	Ascending bool
}

// QueryDescriptor is a backend-neutral description of a product query.
type QueryDescriptor struct {
	Filters []Filter
	Order   Order
	// From and To are the inclusive zero-based row window. To < 0 means unbounded.
	From int
	To   int
	// CountExact asks for the number of rows matching Filters, ignoring the window.
	CountExact bool
}

// Limit is the number of rows the window can hold, or -1 when unbounded.
func (q QueryDescriptor) Limit() int {
	if q.To < 0 {
		return -1
	}
	return q.To - q.From + 1
}

var sortOrders = map[SortOption]Order{
	SortModelNumber: {Column: "model_number", Ascending: true},
	SortMRPAsc:      {Column: "mrp", Ascending: true},
	SortMRPDesc:     {Column: "mrp", Ascending: false},
	SortNewest:      {Column: "created_at", Ascending: false},
}

// BuildQuery translates a view's query state into a descriptor for one catalog page.
func BuildQuery(state QueryState) (QueryDescriptor, error) {
	if state.Page < 0 {
		return QueryDescriptor{}, fmt.Errorf("%w: %d", ErrInvalidPage, state.Page)
	}

	filters := []Filter{{Column: "is_active", Op: OpEq, Value: true}}
	if state.CategoryID != "" {
		filters = append(filters, Filter{Column: "category_id", Op: OpEq, Value: state.CategoryID})
	}
	if term := strings.TrimSpace(state.SearchQuery); term != "" {
		filters = append(filters, Filter{Column: "model_number", Op: OpContains, Value: term})
	}

	order, ok := sortOrders[state.SortBy]
	if !ok {
		order = sortOrders[SortModelNumber]
	}

	from := state.Page * PageSize
	return QueryDescriptor{
		Filters:    filters,
		Order:      order,
		From:       from,
		To:         from + PageSize - 1,
		CountExact: true,
	}, nil
}

// buildCategorySetQuery describes "every active product in any of these categories",
// ordered by model number. An empty set means every active product.
func buildCategorySetQuery(categoryIDs []string) QueryDescriptor {
	filters := []Filter{{Column: "is_active", Op: OpEq, Value: true}}
	if len(categoryIDs) > 0 {
		filters = append(filters, Filter{Column: "category_id", Op: OpIn, Value: categoryIDs})
	}
	return QueryDescriptor{
		Filters: filters,
		Order:   sortOrders[SortModelNumber],
		From:    0,
		To:      -1,
	}
}

// TotalPages is ceil(totalCount / PageSize).
func TotalPages(totalCount int) int {
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + PageSize - 1) / PageSize
}

// HasMore reports whether another page follows the one just fetched.
func HasMore(rowsOnPage, page, totalCount int) bool {
	return rowsOnPage == PageSize && totalCount > (page+1)*PageSize
}
