package models

// Pagination is a LIMIT/OFFSET window over a filtered query.
type Pagination struct {
	Limit  int64 `json:"limit" form:"limit"`
	Offset int64 `json:"offset" form:"offset"`
}

// Sorting selects an order clause. SortBy values outside the set a query
// supports fall back to that query's default ordering rather than erroring.
type Sorting struct {
	SortBy        string `json:"sortBy" form:"sortBy"`
	SortDirection string `json:"sortDirection" form:"sortDirection"`
}

// PaginatedResult is the shared envelope for every paginated listing.
// Total is the count of all matching rows independent of the window.
type PaginatedResult[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

// NewPaginatedResult assembles the envelope from raw rows plus a total count.
func NewPaginatedResult[T any](items []T, total int64, p Pagination) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:  items,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}
