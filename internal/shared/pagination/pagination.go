// Package pagination holds the page request/result shapes shared by list
// queries.
package pagination

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	MaxPageSize       = 100
)

// PageRequest is a 1-based page request.
type PageRequest struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps non-positive values to the defaults and caps the page
// size at MaxPageSize.
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber < 1 {
		p.PageNumber = DefaultPageNumber
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip. Call it on a normalized request.
func (p PageRequest) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// PaginatedResult is one page of T plus the numbers a client needs to page
// through the rest. Build it with New.
type PaginatedResult[T any] struct {
	Items           []T   `json:"items"`
	PageNumber      int   `json:"pageNumber"`
	TotalPages      int   `json:"totalPages"`
	TotalCount      int64 `json:"totalCount"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

// New builds a result from the current page's items and the total count of
// the filtered set before paging. Page and size are the requested values, not
// the number of returned rows.
func New[T any](items []T, totalCount int64, pageNumber, pageSize int) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}

	return PaginatedResult[T]{
		Items:           items,
		PageNumber:      pageNumber,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}
}
