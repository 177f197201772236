package query

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination selects one page of a sorted result. A zero PageSize means the
// whole result is returned.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps page to >= 1 and size to [1, MaxPageSize].
func NewPagination(page, size int) Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Pagination{Page: page, PageSize: size}
}

// Offset saturates at math.MaxInt so a page far past the end stays empty
// instead of wrapping to a negative offset.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	if p.PageSize > 0 && p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Limit is the SQL LIMIT for the page; -1 removes the limit in SQLite.
func (p Pagination) Limit() int {
	if p.PageSize < 1 {
		return -1
	}
	return p.PageSize
}

// Page is one window of a filtered result together with the size of the
// whole result.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

func (p Page[T]) TotalPages() int {
	if p.PageSize < 1 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func (p Page[T]) Meta() Meta {
	return Meta{Page: p.Page, Limit: p.PageSize, Pages: p.TotalPages()}
}
