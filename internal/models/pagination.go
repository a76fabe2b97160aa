package models

// DefaultPageSize is used when a listing is asked for a non-positive page size.
const DefaultPageSize = 12

// Pagination describes one page of a listing. Pages are 1-based.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// NewPagination clamps page into [1, TotalPages]. An empty listing still
// has one page.
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// Offset is the number of rows before this page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p Pagination) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p Pagination) NextPage() int { return p.Page + 1 }
