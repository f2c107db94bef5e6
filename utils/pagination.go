package utils

import "strconv"

// Pagination describes one page of a LIMIT/OFFSET listing.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
	Next        int   `json:"next,omitempty"`
	Prev        int   `json:"prev,omitempty"`
	StartItem   int64 `json:"start_item"`
	EndItem     int64 `json:"end_item"`
}

// NewPagination derives page metadata; totalPages rounds up.
func NewPagination(page, perPage int, total int64) Pagination {
	if perPage <= 0 {
		perPage = 1
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	p := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     perPage,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
	if p.HasNext {
		p.Next = page + 1
	}
	if p.HasPrev {
		p.Prev = page - 1
	}
	// Pages past the end have no items.
	if start := int64(page-1)*int64(perPage) + 1; start <= total {
		p.StartItem = start
		p.EndItem = min(int64(page)*int64(perPage), total)
	}
	return p
}

// Offset is the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

// ParsePage reads a 1-based page number, defaulting to 1.
func ParsePage(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 1
}
