package helpers

import (
	"math"
	"net/http"
	"strconv"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 500

	// MaxPage keeps (page-1)*page_size within int for every accepted page size.
	MaxPage = math.MaxInt / MaxPageSize
)

// Page is an offset window requested through ?page=&page_size=.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and page_size from the query string. Invalid or missing values fall back
// to defaults, page is capped at MaxPage and page_size at MaxPageSize.
func ParsePage(r *http.Request) Page {
	p := Page{Number: DefaultPage, Size: DefaultPageSize}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		p.Number = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v >= 1 {
		p.Size = min(v, MaxPageSize)
	}
	return p
}

// Slice returns the items that fall on page p.
func Slice[T any](items []T, p Page) []T {
	if len(items) == 0 || p.Number < 1 || p.Size < 1 || p.Number-1 > (len(items)-1)/p.Size {
		return []T{}
	}
	start := (p.Number - 1) * p.Size
	return items[start : start+min(p.Size, len(items)-start)]
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for page p over total items.
func NewPaginationMeta(p Page, total int) PaginationMeta {
	totalPages := 0
	if p.Size > 0 {
		totalPages = (total + p.Size - 1) / p.Size
	}
	return PaginationMeta{Page: p.Number, PageSize: p.Size, Total: total, TotalPages: totalPages}
}
