package history

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListFilter narrows a paginated listing. Zero values mean "no filter".
type ListFilter struct {
	Status   Status
	TestType TestType
	Search   string // case-insensitive substring over title, description, testTarget
	Page     int
	Limit    int
}

// Normalize clamps pagination to the documented defaults and bounds.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// PageMeta describes one page of results.
type PageMeta struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPageMeta computes meta for a page. Pages is never below 1, even when the
// collection is empty.
func NewPageMeta(page, limit int, total int64) PageMeta {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages < 1 {
		pages = 1
	}
	return PageMeta{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// PaginatedEntries represents a paginated response with items and metadata
type PaginatedEntries struct {
	Items []*HistoryEntry `json:"items"`
	Meta  PageMeta        `json:"meta"`
}

// TypePage is the flat pagination shape used by type-scoped listings.
type TypePage struct {
	Items []*HistoryEntry `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
