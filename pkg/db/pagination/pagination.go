package pagination

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// Pagination carries page/limit query parameters for list endpoints.
type Pagination struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page and limit to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Result describes a page of results for API responses.
type Result struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
	Limit       int   `json:"limit"`
}

// NewResult computes the page envelope for a total row count.
func NewResult(p Pagination, total int64) Result {
	p = p.Normalize()
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	return Result{
		CurrentPage: p.Page,
		TotalPages:  pages,
		TotalCount:  total,
		Limit:       p.Limit,
	}
}
