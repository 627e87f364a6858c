package domain

const (
	// DefaultPageLimit is the page size used when a caller gives none.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size a caller may ask for.
	MaxPageLimit = 100
	// MaxPage caps the page number so Offset stays far from integer overflow.
	MaxPage = 1_000_000
)

// PaginationParams selects one 1-indexed page of a tag listing.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams reads optional page and limit values. Missing or
// non-positive values fall back to page 1 and DefaultPageLimit; larger values
// are clamped to MaxPage and MaxPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = min(*page, MaxPage)
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply sets the query's limit and offset to this page.
func (p PaginationParams) Apply(q TagQuery) TagQuery {
	q.Limit, q.Offset = p.Limit, p.Offset()
	return q
}
