package store

// Pagination defaults and bounds shared by every listing endpoint.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is the canonical, bounded form of a client-supplied
// pagination request. Construct it with NewPageRequest so the defaults
// and the pageSize cap always apply.
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest normalizes raw page/pageSize values: zero or negative
// values fall back to the defaults, and pageSize above MaxPageSize is
// silently capped, not rejected.
func NewPageRequest(page, pageSize int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// Offset derives the zero-based start index for the requested page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// UserFilters carries the optional substring filters for user listings.
// The same value drives both List and Count so totals stay consistent
// with page contents. Strings pass through unchanged; the parameterized
// queries provide the only sanitization.
type UserFilters struct {
	Name  string
	Email string
}
