package normalize

// DefaultPageSize applies when a caller passes a page size below 1
const DefaultPageSize = 20

// PaginationParams is the page/pageSize pair the UI speaks
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// APIPaginationParams is the skip/limit pair the backend speaks
type APIPaginationParams struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// PaginatedResult is the canonical list shape handed to callers
type PaginatedResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	HasMore  bool  `json:"hasMore"`
	Shape    Shape `json:"-"`
	// Dropped counts list elements that could not be decoded into T
	Dropped int `json:"-"`
}

// Sanitize clamps page to 1 and page size to DefaultPageSize when below 1
func (p PaginationParams) Sanitize() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// ConvertToAPIParams maps page/pageSize to skip/limit
func ConvertToAPIParams(p PaginationParams) APIPaginationParams {
	p = p.Sanitize()
	return APIPaginationParams{
		Skip:  (p.Page - 1) * p.PageSize,
		Limit: p.PageSize,
	}
}

// HasMore reports whether another page exists after p
func HasMore(p PaginationParams, total int) bool {
	return p.Page*p.PageSize < total
}

// Paginate assembles a result from already extracted items
func Paginate[T any](items []T, total int, p PaginationParams) PaginatedResult[T] {
	p = p.Sanitize()
	if items == nil {
		items = []T{}
	}
	return PaginatedResult[T]{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  HasMore(p, total),
	}
}

// Empty is the zero result for p, used when a request fails
func Empty[T any](p PaginationParams) PaginatedResult[T] {
	return Paginate[T](nil, 0, p)
}
