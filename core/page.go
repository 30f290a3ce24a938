package core

// PageResult is the pagination envelope for list endpoints.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int64 `json:"pages"`
}

// NewPageResult builds a PageResult, computing the page count from the total.
func NewPageResult[T any](items []T, total int64, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if size > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}
	return PageResult[T]{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
}
