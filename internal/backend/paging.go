package backend

import "github.com/pulseboard/pulseboard/internal/shared"

// PageQuery carries the paging half of a list request. Feature queries
// embed it next to their own filters.
type PageQuery struct {
	Page int `json:"page,omitempty"`
	Size int `json:"size,omitempty"`
}

// PageResult is one page of a list endpoint response.
type PageResult[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
	Items []T `json:"items"`
}

// Pagination extracts the metadata for rendering a page control.
func (p *PageResult[T]) Pagination() shared.Pagination {
	return shared.Pagination{Total: p.Total, Page: p.Page, Size: p.Size, Pages: p.Pages}
}
