package shared

import "math"

// Pagination mirrors the paginated envelope returned by the backend.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// NewPagination computes pagination metadata for a known total.
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{Total: total, Page: page, Size: size, Pages: pages}
}

// PageItem is a single slot in a rendered page control: either a page number
// or an ellipsis gap marker.
type PageItem struct {
	Number   int
	Ellipsis bool
}

// PageWindow computes the page numbers to show in a page control. Small page
// counts (up to seven) are returned verbatim. Otherwise the first page, the
// last page and every page within delta of current are kept, with a single
// ellipsis marker wherever kept pages are non-adjacent.
func PageWindow(current, total, delta int) []PageItem {
	if total <= 0 {
		return nil
	}
	if total <= 7 {
		window := make([]PageItem, 0, total)
		for p := 1; p <= total; p++ {
			window = append(window, PageItem{Number: p})
		}
		return window
	}

	var window []PageItem
	prev := 0
	for p := 1; p <= total; p++ {
		if p != 1 && p != total && abs(p-current) > delta {
			continue
		}
		if prev != 0 && p-prev > 1 {
			window = append(window, PageItem{Ellipsis: true})
		}
		window = append(window, PageItem{Number: p})
		prev = p
	}
	return window
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
