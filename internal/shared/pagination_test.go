package shared

import (
	"reflect"
	"testing"
)

func numbers(items []PageItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		if it.Ellipsis {
			out = append(out, -1)
			continue
		}
		out = append(out, it.Number)
	}
	return out
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	if p.Pages != 3 {
		t.Fatalf("pages = %d, want 3", p.Pages)
	}
	if p.Total != 21 || p.Page != 2 || p.Size != 10 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 5)
	if p.Page != 1 || p.Size != 10 {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if p.Pages != 1 {
		t.Fatalf("pages = %d, want 1", p.Pages)
	}
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, 10, 0)
	if p.Pages != 0 {
		t.Fatalf("pages = %d, want 0", p.Pages)
	}
}

func TestPageWindowSmallCountVerbatim(t *testing.T) {
	for total := 1; total <= 7; total++ {
		got := numbers(PageWindow(1, total, 2))
		want := make([]int, total)
		for i := range want {
			want[i] = i + 1
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("total=%d: got %v, want %v", total, got, want)
		}
	}
}

func TestPageWindowMiddle(t *testing.T) {
	got := numbers(PageWindow(10, 20, 2))
	want := []int{1, -1, 8, 9, 10, 11, 12, -1, 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPageWindowNearStart(t *testing.T) {
	got := numbers(PageWindow(2, 20, 2))
	want := []int{1, 2, 3, 4, -1, 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPageWindowNearEnd(t *testing.T) {
	got := numbers(PageWindow(19, 20, 2))
	want := []int{1, -1, 17, 18, 19, 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPageWindowAdjacentGapsCollapse(t *testing.T) {
	// A gap of exactly one page still renders as an ellipsis marker,
	// never as a duplicate page number.
	got := numbers(PageWindow(5, 8, 2))
	want := []int{1, -1, 3, 4, 5, 6, 7, 8}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPageWindowZeroTotal(t *testing.T) {
	if got := PageWindow(1, 0, 2); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
