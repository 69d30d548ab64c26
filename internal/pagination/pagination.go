// Package pagination computes the page buttons shown under a result list.
package pagination

import (
	"strconv"
	"strings"
)

const (
	// Wide is the number of contiguous pages shown on a normal terminal.
	Wide = 5
	// Narrow is used below the configured narrow width.
	Narrow = 3
)

// Item is a page number or a gap marker.
type Item struct {
	Page     int
	Ellipsis bool
}

func (i Item) String() string {
	if i.Ellipsis {
		return "…"
	}
	return strconv.Itoa(i.Page)
}

// Window returns the pages to display for current out of total, with at
// most maxVisible contiguous pages around current. The first and last page
// are always present; gaps are marked with an ellipsis. A single page (or
// none) yields an empty window.
func Window(current, total, maxVisible int) []Item {
	if total <= 1 {
		return nil
	}
	if maxVisible < 1 {
		maxVisible = 1
	}
	current = max(1, min(current, total))

	if total <= maxVisible {
		items := make([]Item, 0, total)
		for p := 1; p <= total; p++ {
			items = append(items, Item{Page: p})
		}
		return items
	}

	start := max(1, current-maxVisible/2)
	end := min(total, start+maxVisible-1)
	if end-start+1 < maxVisible {
		start = max(1, end-maxVisible+1)
	}

	items := make([]Item, 0, maxVisible+4)
	if start > 1 {
		items = append(items, Item{Page: 1})
		if start > 2 {
			items = append(items, Item{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		items = append(items, Item{Page: p})
	}
	if end < total {
		if end < total-1 {
			items = append(items, Item{Ellipsis: true})
		}
		items = append(items, Item{Page: total})
	}
	return items
}

// MaxVisible picks the window size for a terminal width.
func MaxVisible(width, narrowWidth int) int {
	if width > 0 && width < narrowWidth {
		return Narrow
	}
	return Wide
}

// pages returns only the page numbers of items.
func pages(items []Item) []int {
	pages := make([]int, 0, len(items))
	for _, it := range items {
		if !it.Ellipsis {
			pages = append(pages, it.Page)
		}
	}
	return pages
}

// Render draws items as text, bracketing the current page. The previous and
// next arrows are included when moving in that direction is possible.
func Render(items []Item, current int) string {
	if len(items) == 0 {
		return ""
	}
	last := items[len(items)-1].Page

	parts := make([]string, 0, len(items)+2)
	if current > 1 {
		parts = append(parts, "‹")
	}
	for _, it := range items {
		if !it.Ellipsis && it.Page == current {
			parts = append(parts, "["+it.String()+"]")
			continue
		}
		parts = append(parts, it.String())
	}
	if current < last {
		parts = append(parts, "›")
	}
	return strings.Join(parts, " ")
}
