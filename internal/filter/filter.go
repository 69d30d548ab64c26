// Package filter holds the search, sort and pagination criteria that drive
// the article query. Criteria is a value: every operation returns a new one.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/mrkt/internal/marketplace"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 12
)

type Criteria struct {
	Category    string
	SubCategory string
	Author      string
	Title       string
	Content     string
	StartDate   time.Time
	EndDate     time.Time
	Page        int
	PageSize    int
	SortBy      marketplace.SortField
	SortOrder   marketplace.SortOrder
}

// Patch carries optional changes. A nil field is left alone; a non-nil
// empty value clears the field.
type Patch struct {
	Category    *string
	SubCategory *string
	Author      *string
	Title       *string
	Content     *string
	StartDate   *time.Time
	EndDate     *time.Time
	PageSize    *int
	SortBy      *marketplace.SortField
	SortOrder   *marketplace.SortOrder
}

// Value returns a pointer to v, for building patches.
func Value[T any](v T) *T {
	return &v
}

func Default() Criteria {
	return Criteria{
		Page:      DefaultPage,
		PageSize:  DefaultPageSize,
		SortBy:    marketplace.SortByDate,
		SortOrder: marketplace.Descending,
	}
}

// Apply merges p into c. The page always goes back to 1, and a new
// category clears the sub-category.
func (c Criteria) Apply(p Patch) Criteria {
	next := c

	categoryChanged := false
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		categoryChanged = category != c.Category
		next.Category = category
	}
	if p.SubCategory != nil {
		next.SubCategory = strings.TrimSpace(*p.SubCategory)
	}
	if categoryChanged || next.Category == "" {
		next.SubCategory = ""
	}

	if p.Author != nil {
		next.Author = strings.TrimSpace(*p.Author)
	}
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		next.Content = strings.TrimSpace(*p.Content)
	}
	if p.StartDate != nil {
		next.StartDate = truncateDay(*p.StartDate)
	}
	if p.EndDate != nil {
		next.EndDate = truncateDay(*p.EndDate)
	}
	if p.PageSize != nil {
		next.PageSize = sanitizePageSize(*p.PageSize)
	}
	if p.SortBy != nil && p.SortBy.Valid() {
		next.SortBy = *p.SortBy
	}
	if p.SortOrder != nil && (*p.SortOrder == marketplace.Ascending || *p.SortOrder == marketplace.Descending) {
		next.SortOrder = *p.SortOrder
	}

	next.Page = DefaultPage
	return next
}

// CommitSearch stores a debounced title term. An empty term removes the
// title filter.
func (c Criteria) CommitSearch(term string) Criteria {
	return c.Apply(Patch{Title: &term})
}

// Reset discards every filter.
func (c Criteria) Reset() Criteria {
	return Default()
}

// WithPage moves to page n without touching the filters.
func (c Criteria) WithPage(n int) Criteria {
	if n < 1 {
		n = 1
	}
	c.Page = n
	return c
}

// WithPageSize changes the page size and goes back to the first page.
func (c Criteria) WithPageSize(n int) Criteria {
	return c.Apply(Patch{PageSize: &n})
}

// Active reports whether any narrowing filter is set.
func (c Criteria) Active() bool {
	return c.Category != "" || c.SubCategory != "" || c.Author != "" || c.Title != "" ||
		c.Content != "" || !c.StartDate.IsZero() || !c.EndDate.IsZero()
}

func (c Criteria) Query() marketplace.ArticleQuery {
	return marketplace.ArticleQuery{
		Category:    c.Category,
		SubCategory: c.SubCategory,
		Author:      c.Author,
		Title:       c.Title,
		Content:     c.Content,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Page:        c.Page,
		Limit:       c.PageSize,
		SortBy:      c.SortBy,
		SortOrder:   c.SortOrder,
	}
}

// Key identifies the result set the criteria select.
func (c Criteria) Key() string {
	return c.Query().Encode()
}

// Describe returns short labels for the active filters.
func (c Criteria) Describe() []string {
	var labels []string
	if c.Title != "" {
		labels = append(labels, fmt.Sprintf("title ~ %q", c.Title))
	}
	if c.Author != "" {
		labels = append(labels, fmt.Sprintf("author ~ %q", c.Author))
	}
	if c.Content != "" {
		labels = append(labels, fmt.Sprintf("content ~ %q", c.Content))
	}
	if c.Category != "" {
		label := "category: " + c.Category
		if c.SubCategory != "" {
			label += " › " + c.SubCategory
		}
		labels = append(labels, label)
	}
	switch {
	case !c.StartDate.IsZero() && !c.EndDate.IsZero():
		labels = append(labels, fmt.Sprintf("%s → %s", c.StartDate.Format(marketplace.DateLayout), c.EndDate.Format(marketplace.DateLayout)))
	case !c.StartDate.IsZero():
		labels = append(labels, "since "+c.StartDate.Format(marketplace.DateLayout))
	case !c.EndDate.IsZero():
		labels = append(labels, "until "+c.EndDate.Format(marketplace.DateLayout))
	}
	return labels
}

// SortLabel renders the sort field and direction.
func (c Criteria) SortLabel() string {
	arrow := "↓"
	if c.SortOrder == marketplace.Ascending {
		arrow = "↑"
	}
	return fmt.Sprintf("sort: %s %s", c.SortBy.Label(), arrow)
}

func sanitizePageSize(n int) int {
	if n < 1 {
		return DefaultPageSize
	}
	return n
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
