package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/marketplace"
)

func busyCriteria() Criteria {
	return Criteria{
		Category:    "Tech",
		SubCategory: "IA",
		Author:      "Alice",
		Title:       "gpt",
		Content:     "modèle",
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Page:        7,
		PageSize:    48,
		SortBy:      marketplace.SortByTitle,
		SortOrder:   marketplace.Ascending,
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, 12, c.PageSize)
	assert.Equal(t, marketplace.SortByDate, c.SortBy)
	assert.Equal(t, marketplace.Descending, c.SortOrder)
	assert.False(t, c.Active())
}

func TestApplyAlwaysResetsPage(t *testing.T) {
	patches := map[string]Patch{
		"empty":        {},
		"category":     {Category: Value("Web")},
		"sub-category": {SubCategory: Value("SEO")},
		"author":       {Author: Value("Bob")},
		"title":        {Title: Value("")},
		"content":      {Content: Value("ads")},
		"start date":   {StartDate: Value(time.Date(2023, 5, 1, 13, 0, 0, 0, time.UTC))},
		"end date":     {EndDate: Value(time.Time{})},
		"page size":    {PageSize: Value(24)},
		"sort by":      {SortBy: Value(marketplace.SortByAuthor)},
		"sort order":   {SortOrder: Value(marketplace.Descending)},
	}

	for name, p := range patches {
		t.Run(name, func(t *testing.T) {
			got := busyCriteria().Apply(p)
			assert.Equal(t, 1, got.Page)
		})
	}
}

func TestApplyCategoryClearsSubCategory(t *testing.T) {
	c := busyCriteria()

	got := c.Apply(Patch{Category: Value("Marketing")})
	assert.Equal(t, "Marketing", got.Category)
	assert.Empty(t, got.SubCategory)

	// a sub-category supplied alongside a new category does not survive it
	got = c.Apply(Patch{Category: Value("Social"), SubCategory: Value("IA")})
	assert.Empty(t, got.SubCategory)

	got = c.Apply(Patch{Category: Value("")})
	assert.Empty(t, got.Category)
	assert.Empty(t, got.SubCategory)
}

func TestApplySameCategoryKeepsSubCategory(t *testing.T) {
	got := busyCriteria().Apply(Patch{Category: Value("Tech")})
	assert.Equal(t, "IA", got.SubCategory)
}

func TestApplySubCategoryNeedsCategory(t *testing.T) {
	got := Default().Apply(Patch{SubCategory: Value("SEO")})
	assert.Empty(t, got.SubCategory)

	got = Default().Apply(Patch{Category: Value("Web")}).Apply(Patch{SubCategory: Value("SEO")})
	assert.Equal(t, "Web", got.Category)
	assert.Equal(t, "SEO", got.SubCategory)
}

func TestApplyLeavesUntouchedFields(t *testing.T) {
	c := busyCriteria()
	got := c.Apply(Patch{Author: Value("  Carol ")})

	assert.Equal(t, "Carol", got.Author)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, c.Content, got.Content)
	assert.Equal(t, c.Category, got.Category)
	assert.Equal(t, c.SubCategory, got.SubCategory)
	assert.Equal(t, c.StartDate, got.StartDate)
	assert.Equal(t, c.PageSize, got.PageSize)
	assert.Equal(t, c.SortBy, got.SortBy)
	assert.Equal(t, c.SortOrder, got.SortOrder)
}

func TestApplyIgnoresInvalidSort(t *testing.T) {
	c := busyCriteria()
	got := c.Apply(Patch{
		SortBy:    Value(marketplace.SortField("prix")),
		SortOrder: Value(marketplace.SortOrder("sideways")),
	})
	assert.Equal(t, c.SortBy, got.SortBy)
	assert.Equal(t, c.SortOrder, got.SortOrder)
}

func TestApplyTruncatesDates(t *testing.T) {
	got := Default().Apply(Patch{StartDate: Value(time.Date(2024, 2, 3, 18, 30, 0, 0, time.UTC))})
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), got.StartDate)
}

func TestCommitSearch(t *testing.T) {
	c := Default().WithPage(4)

	got := c.CommitSearch("abc")
	assert.Equal(t, "abc", got.Title)
	assert.Equal(t, 1, got.Page)

	got = got.WithPage(3).CommitSearch("")
	assert.Empty(t, got.Title)
	assert.Equal(t, 1, got.Page)
}

func TestWithPage(t *testing.T) {
	c := busyCriteria()

	got := c.WithPage(9)
	assert.Equal(t, 9, got.Page)
	got.Page = c.Page
	assert.Equal(t, c, got, "only the page may change")

	assert.Equal(t, 1, c.WithPage(0).Page)
	assert.Equal(t, 1, c.WithPage(-3).Page)
}

func TestWithPageSize(t *testing.T) {
	got := busyCriteria().WithPageSize(6)
	assert.Equal(t, 6, got.PageSize)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, "Alice", got.Author)

	assert.Equal(t, DefaultPageSize, busyCriteria().WithPageSize(0).PageSize)
}

func TestResetRestoresDefaults(t *testing.T) {
	for _, c := range []Criteria{busyCriteria(), Default(), busyCriteria().WithPage(99), {}} {
		got := c.Reset()
		assert.Equal(t, Default(), got)
		q := got.Query().Values()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "12", q.Get("limit"))
		assert.Equal(t, "date_publication", q.Get("sort_by"))
		assert.Equal(t, "desc", q.Get("sort_order"))
	}
}

func TestKey(t *testing.T) {
	a := Default().Apply(Patch{Category: Value("Tech")})
	b := Default().Apply(Patch{Category: Value("Tech")})
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), a.WithPage(2).Key())
	assert.NotEqual(t, a.Key(), Default().Key())
}

func TestQuery(t *testing.T) {
	q := busyCriteria().Query()
	v := q.Values()
	require.Equal(t, "Tech", v.Get("categorie"))
	assert.Equal(t, "IA", v.Get("sous_categorie"))
	assert.Equal(t, "Alice", v.Get("auteur"))
	assert.Equal(t, "gpt", v.Get("titre"))
	assert.Equal(t, "modèle", v.Get("contenu"))
	assert.Equal(t, "2024-01-01", v.Get("start_date"))
	assert.Equal(t, "2024-06-30", v.Get("end_date"))
	assert.Equal(t, "7", v.Get("page"))
	assert.Equal(t, "48", v.Get("limit"))
	assert.Equal(t, "titre", v.Get("sort_by"))
	assert.Equal(t, "asc", v.Get("sort_order"))
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Default().Describe())

	labels := busyCriteria().Describe()
	assert.Contains(t, labels, `title ~ "gpt"`)
	assert.Contains(t, labels, `author ~ "Alice"`)
	assert.Contains(t, labels, "category: Tech › IA")
	assert.Contains(t, labels, "2024-01-01 → 2024-06-30")

	onlyStart := Default().Apply(Patch{StartDate: Value(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))})
	assert.Contains(t, onlyStart.Describe(), "since 2024-01-01")
}

func TestSortLabel(t *testing.T) {
	assert.Equal(t, "sort: publication date ↓", Default().SortLabel())
	assert.Equal(t, "sort: title ↑", busyCriteria().SortLabel())
}
