package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/pagination"
	"github.com/pders01/mrkt/internal/tui"
	"github.com/pders01/mrkt/internal/validation"
)

const titleWidth = 60

type articleOptions struct {
	category    string
	subCategory string
	author      string
	title       string
	content     string
	from        string
	to          string
	page        int
	limit       int
	sortBy      string
	order       string
	json        bool
}

var articleOpts articleOptions

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Print one page of articles",
	Long: `Print one page of articles matching the given filters.

Examples:
  mrkt articles                                   # newest articles
  mrkt articles --category Tech --sub-category AI
  mrkt articles --title golang --sort-by titre --order asc
  mrkt articles --from 2024-01-01 --to 2024-03-31 --page 2 --json`,
	Args: cobra.NoArgs,
	RunE: runArticles,
}

var categoriesJSON bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the article categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

var (
	subCategoriesOf   string
	subCategoriesJSON bool
)

var subCategoriesCmd = &cobra.Command{
	Use:     "subcategories",
	Aliases: []string{"sub-categories"},
	Short:   "List the sub-categories, optionally of one category",
	Args:    cobra.NoArgs,
	RunE:    runSubCategories,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the marketplace API and its database are up",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	f := articlesCmd.Flags()
	f.StringVar(&articleOpts.category, "category", "", "only articles of this category")
	f.StringVar(&articleOpts.subCategory, "sub-category", "", "only articles of this sub-category (needs --category)")
	f.StringVar(&articleOpts.author, "author", "", "author name contains")
	f.StringVar(&articleOpts.title, "title", "", "title contains")
	f.StringVar(&articleOpts.content, "content", "", "summary or body contains")
	f.StringVar(&articleOpts.from, "from", "", "published on or after (YYYY-MM-DD)")
	f.StringVar(&articleOpts.to, "to", "", "published on or before (YYYY-MM-DD)")
	f.IntVar(&articleOpts.page, "page", filter.DefaultPage, "page number")
	f.IntVar(&articleOpts.limit, "limit", 0, "articles per page (default from config)")
	f.StringVar(&articleOpts.sortBy, "sort-by", string(marketplace.SortByDate), "date_publication, titre or auteur")
	f.StringVar(&articleOpts.order, "order", string(marketplace.Descending), "asc or desc")
	f.BoolVar(&articleOpts.json, "json", false, "output the page as JSON")

	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "output as JSON")

	subCategoriesCmd.Flags().StringVar(&subCategoriesOf, "category", "", "category to list the sub-categories of")
	subCategoriesCmd.Flags().BoolVar(&subCategoriesJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(articlesCmd, categoriesCmd, subCategoriesCmd, healthCmd)
}

// criteria turns the flags into the same criteria the browser builds.
func (o articleOptions) criteria(pageSize int) (filter.Criteria, error) {
	sortBy, err := marketplace.ParseSortField(o.sortBy)
	if err != nil {
		return filter.Criteria{}, err
	}
	order, err := marketplace.ParseSortOrder(o.order)
	if err != nil {
		return filter.Criteria{}, err
	}
	from, to, err := validation.ParseDateRange(o.from, o.to)
	if err != nil {
		return filter.Criteria{}, err
	}
	if strings.TrimSpace(o.subCategory) != "" && strings.TrimSpace(o.category) == "" {
		return filter.Criteria{}, errors.New("--sub-category needs --category")
	}
	if o.page < 1 {
		return filter.Criteria{}, fmt.Errorf("invalid page %d", o.page)
	}

	limit := o.limit
	if limit <= 0 {
		limit = pageSize
	}
	title := validation.SanitizeSearchInput(o.title)
	author := validation.SanitizeSearchInput(o.author)
	content := validation.SanitizeSearchInput(o.content)

	c := filter.Default().WithPageSize(limit).Apply(filter.Patch{
		Category:  &o.category,
		Author:    &author,
		Title:     &title,
		Content:   &content,
		StartDate: &from,
		EndDate:   &to,
		SortBy:    &sortBy,
		SortOrder: &order,
	})
	// the sub-category goes in after the category, which clears it
	c = c.Apply(filter.Patch{SubCategory: &o.subCategory})
	return c.WithPage(o.page), nil
}

func runArticles(cmd *cobra.Command, _ []string) error {
	c, err := articleOpts.criteria(cfg.Browse.PageSize)
	if err != nil {
		return err
	}
	queries, err := newQueryClient()
	if err != nil {
		return err
	}

	ctx, cancel := queries.Context(cmd.Context())
	defer cancel()
	st := queries.Articles(ctx, c)
	if st.Err != nil {
		return fmt.Errorf("fetching articles: %w", st.Err)
	}

	if articleOpts.json {
		return writeJSON(cmd.OutOrStdout(), st.Data)
	}
	printArticles(cmd.OutOrStdout(), st.Data, c)
	return nil
}

func printArticles(w io.Writer, page *marketplace.ArticlePage, c filter.Criteria) {
	switch {
	case len(page.Articles) == 0 && page.Total == 0:
		fmt.Fprintln(w, tui.MsgNoArticles)
		return
	case len(page.Articles) == 0:
		fmt.Fprintln(w, tui.MsgEntriesHidden(max(page.Dropped, 1)))
	default:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("DATE", "TITLE", "AUTHOR", "CATEGORY", "URL")
		for _, a := range page.Articles {
			t.Row(articleDate(a), clip(a.Title, titleWidth), a.Author, categoryOf(a), a.URL)
		}
		fmt.Fprintln(w, t.String())
	}

	line := tui.MsgArticlesFound(page.Total)
	if page.TotalPages > 1 {
		line += " • " + tui.MsgPageOf(c.Page, page.TotalPages)
	}
	fmt.Fprintln(w, line)
	if window := pagination.Window(c.Page, page.TotalPages, pagination.Wide); window != nil {
		fmt.Fprintln(w, pagination.Render(window, c.Page))
	}
}

func articleDate(a marketplace.Article) string {
	if a.Published.IsZero() {
		return a.Published.Raw
	}
	return a.Published.Format(marketplace.DateLayout)
}

func categoryOf(a marketplace.Article) string {
	if a.SubCategory != "" {
		return a.Category + " › " + a.SubCategory
	}
	return a.Category
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runCategories(cmd *cobra.Command, _ []string) error {
	queries, err := newQueryClient()
	if err != nil {
		return err
	}
	ctx, cancel := queries.Context(cmd.Context())
	defer cancel()

	st := queries.Categories(ctx)
	if st.Err != nil {
		return fmt.Errorf("fetching categories: %w", st.Err)
	}
	return printNames(cmd.OutOrStdout(), st.Data, categoriesJSON)
}

func runSubCategories(cmd *cobra.Command, _ []string) error {
	queries, err := newQueryClient()
	if err != nil {
		return err
	}
	ctx, cancel := queries.Context(cmd.Context())
	defer cancel()

	st := queries.SubCategories(ctx, strings.TrimSpace(subCategoriesOf))
	if st.Err != nil {
		return fmt.Errorf("fetching sub-categories: %w", st.Err)
	}
	return printNames(cmd.OutOrStdout(), st.Data, subCategoriesJSON)
}

func printNames(w io.Writer, names []string, asJSON bool) error {
	if asJSON {
		if names == nil {
			names = []string{}
		}
		return writeJSON(w, names)
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	api, err := marketplace.NewClient(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.Timeout)
	defer cancel()

	h, err := api.Health(ctx)
	w := cmd.OutOrStdout()
	if h != nil {
		fmt.Fprintf(w, "api:      %s\n", api.BaseURL())
		fmt.Fprintf(w, "status:   %s\n", h.Status)
		fmt.Fprintf(w, "database: %s\n", h.Database)
		if h.Error != "" {
			fmt.Fprintf(w, "error:    %s\n", h.Error)
		}
	}
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
