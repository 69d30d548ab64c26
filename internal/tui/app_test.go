package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/query"
)

// fakeAPI serves a fixed number of generated articles, sliced per page.
type fakeAPI struct {
	mu sync.Mutex

	total         int
	categories    []string
	subCategories map[string][]string
	articlesErr   error
	subErr        error

	queries         []marketplace.ArticleQuery
	subCategoryHits int
}

func newFakeAPI(total int) *fakeAPI {
	return &fakeAPI{
		total:      total,
		categories: []string{"Tech", "Sport"},
		subCategories: map[string][]string{
			"":      {"AI", "Football", "Cloud"},
			"Tech":  {"AI", "Cloud"},
			"Sport": {"Football"},
		},
	}
}

func (f *fakeAPI) Categories(context.Context) ([]string, error) {
	return f.categories, nil
}

func (f *fakeAPI) SubCategories(_ context.Context, category string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCategoryHits++
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.subCategories[category], nil
}

func (f *fakeAPI) Articles(_ context.Context, q marketplace.ArticleQuery) (*marketplace.ArticlePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.articlesErr != nil {
		return nil, f.articlesErr
	}

	page := &marketplace.ArticlePage{
		Total:      f.total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: marketplace.TotalPagesFor(f.total, q.Limit),
	}
	for i := (q.Page - 1) * q.Limit; i < min(q.Page*q.Limit, f.total); i++ {
		page.Articles = append(page.Articles, marketplace.Article{
			Title:  fmt.Sprintf("Article %d", i+1),
			URL:    fmt.Sprintf("https://example.com/articles/%d", i+1),
			Author: "Jane Doe",
		})
	}
	return page, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeAPI) lastQuery() marketplace.ArticleQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articlesErr = err
}

func (f *fakeAPI) failSubCategories(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subErr = err
}

func (f *fakeAPI) subCategoryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subCategoryHits
}

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

func newTestApp(t *testing.T, api *fakeAPI) (*App, *fakeOpener) {
	t.Helper()
	cfg := config.TestConfig()
	app := NewApp(query.NewClient(api, cfg), cfg)
	opener := &fakeOpener{}
	app.launcher = opener
	// a blinking cursor would park every key press on a timer
	for _, in := range []*textinput.Model{&app.searchInput, &app.startInput, &app.endInput, &app.gotoInput} {
		in.Cursor.SetMode(cursor.CursorStatic)
	}
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, opener
}

// startedApp returns an app that has run Init and loaded its first page.
func startedApp(t *testing.T, api *fakeAPI) (*App, *fakeOpener) {
	t.Helper()
	app, opener := newTestApp(t, api)
	run(t, app, app.Init())
	require.True(t, app.articles.Ready(), "first page should be loaded")
	return app, opener
}

// run executes cmd and feeds every message it yields back into the app, the
// way the program loop would. Spinner ticks are dropped so the loop settles.
func run(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "update loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := app.Update(msg)
			queue = append(queue, c)
		}
	}
}

// press sends one key through Update and runs whatever it returns.
func press(t *testing.T, app *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := app.Update(keyMsg(k))
		run(t, app, cmd)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t, newFakeAPI(0))

	assert.Equal(t, ViewArticles, app.view)
	assert.Equal(t, filter.Default(), app.criteria)
	assert.NotNil(t, app.keyHandler)
	assert.NotNil(t, app.debouncer)
	assert.Equal(t, 100, app.width)
	assert.Equal(t, 40, app.height)
}

func TestNewAppUsesConfiguredPageSize(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Browse.PageSize = 24
	app := NewApp(query.NewClient(newFakeAPI(0), cfg), cfg)

	assert.Equal(t, 24, app.criteria.PageSize)
	assert.Equal(t, 1, app.criteria.Page)
}

func TestResetRestoresDefaultPageSize(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Browse.PageSize = 24
	app := NewApp(query.NewClient(newFakeAPI(100), cfg), cfg)
	app.criteria = app.criteria.Apply(filter.Patch{Category: filter.Value("Tech")}).WithPage(3)

	run(t, app, app.resetFilters(false))

	assert.Equal(t, filter.Default(), app.criteria)
	assert.Equal(t, 12, app.criteria.PageSize)
	assert.Equal(t, 1, app.criteria.Page)
}

func TestInitLoadsEverything(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)

	assert.Equal(t, []string{"Tech", "Sport"}, app.categories.Data)
	assert.Equal(t, []string{"AI", "Football", "Cloud"}, app.subCategories.Data)
	assert.Equal(t, 30, app.articles.Data.Total)
	assert.Len(t, app.articleList.Items(), 12)
	assert.Equal(t, 3, app.totalPages())

	q := api.lastQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 12, q.Limit)
	assert.Equal(t, marketplace.SortByDate, q.SortBy)
	assert.Equal(t, marketplace.Descending, q.SortOrder)
}

func TestStaleArticlesResultIsDropped(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(30))
	current := app.articles

	old := filter.Default().Apply(filter.Patch{Author: filter.Value("someone else")})
	stale := query.State[*marketplace.ArticlePage]{
		Key:  old.Key(),
		Data: &marketplace.ArticlePage{Total: 1, Page: 1, Limit: 12, TotalPages: 1},
	}
	app.Update(articlesLoadedMsg{state: stale})

	assert.Equal(t, current, app.articles)
	assert.Len(t, app.articleList.Items(), 12)
}

func TestLateResultForEarlierCriteriaIsIgnored(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := newTestApp(t, api)

	first := app.fetchArticles(app.criteria)
	app.criteria = app.criteria.Apply(filter.Patch{Author: filter.Value("Jane")})
	second := app.fetchArticles(app.criteria)

	// the newer request answers first
	run(t, app, second)
	want := app.articles
	run(t, app, first)

	assert.Equal(t, want, app.articles)
	assert.Equal(t, app.criteria.Key(), app.articles.Key)
}

func TestArticlesErrorShowsErrorState(t *testing.T) {
	api := newFakeAPI(30)
	api.fail(&marketplace.StatusError{Code: 400, Message: "invalid sort_by"})
	app, _ := newTestApp(t, api)
	run(t, app, app.Init())

	require.Error(t, app.articles.Err)
	assert.Empty(t, app.articleList.Items())
	assert.Equal(t, StatusError, app.statusKind)

	view := app.View()
	assert.Contains(t, view, "Could not load articles")
	assert.Contains(t, view, "invalid sort_by")
}

func TestErrorStateRetryResetsFilters(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)

	press(t, app, "a")
	for _, r := range "nobody" {
		press(t, app, string(r))
	}
	api.fail(errors.New("boom"))
	press(t, app, "enter")
	require.Error(t, app.articles.Err)
	require.Equal(t, "nobody", app.criteria.Author)

	api.fail(nil)
	calls := api.calls()
	press(t, app, "enter")

	assert.Equal(t, filter.Default(), app.criteria)
	assert.True(t, app.articles.Ready())
	assert.Greater(t, api.calls(), calls, "defaults are fetched again, not served from cache")
	assert.Equal(t, MsgFiltersReset, app.status)
}

func TestEmptyResultView(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(0))

	view := app.View()
	assert.Contains(t, view, MsgNoArticles)
	assert.Contains(t, view, "Press x to reset the filters")
	assert.Contains(t, view, MsgArticlesFound(0))
}

func TestPastEndMovesToLastPage(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)

	run(t, app, app.setCriteria(app.criteria.WithPage(3)))
	require.Equal(t, 3, app.criteria.Page)

	// the result set shrinks while we look at page 3
	api.total = 13
	app.queries.Refresh()
	run(t, app, app.loadArticles())

	assert.Equal(t, 2, app.criteria.Page)
	assert.Len(t, app.articleList.Items(), 1)
}

func TestCachedPageIsServedImmediately(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)

	press(t, app, "n")
	require.Equal(t, 2, app.criteria.Page)
	calls := api.calls()

	press(t, app, "p")
	assert.Equal(t, 1, app.criteria.Page)
	assert.Equal(t, calls, api.calls())
	assert.True(t, app.articles.Ready())
}

func TestRefreshRefetches(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)
	calls := api.calls()

	press(t, app, "R")

	assert.Equal(t, calls+1, api.calls())
	assert.Equal(t, MsgRefreshing, app.status)
	assert.True(t, app.articles.Ready())
}

func TestRefreshReloadsCurrentSubCategories(t *testing.T) {
	api := newFakeAPI(30)
	app, _ := startedApp(t, api)
	run(t, app, app.setCriteria(app.criteria.Apply(filter.Patch{Category: filter.Value("Tech")})))
	hits := api.subCategoryCalls()

	press(t, app, "R")

	assert.Equal(t, hits+1, api.subCategoryCalls())
	assert.Equal(t, []string{"AI", "Cloud"}, app.subCategories.Data)
}

func TestRejectedEntriesView(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(30))

	app.Update(articlesLoadedMsg{state: query.State[*marketplace.ArticlePage]{
		Key:  app.criteria.Key(),
		Data: &marketplace.ArticlePage{Total: 30, Page: 1, Limit: 12, TotalPages: 3, Dropped: 12},
	}})

	require.Equal(t, 1, app.criteria.Page, "an in-range page is not redirected")
	view := app.View()
	assert.Contains(t, view, MsgEntriesHidden(12))
	assert.NotContains(t, view, MsgNoArticles)
	assert.Contains(t, view, MsgArticlesFound(30))
}

func TestSubCategoriesForOtherCategoryAreDropped(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(30))
	run(t, app, app.setCriteria(app.criteria.Apply(filter.Patch{Category: filter.Value("Tech")})))
	require.Equal(t, []string{"AI", "Cloud"}, app.subCategories.Data)

	app.Update(subCategoriesLoadedMsg{
		category: "Sport",
		state:    query.State[[]string]{Key: query.SubCategoriesKey("Sport"), Data: []string{"Football"}},
	})

	assert.Equal(t, []string{"AI", "Cloud"}, app.subCategories.Data)
}

func TestCategoriesErrorIsReported(t *testing.T) {
	app, _ := newTestApp(t, newFakeAPI(0))

	app.Update(categoriesLoadedMsg{state: query.State[[]string]{
		Key: query.CategoriesKey,
		Err: fmt.Errorf("%w: connection refused", marketplace.ErrTransport),
	}})

	assert.Equal(t, StatusError, app.statusKind)
	assert.Contains(t, app.status, "categories")
}

func TestReaderRendersSelectedArticle(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(30))

	press(t, app, "enter")

	require.Equal(t, ViewReader, app.view)
	require.NotNil(t, app.currentArticle)
	assert.Equal(t, "Article 1", app.currentArticle.Title)
	assert.False(t, app.rendering)
	assert.Contains(t, app.viewport.View(), "Article 1")

	press(t, app, "esc")
	assert.Equal(t, ViewArticles, app.view)
	assert.Nil(t, app.currentArticle)
}

func TestRenderedArticleForOtherURLIsIgnored(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(30))
	app.view = ViewReader
	app.currentArticle = &marketplace.Article{Title: "A", URL: "https://example.com/a"}
	app.rendering = true

	app.Update(articleRenderedMsg{url: "https://example.com/b", content: "other"})

	assert.True(t, app.rendering)
}

func TestOpenArticleInBrowser(t *testing.T) {
	app, opener := startedApp(t, newFakeAPI(30))

	press(t, app, "w")

	assert.Equal(t, []string{"https://example.com/articles/1"}, opener.opened)
	assert.Equal(t, StatusSuccess, app.statusKind)
	assert.Equal(t, MsgOpening("Article 1"), app.status)
}

func TestOpenArticleFailure(t *testing.T) {
	app, opener := startedApp(t, newFakeAPI(30))
	opener.err = errors.New("no browser")

	press(t, app, "w")

	assert.Equal(t, StatusError, app.statusKind)
	assert.Contains(t, app.status, "no browser")
}

func TestOpenArticleWithoutURL(t *testing.T) {
	app, opener := newTestApp(t, newFakeAPI(0))

	run(t, app, app.openURL(marketplace.Article{Title: "No link"}))

	assert.Empty(t, opener.opened)
	assert.Equal(t, MsgNoURL, app.status)
}

func TestViewShowsPagination(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(120))

	view := app.View()
	assert.Contains(t, view, "[1]")
	assert.Contains(t, view, "10")
	assert.Contains(t, view, MsgPageOf(1, 10))
}

func TestViewNarrowPagination(t *testing.T) {
	app, _ := startedApp(t, newFakeAPI(120))
	run(t, app, app.setCriteria(app.criteria.WithPage(5)))
	app.Update(tea.WindowSizeMsg{Width: 50, Height: 40})

	line := app.paginationLine()
	assert.Contains(t, line, "[5]")
	assert.Contains(t, line, "4")
	assert.Contains(t, line, "6")
	assert.NotContains(t, line, " 3 ")
	assert.NotContains(t, line, " 7 ")
}

func TestViewWithoutSize(t *testing.T) {
	cfg := config.TestConfig()
	app := NewApp(query.NewClient(newFakeAPI(0), cfg), cfg)

	assert.NotPanics(t, func() { _ = app.View() })
}
