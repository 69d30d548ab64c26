package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/mrkt/internal/browser"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debounce"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/pagination"
	"github.com/pders01/mrkt/internal/query"
	"github.com/pders01/mrkt/internal/validation"
)

type urlOpener interface {
	Open(url string) error
}

type App struct {
	config     *config.Config
	queries    *query.Client
	launcher   urlOpener
	keyHandler *KeyHandler
	debouncer  *debounce.Debouncer

	criteria filter.Criteria

	articles      query.State[*marketplace.ArticlePage]
	categories    query.State[[]string]
	subCategories query.State[[]string]

	articleList list.Model
	pickerList  list.Model
	searchInput textinput.Model
	startInput  textinput.Model
	endInput    textinput.Model
	gotoInput   textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	view           View
	searchMode     SearchMode
	currentArticle *marketplace.Article
	rendering      bool

	status     string
	statusKind StatusKind

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(queries *query.Client, cfg *config.Config) *App {
	articleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	articleList.Title = "› articles"
	articleList.SetShowTitle(false)
	articleList.SetShowStatusBar(false)
	articleList.SetFilteringEnabled(false)
	articleList.SetShowHelp(false)
	articleList.SetShowPagination(false)

	pickerDelegate := list.NewDefaultDelegate()
	pickerDelegate.ShowDescription = false
	pickerDelegate.SetSpacing(0)
	pickerList := list.New([]list.Item{}, pickerDelegate, 0, 0)
	pickerList.SetShowStatusBar(false)
	pickerList.SetFilteringEnabled(false)
	pickerList.SetShowHelp(false)

	si := textinput.New()
	si.Prompt = "/ "
	si.CharLimit = validation.MaxSearchLength

	start := textinput.New()
	start.Placeholder = "YYYY-MM-DD"
	start.Prompt = "from: "
	start.CharLimit = len(validation.DateLayout)

	end := textinput.New()
	end.Placeholder = "YYYY-MM-DD"
	end.Prompt = "to:   "
	end.CharLimit = len(validation.DateLayout)

	gi := textinput.New()
	gi.Prompt = "page: "
	gi.CharLimit = 6

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(AccentColor)))

	app := &App{
		config:      cfg,
		queries:     queries,
		launcher:    browser.NewLauncher(cfg),
		debouncer:   debounce.New(cfg.Browse.SearchDebounce),
		criteria:    filter.Default().WithPageSize(cfg.Browse.PageSize),
		articleList: articleList,
		pickerList:  pickerList,
		searchInput: si,
		startInput:  start,
		endInput:    end,
		gotoInput:   gi,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		view:        ViewArticles,
	}
	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) Init() tea.Cmd {
	a.categories = query.Pending[[]string](query.CategoriesKey)
	a.subCategories = query.Pending[[]string](query.SubCategoriesKey(""))
	return tea.Batch(
		tea.EnterAltScreen,
		a.fetchCategories(),
		a.fetchSubCategories(""),
		a.loadArticles(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case debounce.FireMsg:
		if term, ok := a.debouncer.Resolve(msg); ok {
			return a, a.commitSearch(term)
		}
		return a, nil

	case articlesLoadedMsg:
		return a, a.applyArticles(msg.state)

	case categoriesLoadedMsg:
		a.categories = msg.state
		if msg.state.Err != nil {
			a.setStatus("categories: "+describeError(msg.state.Err), StatusError)
		}
		if a.view == ViewCategory {
			a.fillCategoryPicker()
		}

	case subCategoriesLoadedMsg:
		// only the list for the current category is kept
		if msg.category != a.criteria.Category {
			debuglog.Debugf("dropping sub-categories for %q", msg.category)
			return a, nil
		}
		a.subCategories = msg.state
		if msg.state.Err != nil {
			a.setStatus("sub-categories: "+describeError(msg.state.Err), StatusError)
		}
		if a.view == ViewSubCategory {
			a.fillSubCategoryPicker()
		}

	case articleRenderedMsg:
		if a.view == ViewReader && a.currentArticle != nil && a.currentArticle.URL == msg.url {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.rendering = false
		}

	case errorMsg:
		debuglog.Errorf("%v", msg.err)
		a.setStatus(msg.err.Error(), StatusError)

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
	}

	if a.view == ViewReader {
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width

	a.pickerList.SetSize(min(width, 48), max(height-6, 5))
	a.viewport.Width = width
	a.viewport.Height = max(height-4, 1)

	inputWidth := max(width-8, 10)
	a.searchInput.Width = inputWidth
	a.startInput.Width = len(validation.DateLayout) + 1
	a.endInput.Width = len(validation.DateLayout) + 1
}

func (a *App) busy() bool {
	return a.articles.Loading || a.categories.Loading || a.subCategories.Loading || a.rendering
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

// setCriteria makes next the current criteria and loads what it selects.
func (a *App) setCriteria(next filter.Criteria) tea.Cmd {
	prevCategory := a.criteria.Category
	a.criteria = next

	var cmds []tea.Cmd
	if next.Category != prevCategory {
		a.subCategories = query.Pending[[]string](query.SubCategoriesKey(next.Category))
		cmds = append(cmds, a.fetchSubCategories(next.Category))
	}
	cmds = append(cmds, a.loadArticles())
	return tea.Batch(cmds...)
}

func (a *App) loadArticles() tea.Cmd {
	c := a.criteria
	if page, ok := a.queries.CachedArticles(c); ok {
		return a.applyArticles(query.State[*marketplace.ArticlePage]{Key: c.Key(), Data: page})
	}
	a.articles = query.Pending[*marketplace.ArticlePage](c.Key())
	return tea.Batch(a.spinner.Tick, a.fetchArticles(c))
}

// applyArticles stores a result if it still belongs to the current
// criteria. Late answers for earlier criteria are dropped.
func (a *App) applyArticles(st query.State[*marketplace.ArticlePage]) tea.Cmd {
	if st.Key != a.criteria.Key() {
		debuglog.Debugf("dropping stale articles result for %s", st.Key)
		return nil
	}

	a.articles = st
	if st.Err != nil {
		a.articleList.SetItems(nil)
		a.setStatus(describeError(st.Err), StatusError)
		return nil
	}

	page := st.Data
	// past the end, e.g. after the result set shrank: go to the last page
	if page.Total > 0 && len(page.Articles) == 0 && a.criteria.Page > page.TotalPages {
		return a.setCriteria(a.criteria.WithPage(page.TotalPages))
	}

	items := make([]list.Item, len(page.Articles))
	for i, art := range page.Articles {
		items[i] = articleItem{article: art, summaryLen: a.config.UI.Article.MaxSummaryLength}
	}
	a.articleList.SetItems(items)
	a.articleList.Select(0)
	if a.statusKind == StatusError {
		a.clearStatus()
	}
	return nil
}

func (a *App) commitSearch(term string) tea.Cmd {
	return a.setCriteria(a.criteria.CommitSearch(term))
}

// resetFilters restores the default criteria, including the default page
// size. With refetch set, the cached result for the defaults is dropped first.
func (a *App) resetFilters(refetch bool) tea.Cmd {
	a.debouncer.Cancel()
	a.searchInput.Reset()
	next := a.criteria.Reset()
	if refetch {
		a.queries.InvalidateArticles(next)
	}
	a.view = ViewArticles
	cmd := a.setCriteria(next)
	a.setStatus(MsgFiltersReset, StatusInfo)
	return cmd
}

func (a *App) refresh() tea.Cmd {
	a.queries.Refresh()
	a.queries.InvalidateSubCategories(a.criteria.Category)
	a.setStatus(MsgRefreshing, StatusInfo)
	a.subCategories = query.Pending[[]string](query.SubCategoriesKey(a.criteria.Category))
	return tea.Batch(a.fetchSubCategories(a.criteria.Category), a.loadArticles())
}

func (a *App) totalPages() int {
	if a.articles.Data == nil || a.articles.Err != nil {
		return 0
	}
	return a.articles.Data.TotalPages
}

// gotoPage moves to page n when it exists.
func (a *App) gotoPage(n int) tea.Cmd {
	total := a.totalPages()
	if total == 0 || n < 1 || n > total || n == a.criteria.Page {
		return nil
	}
	return a.setCriteria(a.criteria.WithPage(n))
}

func (a *App) selectedArticle() (marketplace.Article, bool) {
	if i, ok := a.articleList.SelectedItem().(articleItem); ok {
		return i.article, true
	}
	return marketplace.Article{}, false
}

func (a *App) openReader(article marketplace.Article) tea.Cmd {
	a.currentArticle = &article
	a.rendering = true
	a.view = ViewReader
	a.viewport.SetContent("")
	return tea.Batch(a.spinner.Tick, a.renderArticle(article))
}

func (a *App) openPicker(view View, title string, items []list.Item) {
	a.view = view
	a.pickerList.Title = title
	a.pickerList.SetItems(items)
	for i, it := range items {
		if p, ok := it.(pickerItem); ok && p.selected {
			a.pickerList.Select(i)
			return
		}
	}
	a.pickerList.Select(0)
}

func namesToItems(allLabel string, names []string, current string) []list.Item {
	items := []list.Item{pickerItem{label: allLabel, value: "", selected: current == ""}}
	for _, n := range names {
		items = append(items, pickerItem{label: n, value: n, selected: n == current})
	}
	return items
}

func (a *App) fillCategoryPicker() {
	a.openPicker(ViewCategory, "› category", namesToItems("All categories", a.categories.Data, a.criteria.Category))
}

func (a *App) fillSubCategoryPicker() {
	title := "› sub-category of " + a.criteria.Category
	a.openPicker(ViewSubCategory, title, namesToItems("All sub-categories", a.subCategories.Data, a.criteria.SubCategory))
}

func (a *App) fillSortPicker() {
	items := make([]list.Item, len(marketplace.SortFields))
	for i, f := range marketplace.SortFields {
		items[i] = pickerItem{label: f.Label(), value: string(f), selected: f == a.criteria.SortBy}
	}
	a.openPicker(ViewSort, "› sort by", items)
}

func (a *App) fillPageSizePicker() {
	sizes := slices.Clone(a.config.Browse.PageSizes)
	if !slices.Contains(sizes, a.criteria.PageSize) {
		sizes = append(sizes, a.criteria.PageSize)
		slices.Sort(sizes)
	}
	items := make([]list.Item, len(sizes))
	for i, n := range sizes {
		items[i] = pickerItem{
			label:    fmt.Sprintf("%d per page", n),
			value:    strconv.Itoa(n),
			selected: n == a.criteria.PageSize,
		}
	}
	a.openPicker(ViewPageSize, "› page size", items)
}

func (a *App) View() string {
	var content string
	bodyHeight := max(a.height-2, 1)

	switch a.view {
	case ViewArticles, ViewSearch:
		content = a.articlesView(bodyHeight)
	case ViewCategory, ViewSubCategory, ViewSort, ViewPageSize:
		content = a.pickerView(bodyHeight)
	case ViewDates:
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Left,
			TitleStyle.Render("› date range"),
			"",
			renderInputFrame(a.startInput.View(), a.startInput.Focused(), a.startInput.Width+len(a.startInput.Prompt)),
			renderInputFrame(a.endInput.View(), a.endInput.Focused(), a.endInput.Width+len(a.endInput.Prompt)),
			"",
			renderHelp("Tab: switch field • Enter: apply • empty clears • Esc: cancel"),
		))
	case ViewGotoPage:
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Left,
			TitleStyle.Render("› go to page"),
			"",
			renderInputFrame(a.gotoInput.View(), true, 16),
			"",
			renderHelp(fmt.Sprintf("1–%d • Enter: go • Esc: cancel", a.totalPages())),
		))
	case ViewReader:
		if a.rendering {
			content = renderCentered(a.width, bodyHeight, a.spinner.View()+" "+renderMuted(MsgRendering))
		} else {
			content = a.viewport.View()
		}
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) articlesView(height int) string {
	top := []string{renderHeader(CompactLogo+" marketplace", truncateMiddle(a.config.API.BaseURL, a.width-2), a.width)}

	if a.view == ViewSearch {
		label := HeaderStyle.Render("search " + a.searchMode.Label())
		top = append(top, label, renderInputFrame(a.searchInput.View(), true, a.searchInput.Width))
	} else {
		hint := fmt.Sprintf("%s search • %s author • %s content", a.config.Keys.Bindings.Search,
			a.config.Keys.Bindings.Author, a.config.Keys.Bindings.Content)
		top = append(top, renderHelp(hint))
	}

	labels := append(a.criteria.Describe(), a.criteria.SortLabel(), fmt.Sprintf("%d per page", a.criteria.PageSize))
	top = append(top, renderChips(labels, a.width))
	top = append(top, a.countLine())

	header := lipgloss.JoinVertical(lipgloss.Left, top...)
	footer := a.paginationLine()

	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 3)
	var body string
	switch {
	case a.articles.Err != nil:
		body = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			ErrorMessageStyle.Render("✗ Could not load articles"),
			"",
			renderMuted(describeError(a.articles.Err)),
			"",
			renderHelp(fmt.Sprintf("Press enter or %s to reset the filters and retry", a.config.Keys.Bindings.Reset)),
		))
	case a.articles.Data == nil && a.articles.Loading:
		body = renderCentered(a.width, bodyHeight, a.spinner.View()+" "+renderMuted(MsgLoadingArticles))
	case a.articles.Data != nil && len(a.articles.Data.Articles) == 0 && a.articles.Data.Total > 0 && !a.articles.Loading:
		body = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			renderMuted(MsgEntriesHidden(max(a.articles.Data.Dropped, 1))),
			"",
			renderHelp("Use the page keys to move on"),
		))
	case a.articles.Data != nil && len(a.articles.Data.Articles) == 0 && !a.articles.Loading:
		body = renderCentered(a.width, bodyHeight, GetEmptyMessage(a.config.Keys.Bindings.Reset))
	default:
		a.articleList.SetSize(a.width, bodyHeight)
		body = a.articleList.View()
	}

	return ContentWrapper(a.width, height).Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

func (a *App) countLine() string {
	switch {
	case a.articles.Loading:
		return a.spinner.View() + " " + renderMuted(MsgLoadingArticles)
	case a.articles.Data != nil:
		line := MsgArticlesFound(a.articles.Data.Total)
		if a.articles.Data.TotalPages > 1 {
			line += " • " + MsgPageOf(a.criteria.Page, a.articles.Data.TotalPages)
		}
		return HeaderStyle.Render(line)
	default:
		return ""
	}
}

func (a *App) paginationLine() string {
	total := a.totalPages()
	maxVisible := pagination.MaxVisible(a.width, a.config.Browse.NarrowWidth)
	return renderPagination(pagination.Window(a.criteria.Page, total, maxVisible), a.criteria.Page)
}

func (a *App) pickerView(height int) string {
	var note string
	switch {
	case a.view == ViewCategory && a.categories.Loading:
		note = a.spinner.View() + " " + renderMuted(MsgLoadingCategories)
	case a.view == ViewSubCategory && a.subCategories.Loading:
		note = a.spinner.View() + " " + renderMuted(MsgLoadingCategories)
	}
	body := a.pickerList.View()
	if note != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, note, body)
	}
	return renderCentered(a.width, height, body)
}

func (a *App) statusBar() string {
	line := a.help.ShortHelpView(a.keyHandler.HelpBindings())
	if a.status != "" {
		prefix := ""
		if a.statusKind == StatusError {
			prefix = "✗ "
		}
		line = a.statusKind.style().Render(prefix+a.status) + "  " + line
	}
	return StatusBarStyle.Width(a.width).MaxHeight(1).Render(line)
}
