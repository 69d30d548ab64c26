package tui

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/validation"
)

type action int

const (
	actNone action = iota
	actQuit
	actSearch
	actAuthor
	actContent
	actCategory
	actSubCategory
	actSort
	actOrder
	actPageSize
	actDates
	actReset
	actNextPage
	actPrevPage
	actFirstPage
	actLastPage
	actGotoPage
	actRefresh
	actOpen
	actBack
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
	// plain holds the bindings as configured; chorded holds modifier+key
	// for single-character bindings, a few of which work while typing.
	plain   map[string]action
	chorded map[string]action
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	kh := &KeyHandler{
		app:         app,
		config:      cfg,
		modifierKey: cfg.Keys.Modifier + "+",
		plain:       make(map[string]action),
		chorded:     make(map[string]action),
	}

	b := cfg.Keys.Bindings
	for k, act := range map[string]action{
		b.Quit:        actQuit,
		b.Search:      actSearch,
		b.Author:      actAuthor,
		b.Content:     actContent,
		b.Category:    actCategory,
		b.SubCategory: actSubCategory,
		b.Sort:        actSort,
		b.Order:       actOrder,
		b.PageSize:    actPageSize,
		b.Dates:       actDates,
		b.Reset:       actReset,
		b.NextPage:    actNextPage,
		b.PrevPage:    actPrevPage,
		b.FirstPage:   actFirstPage,
		b.LastPage:    actLastPage,
		b.GotoPage:    actGotoPage,
		b.Refresh:     actRefresh,
		b.Open:        actOpen,
		b.Back:        actBack,
	} {
		if k == "" {
			continue
		}
		kh.plain[k] = act
		if r := []rune(k); len(r) == 1 && !unicode.IsUpper(r[0]) && cfg.Keys.Modifier != "" {
			kh.chorded[kh.modifierKey+k] = act
		}
	}

	kh.plain["right"] = actNextPage
	kh.plain["left"] = actPrevPage

	return kh
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	switch v := kh.app.view; {
	case v == ViewArticles:
		return kh.handleArticlesKeys(msg)
	case v.isPicker():
		return kh.handlePickerKeys(msg)
	case v == ViewReader:
		return kh.handleReaderKeys(msg)
	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch, ViewDates, ViewGotoPage:
		return true
	default:
		return false
	}
}

func (kh *KeyHandler) lookup(key string) action {
	if act, ok := kh.plain[key]; ok {
		return act
	}
	return kh.chorded[key]
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	}

	if act, ok := kh.chorded[key]; ok && typingSafe(act) {
		kh.leaveTextInput()
		return kh.perform(act)
	}

	if kh.app.view == ViewDates {
		switch key {
		case "tab", "shift+tab", "up", "down":
			kh.toggleDateFocus()
			return kh.app, nil
		}
	}

	return kh.delegateToTextInput(msg)
}

// typingSafe lists the chorded actions honored while an input has focus;
// the others would shadow the input's own editing keys.
func typingSafe(act action) bool {
	switch act {
	case actQuit, actReset, actOrder, actNextPage, actPrevPage:
		return true
	}
	return false
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	app := kh.app
	switch app.view {
	case ViewSearch:
		term := validation.SanitizeSearchInput(app.searchInput.Value())
		app.debouncer.Cancel()
		app.searchInput.Blur()
		app.view = ViewArticles

		var patch filter.Patch
		switch app.searchMode {
		case SearchAuthor:
			patch.Author = &term
		case SearchContent:
			patch.Content = &term
		default:
			patch.Title = &term
		}
		return app, app.setCriteria(app.criteria.Apply(patch))

	case ViewDates:
		from, to, err := validation.ParseDateRange(app.startInput.Value(), app.endInput.Value())
		if err != nil {
			app.setStatus(err.Error(), StatusError)
			return app, nil
		}
		kh.leaveTextInput()
		app.clearStatus()
		return app, app.setCriteria(app.criteria.Apply(filter.Patch{StartDate: &from, EndDate: &to}))

	case ViewGotoPage:
		total := app.totalPages()
		n, err := strconv.Atoi(strings.TrimSpace(app.gotoInput.Value()))
		if err != nil || n < 1 || n > total {
			app.setStatus("No such page", StatusWarn)
			return app, nil
		}
		kh.leaveTextInput()
		return app, app.gotoPage(n)
	}
	return app, nil
}

// delegateToTextInput passes the key to the focused input. Title searches
// are scheduled through the debouncer on every change.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	var cmd tea.Cmd

	switch app.view {
	case ViewSearch:
		prev := app.searchInput.Value()
		app.searchInput, cmd = app.searchInput.Update(msg)
		if app.searchMode == SearchTitle && app.searchInput.Value() != prev {
			term := validation.SanitizeSearchInput(app.searchInput.Value())
			return app, tea.Batch(cmd, app.debouncer.Schedule(term))
		}
		return app, cmd

	case ViewDates:
		if app.startInput.Focused() {
			app.startInput, cmd = app.startInput.Update(msg)
		} else {
			app.endInput, cmd = app.endInput.Update(msg)
		}
		return app, cmd

	case ViewGotoPage:
		app.gotoInput, cmd = app.gotoInput.Update(msg)
		return app, cmd
	}
	return app, nil
}

func (kh *KeyHandler) toggleDateFocus() {
	if kh.app.startInput.Focused() {
		kh.app.startInput.Blur()
		kh.app.endInput.Focus()
		return
	}
	kh.app.endInput.Blur()
	kh.app.startInput.Focus()
}

// leaveTextInput drops focus and any pending search and returns to the list.
func (kh *KeyHandler) leaveTextInput() {
	app := kh.app
	app.debouncer.Cancel()
	app.searchInput.Blur()
	app.startInput.Blur()
	app.endInput.Blur()
	app.gotoInput.Blur()
	app.view = ViewArticles
}

func (kh *KeyHandler) handleArticlesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	app := kh.app

	// the error state offers a single action: reset and retry
	if app.articles.Err != nil && (key == "enter" || kh.lookup(key) == actReset) {
		return app, app.resetFilters(true)
	}

	if act := kh.lookup(key); act != actNone {
		return kh.perform(act)
	}

	if key == "enter" {
		if article, ok := app.selectedArticle(); ok {
			return app, app.openReader(article)
		}
		return app, nil
	}

	var cmd tea.Cmd
	app.articleList, cmd = app.articleList.Update(msg)
	return app, cmd
}

// perform runs an action from the articles view.
func (kh *KeyHandler) perform(act action) (tea.Model, tea.Cmd) {
	app := kh.app
	c := app.criteria

	switch act {
	case actQuit:
		return app, tea.Quit
	case actSearch:
		return kh.enterSearchMode(SearchTitle)
	case actAuthor:
		return kh.enterSearchMode(SearchAuthor)
	case actContent:
		return kh.enterSearchMode(SearchContent)

	case actCategory:
		app.fillCategoryPicker()
		if app.categories.Err != nil {
			app.categories.Loading = true
			app.categories.Err = nil
			return app, tea.Batch(app.spinner.Tick, app.fetchCategories())
		}
		return app, nil

	case actSubCategory:
		if c.Category == "" {
			app.setStatus(MsgPickCategoryFirst, StatusWarn)
			return app, nil
		}
		app.fillSubCategoryPicker()
		if app.subCategories.Err != nil {
			app.subCategories.Loading = true
			app.subCategories.Err = nil
			return app, tea.Batch(app.spinner.Tick, app.fetchSubCategories(c.Category))
		}
		return app, nil

	case actSort:
		app.fillSortPicker()
		return app, nil

	case actOrder:
		order := c.SortOrder.Flip()
		return app, app.setCriteria(c.Apply(filter.Patch{SortOrder: &order}))

	case actPageSize:
		app.fillPageSizePicker()
		return app, nil

	case actDates:
		app.view = ViewDates
		app.startInput.SetValue(dateInput(c.StartDate))
		app.endInput.SetValue(dateInput(c.EndDate))
		app.endInput.Blur()
		return app, app.startInput.Focus()

	case actReset:
		return app, app.resetFilters(false)

	case actNextPage:
		return app, app.gotoPage(c.Page + 1)
	case actPrevPage:
		return app, app.gotoPage(c.Page - 1)
	case actFirstPage:
		return app, app.gotoPage(1)
	case actLastPage:
		return app, app.gotoPage(app.totalPages())

	case actGotoPage:
		if app.totalPages() < 2 {
			return app, nil
		}
		app.view = ViewGotoPage
		app.gotoInput.Reset()
		return app, app.gotoInput.Focus()

	case actRefresh:
		return app, app.refresh()

	case actOpen:
		if article, ok := app.selectedArticle(); ok {
			return app, app.openURL(article)
		}
		return app, nil

	case actBack:
		return kh.navigateBack()
	}
	return app, nil
}

func dateInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(validation.DateLayout)
}

func (kh *KeyHandler) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	key := msg.String()

	switch {
	case key == "enter":
		item, ok := app.pickerList.SelectedItem().(pickerItem)
		if !ok {
			return app, nil
		}
		view := app.view
		app.view = ViewArticles
		return app, kh.applyPick(view, item.value)
	case kh.lookup(key) == actBack || key == "esc":
		return kh.navigateBack()
	case kh.lookup(key) == actQuit:
		return app, tea.Quit
	}

	var cmd tea.Cmd
	app.pickerList, cmd = app.pickerList.Update(msg)
	return app, cmd
}

func (kh *KeyHandler) applyPick(view View, value string) tea.Cmd {
	app := kh.app
	c := app.criteria

	switch view {
	case ViewCategory:
		return app.setCriteria(c.Apply(filter.Patch{Category: &value}))
	case ViewSubCategory:
		return app.setCriteria(c.Apply(filter.Patch{SubCategory: &value}))
	case ViewSort:
		field := marketplace.SortField(value)
		return app.setCriteria(c.Apply(filter.Patch{SortBy: &field}))
	case ViewPageSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		return app.setCriteria(c.WithPageSize(n))
	}
	return nil
}

func (kh *KeyHandler) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	switch kh.lookup(msg.String()) {
	case actBack:
		return kh.navigateBack()
	case actQuit:
		return app, tea.Quit
	case actOpen:
		if app.currentArticle != nil {
			return app, app.openURL(*app.currentArticle)
		}
		return app, nil
	}

	if msg.String() == "esc" {
		return kh.navigateBack()
	}

	var cmd tea.Cmd
	app.viewport, cmd = app.viewport.Update(msg)
	return app, cmd
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	app := kh.app
	switch app.view {
	case ViewSearch, ViewDates, ViewGotoPage:
		kh.leaveTextInput()
	case ViewCategory, ViewSubCategory, ViewSort, ViewPageSize:
		app.view = ViewArticles
	case ViewReader:
		app.view = ViewArticles
		app.currentArticle = nil
		app.rendering = false
	}
	return app, nil
}

// enterSearchMode focuses the search box, prefilled with the current term.
func (kh *KeyHandler) enterSearchMode(mode SearchMode) (tea.Model, tea.Cmd) {
	app := kh.app
	app.view = ViewSearch
	app.searchMode = mode

	switch mode {
	case SearchAuthor:
		app.searchInput.Placeholder = "Author name… (Enter to apply)"
		app.searchInput.SetValue(app.criteria.Author)
	case SearchContent:
		app.searchInput.Placeholder = "Words in the article… (Enter to apply)"
		app.searchInput.SetValue(app.criteria.Content)
	default:
		app.searchInput.Placeholder = "Search titles…"
		app.searchInput.SetValue(app.criteria.Title)
	}
	app.searchInput.CursorEnd()
	return app, app.searchInput.Focus()
}

// HelpBindings returns the bindings advertised in the status bar for the
// current view.
func (kh *KeyHandler) HelpBindings() []key.Binding {
	b := kh.config.Keys.Bindings
	bind := func(k, desc string) key.Binding {
		return key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc))
	}

	switch kh.app.view {
	case ViewArticles:
		if kh.app.articles.Err != nil {
			return []key.Binding{bind("enter", "reset & retry"), bind(b.Quit, "quit")}
		}
		return []key.Binding{
			bind(b.Search, "search"),
			bind(b.Category, "category"),
			bind(b.SubCategory, "sub-category"),
			bind(b.Sort, "sort"),
			bind(b.Order, "order"),
			bind(b.PageSize, "page size"),
			bind(b.Dates, "dates"),
			bind(b.PrevPage+"/"+b.NextPage, "page"),
			bind(b.Reset, "reset"),
			bind(b.Open, "open"),
			bind(b.Quit, "quit"),
		}
	case ViewSearch:
		return []key.Binding{bind("enter", "apply"), bind("esc", "back"), bind(kh.modifierKey+b.Reset, "reset")}
	case ViewDates:
		return []key.Binding{bind("tab", "switch"), bind("enter", "apply"), bind("esc", "cancel")}
	case ViewGotoPage:
		return []key.Binding{bind("enter", "go"), bind("esc", "cancel")}
	case ViewCategory, ViewSubCategory, ViewSort, ViewPageSize:
		return []key.Binding{bind("↑/↓", "move"), bind("enter", "choose"), bind("esc", "cancel")}
	case ViewReader:
		return []key.Binding{bind(b.Open, "open in browser"), bind("esc", "back"), bind(b.Quit, "quit")}
	default:
		return nil
	}
}
