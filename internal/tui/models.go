package tui

import (
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/query"
)

type View int

const (
	ViewArticles View = iota
	ViewSearch
	ViewCategory
	ViewSubCategory
	ViewSort
	ViewPageSize
	ViewDates
	ViewGotoPage
	ViewReader
)

// isPicker reports whether v is one of the list overlays.
func (v View) isPicker() bool {
	switch v {
	case ViewCategory, ViewSubCategory, ViewSort, ViewPageSize:
		return true
	}
	return false
}

// SearchMode selects which criteria field the search box edits.
type SearchMode int

const (
	SearchTitle SearchMode = iota
	SearchAuthor
	SearchContent
)

func (m SearchMode) Label() string {
	switch m {
	case SearchAuthor:
		return "author"
	case SearchContent:
		return "content"
	default:
		return "title"
	}
}

type articlesLoadedMsg struct {
	state query.State[*marketplace.ArticlePage]
}

type categoriesLoadedMsg struct {
	state query.State[[]string]
}

type subCategoriesLoadedMsg struct {
	category string
	state    query.State[[]string]
}

type articleRenderedMsg struct {
	url     string
	content string
}

type errorMsg struct {
	err error
}

type statusMsg struct {
	text string
	kind StatusKind
}
