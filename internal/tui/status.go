package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingArticles   = "Loading articles…"
	MsgLoadingCategories = "Loading categories…"
	MsgRendering         = "Rendering article…"
	MsgRefreshing        = "Refreshing…"
	MsgFiltersReset      = "Filters reset"
	MsgNoArticles        = "No articles found"
	MsgPickCategoryFirst = "Choose a category first"
	MsgNoURL             = "This article has no link"
)

// MsgArticlesFound is the result count line shown above the list.
func MsgArticlesFound(n int) string {
	if n == 1 {
		return "1 article found"
	}
	return fmt.Sprintf("%d articles found", n)
}

// MsgEntriesHidden explains a page whose entries were all rejected.
func MsgEntriesHidden(n int) string {
	if n == 1 {
		return "1 entry on this page could not be displayed"
	}
	return fmt.Sprintf("%d entries on this page could not be displayed", n)
}

func MsgPageOf(page, total int) string {
	return fmt.Sprintf("page %d of %d", page, total)
}

func MsgOpening(title string) string {
	return fmt.Sprintf("Opening '%s'", strings.TrimSpace(title))
}
