package tui

import (
	"strings"

	"github.com/pders01/mrkt/internal/marketplace"
)

type articleItem struct {
	article    marketplace.Article
	summaryLen int
}

func (i articleItem) Title() string {
	return ArticleTitleStyle.Render(singleLine(i.article.Title))
}

// Description shows byline, category path, date and summary on one line.
func (i articleItem) Description() string {
	var meta []string
	if i.article.Author != "" {
		meta = append(meta, i.article.Author)
	}
	if category := categoryPath(i.article); category != "" {
		meta = append(meta, CategoryStyle.Render(category))
	}
	if d := formatDate(i.article.Published.Time); d != "" {
		meta = append(meta, TimeStyle.Render(d))
	}

	line := strings.Join(meta, " • ")
	if summary := singleLine(i.article.Summary); summary != "" {
		if line != "" {
			line += " · "
		}
		line += truncateEnd(summary, i.summaryLen)
	}
	return renderMuted(line)
}

func (i articleItem) FilterValue() string { return i.article.Title }

func categoryPath(a marketplace.Article) string {
	switch {
	case a.Category != "" && a.SubCategory != "":
		return a.Category + " › " + a.SubCategory
	default:
		return a.Category
	}
}

// pickerItem is one choice of a category, sort or page size picker.
type pickerItem struct {
	label    string
	value    string
	selected bool
}

func (i pickerItem) Title() string {
	if i.selected {
		return "● " + i.label
	}
	return "  " + i.label
}

func (i pickerItem) Description() string { return "" }
func (i pickerItem) FilterValue() string { return i.label }
