package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
)

func (a *App) fetchArticles(c filter.Criteria) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.queries.Context(context.Background())
		defer cancel()
		return articlesLoadedMsg{state: a.queries.Articles(ctx, c)}
	}
}

func (a *App) fetchCategories() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.queries.Context(context.Background())
		defer cancel()
		return categoriesLoadedMsg{state: a.queries.Categories(ctx)}
	}
}

func (a *App) fetchSubCategories(category string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.queries.Context(context.Background())
		defer cancel()
		return subCategoriesLoadedMsg{category: category, state: a.queries.SubCategories(ctx, category)}
	}
}

// articleMarkdown lays an article out for the reader.
func articleMarkdown(article marketplace.Article) string {
	var content strings.Builder
	fmt.Fprintf(&content, "# %s\n\n", singleLine(article.Title))

	var meta []string
	if article.Author != "" {
		meta = append(meta, "*"+article.Author+"*")
	}
	if category := categoryPath(article); category != "" {
		meta = append(meta, category)
	}
	if d := formatDate(article.Published.Time); d != "" {
		meta = append(meta, d)
	} else if article.Published.Raw != "" {
		meta = append(meta, article.Published.Raw)
	}
	if len(meta) > 0 {
		content.WriteString(strings.Join(meta, " · ") + "\n\n")
	}

	content.WriteString("---\n\n")
	if article.Summary != "" {
		content.WriteString(strings.TrimSpace(article.Summary) + "\n\n")
	} else {
		content.WriteString("*No summary available.*\n\n")
	}

	if len(article.Tags) > 0 {
		tags := make([]string, len(article.Tags))
		for i, t := range article.Tags {
			tags[i] = "`" + t + "`"
		}
		fmt.Fprintf(&content, "**Tags:** %s\n\n", strings.Join(tags, " "))
	}

	if len(article.Images) > 0 {
		content.WriteString("**Images:**\n")
		for _, img := range article.Images {
			label := img.Alt
			if label == "" {
				label = img.URL
			}
			fmt.Fprintf(&content, "- [%s](%s)\n", label, img.URL)
		}
		content.WriteString("\n")
	}

	if article.URL != "" {
		fmt.Fprintf(&content, "[Read online](%s)\n", article.URL)
	}
	return content.String()
}

func (a *App) renderArticle(article marketplace.Article) tea.Cmd {
	renderer, err := a.getRenderer()
	return func() tea.Msg {
		markdown := articleMarkdown(article)
		if err != nil {
			return articleRenderedMsg{url: article.URL, content: markdown}
		}
		rendered, err := renderer.Render(markdown)
		if err != nil {
			return articleRenderedMsg{url: article.URL, content: fmt.Sprintf("Failed to render article: %v\n\n%s", err, markdown)}
		}
		return articleRenderedMsg{url: article.URL, content: rendered}
	}
}

// getRenderer caches the glamour renderer until the width drifts.
func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	limits := a.config.UI.Article
	wordWrapWidth := (a.width * 9) / 10
	if limits.WordWrapMaxWidth > 0 && wordWrapWidth > limits.WordWrapMaxWidth {
		wordWrapWidth = limits.WordWrapMaxWidth
	}
	if wordWrapWidth < limits.WordWrapMinWidth {
		wordWrapWidth = limits.WordWrapMinWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) openURL(article marketplace.Article) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(article.URL) == "" {
			return statusMsg{text: MsgNoURL, kind: StatusWarn}
		}
		if err := a.launcher.Open(article.URL); err != nil {
			return errorMsg{err: wrapErr("open", err)}
		}
		return statusMsg{text: MsgOpening(article.Title), kind: StatusSuccess}
	}
}
