package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/mrkt/internal/pagination"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderChips lays the active filter labels out on as many lines as the
// width requires.
func renderChips(labels []string, width int) string {
	if len(labels) == 0 {
		return ""
	}
	var lines []string
	var line []string
	used := 0
	for _, l := range labels {
		chip := ChipStyle.Render(truncateEnd(l, max(width-4, 8)))
		w := lipgloss.Width(chip) + 1
		if used > 0 && used+w > width {
			lines = append(lines, strings.Join(line, " "))
			line, used = nil, 0
		}
		line = append(line, chip)
		used += w
	}
	lines = append(lines, strings.Join(line, " "))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderPagination draws the page window with the current page highlighted.
func renderPagination(items []pagination.Item, current int) string {
	if len(items) == 0 {
		return ""
	}
	last := items[len(items)-1].Page
	parts := make([]string, 0, len(items)+2)

	if current > 1 {
		parts = append(parts, renderMuted("‹"))
	}
	for _, it := range items {
		switch {
		case it.Ellipsis:
			parts = append(parts, renderMuted("…"))
		case it.Page == current:
			parts = append(parts, CurrentPageStyle.Render("["+strconv.Itoa(it.Page)+"]"))
		default:
			parts = append(parts, strconv.Itoa(it.Page))
		}
	}
	if current < last {
		parts = append(parts, renderMuted("›"))
	}
	return strings.Join(parts, " ")
}
