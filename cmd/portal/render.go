package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6B7280")
	danger = lipgloss.Color("#E53935")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(12)
	errorStyle  = lipgloss.NewStyle().Foreground(danger)
	okStyle     = lipgloss.NewStyle().Foreground(accent)
)

const maxCell = 48

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table renders rows under headers with columns padded to their widest cell
type table struct {
	headers []string
	rows    [][]string
}

func (t *table) add(cells ...string) {
	for i, cell := range cells {
		if lipgloss.Width(cell) > maxCell {
			cells[i] = string([]rune(cell)[:maxCell-1]) + "…"
		}
	}
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var sb strings.Builder
	line := func(style lipgloss.Style, cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style.Width(widths[i] + 2).Render(cell)
		}
		sb.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " "))
		sb.WriteString("\n")
	}

	line(headerStyle, t.headers)
	for _, row := range t.rows {
		line(cellStyle, row)
	}
	return sb.String()
}

func careerTable(items []domain.Career) *table {
	t := &table{headers: []string{"ID", "TITLE", "CATEGORY", "SALARY"}}
	for _, c := range items {
		t.add(c.ID.String(), c.Title, c.CategoryName, c.DisplaySalary())
	}
	return t
}

func renderPage(w io.Writer, title string, res normalize.PaginatedResult[domain.Career]) error {
	if len(res.Items) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no careers found"))
		return err
	}
	footer := fmt.Sprintf("page %d, %d of %d", res.Page, len(res.Items), res.Total)
	if res.HasMore {
		footer += fmt.Sprintf(", next: --page %d", res.Page+1)
	}
	_, err := fmt.Fprintf(w, "%s\n%s%s\n", titleStyle.Render(title), careerTable(res.Items).render(), mutedStyle.Render(footer))
	return err
}

func renderCareer(w io.Writer, c domain.Career) error {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(c.Title))
	if c.IsFavorite {
		sb.WriteString(" " + okStyle.Render("★"))
	}
	sb.WriteString("\n")

	field := func(label, value string) {
		if value != "" {
			sb.WriteString(labelStyle.Render(label) + value + "\n")
		}
	}
	field("ID", c.ID.String())
	field("Category", c.CategoryName)
	field("Salary", c.DisplaySalary())
	field("Skills", strings.Join(c.Skills, ", "))
	field("Education", c.Education)
	field("Experience", c.Experience)
	field("Outlook", c.Outlook)
	if c.Description != "" {
		sb.WriteString("\n" + lipgloss.NewStyle().Width(80).Render(c.Description) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderTree(w io.Writer, roots []domain.Category) error {
	var sb strings.Builder
	for _, root := range roots {
		root.Walk(func(c domain.Category, depth int) {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString(c.Name)
			sb.WriteString(" " + mutedStyle.Render("#"+c.ID.String()) + "\n")
		})
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderRecommendations(w io.Writer, recs domain.Recommendations) error {
	if len(recs.Recommendations) == 0 {
		msg := recs.Message
		if msg == "" {
			msg = "no recommendations yet; favorite a few careers first"
		}
		_, err := fmt.Fprintln(w, mutedStyle.Render(msg))
		return err
	}
	t := &table{headers: []string{"ID", "TITLE", "MATCH", "SALARY"}}
	for _, r := range recs.Recommendations {
		t.add(r.ID.String(), r.Title, fmt.Sprintf("%.0f%%", r.Match*100), r.DisplaySalary())
	}
	_, err := fmt.Fprintf(w, "%s\n%s", titleStyle.Render("Recommended careers"), t.render())
	return err
}

func success(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintln(w, okStyle.Render(fmt.Sprintf(format, args...)))
	return err
}
