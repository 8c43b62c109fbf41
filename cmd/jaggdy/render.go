package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nvandessel/jaggdy/internal/logic"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD068"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

const barWidth = 30

// bar renders p in [0,1] as a horizontal bar.
func bar(p float64) string {
	n := int(p*barWidth + 0.5)
	if n > barWidth {
		n = barWidth
	}
	if n < 0 {
		n = 0
	}
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat("·", barWidth-n)
}

func header(title string) string {
	return headerStyle.Render(title)
}

func label(s string) string {
	return labelStyle.Render(s)
}

// profile renders one belief per agent, e.g. "100 111 001".
func profile(beliefs []logic.Interpretation) string {
	parts := make([]string, len(beliefs))
	for i, b := range beliefs {
		parts[i] = b.Key()
	}
	return strings.Join(parts, " ")
}

func profileOf(models []logic.Interpretation, indices []int) string {
	parts := make([]string, len(indices))
	for i, m := range indices {
		parts[i] = models[m].Key()
	}
	return strings.Join(parts, " ")
}

func keysOf(models []logic.Interpretation, indices []int) []string {
	out := make([]string, len(indices))
	for i, m := range indices {
		out[i] = models[m].Key()
	}
	return out
}

// probabilityRow renders "  0.5000  ███···  001 001 001".
func probabilityRow(p float64, what string) string {
	return fmt.Sprintf("  %.4f  %s  %s", p, bar(p), what)
}

func box(title string, lines []string) string {
	body := strings.Join(lines, "\n")
	if title != "" {
		body = header(title) + "\n" + body
	}
	return boxStyle.Render(body)
}
