package viewtui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	darkBackground  = "#1C1C1C"
	lightBackground = "#FAFAFA"

	chromeBackground = "#3A3A5C"
	chromeForeground = "#EEEEEE"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	lines := m.buffer.Lines()
	rows := m.textRows()
	for i := 0; i < rows; i++ {
		row := m.scrollRow + i
		if row < len(lines) {
			b.WriteString(m.renderLine(row, lines[row]))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(chromeForeground)).
		Background(lipgloss.Color(chromeBackground)).
		Bold(true).
		Padding(0, 1)

	kind := "dark"
	if !m.dark {
		kind = "light"
	}
	line := fmt.Sprintf("semhl — %s  [%s]", m.cfg.Path, kind)
	return style.Width(max(0, m.width)).Render(truncate(line, max(0, m.width-2)))
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(chromeForeground)).
		Background(lipgloss.Color(chromeBackground)).
		Padding(0, 1)

	status := fmt.Sprintf("spans %d", m.world.CountSpans(m.buffer.ID()))
	if m.lastEvent != "" {
		status += "  " + m.lastEvent
	}
	help := "^L load  ^U unload  ^T background  esc quit"
	line := padRight(status, max(0, m.width-len(help)-4)) + help
	return style.Width(max(0, m.width)).Render(truncate(line, max(0, m.width-2)))
}

// renderLine paints one buffer line, grouping runs of columns that
// share a span style. The editor background and the cursor cell are
// rendered with explicit lipgloss styles so the ΔE guarantees are
// actually visible.
func (m *Model) renderLine(row int, line string) string {
	bg := darkBackground
	if !m.dark {
		bg = lightBackground
	}
	base := lipgloss.NewStyle().Background(lipgloss.Color(bg))

	var b strings.Builder
	col := 0
	for col < len(line) {
		style, ok := m.world.SpanAt(m.buffer.ID(), row, col)
		run := col + 1
		for run < len(line) {
			next, nextOK := m.world.SpanAt(m.buffer.ID(), row, run)
			if nextOK != ok || next != style {
				break
			}
			run++
		}

		segment := base
		if ok {
			if fg, found := m.world.Foreground(style); found {
				segment = segment.Foreground(lipgloss.Color(fg))
			}
		}
		b.WriteString(m.renderSegment(segment, row, col, line[col:run]))
		col = run
	}

	if row == m.cursorRow && m.cursorCol >= len(line) {
		b.WriteString(base.Reverse(true).Render(" "))
	}
	return b.String()
}

// renderSegment splits the cursor cell out of a styled run.
func (m *Model) renderSegment(style lipgloss.Style, row, startCol int, text string) string {
	if row != m.cursorRow || m.cursorCol < startCol || m.cursorCol >= startCol+len(text) {
		return style.Render(text)
	}
	i := m.cursorCol - startCol
	var b strings.Builder
	if i > 0 {
		b.WriteString(style.Render(text[:i]))
	}
	b.WriteString(style.Reverse(true).Render(text[i : i+1]))
	if i+1 < len(text) {
		b.WriteString(style.Render(text[i+1:]))
	}
	return b.String()
}
