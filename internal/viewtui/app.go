// Package viewtui is the interactive viewer: it loads a file into a
// textbuf buffer, attaches the highlight engine, and renders the
// colored spans live while the user edits. Every keystroke travels the
// same byte-change path an editor host would drive.
package viewtui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hantianjz/semhl/internal/engine"
	"github.com/hantianjz/semhl/internal/events"
	"github.com/hantianjz/semhl/internal/host"
	"github.com/hantianjz/semhl/internal/textbuf"
)

// Config describes one viewer session.
type Config struct {
	Path     string
	World    *textbuf.World
	Engine   *engine.Engine
	Events   *events.Publisher
	Buffer   *textbuf.Buffer
	DarkMode bool
}

type engineEventMsg events.Event

// Model is the bubbletea model for the viewer.
type Model struct {
	cfg     Config
	world   *textbuf.World
	eng     *engine.Engine
	buffer  *textbuf.Buffer
	eventCh chan events.Event

	cursorRow int
	cursorCol int
	scrollRow int
	width     int
	height    int
	dark      bool
	lastEvent string
	quitting  bool
}

// NewModel builds the viewer model and subscribes to engine events.
func NewModel(cfg Config) (*Model, error) {
	m := &Model{
		cfg:     cfg,
		world:   cfg.World,
		eng:     cfg.Engine,
		buffer:  cfg.Buffer,
		eventCh: make(chan events.Event, 64),
		width:   80,
		height:  24,
		dark:    cfg.DarkMode,
	}
	if cfg.Events != nil {
		err := cfg.Events.Subscribe("viewtui", events.Filter{}, func(e events.Event) {
			select {
			case m.eventCh <- e:
			default: // viewer lagging; drop rather than block the engine
			}
		})
		if err != nil {
			return nil, fmt.Errorf("subscribe viewer: %w", err)
		}
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg(<-m.eventCh)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case engineEventMsg:
		m.lastEvent = describeEvent(events.Event(msg))
		return m, m.waitForEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+l":
		m.eng.Load(m.buffer.ID())
		return m, nil

	case "ctrl+u":
		m.eng.Unload(m.buffer.ID())
		return m, nil

	case "ctrl+t":
		m.toggleBackground()
		return m, nil

	case "up":
		m.moveCursor(-1, 0)
	case "down":
		m.moveCursor(1, 0)
	case "left":
		m.moveCursor(0, -1)
	case "right":
		m.moveCursor(0, 1)

	case "enter":
		m.buffer.InsertText(m.cursorRow, m.cursorCol, "\n")
		m.cursorRow++
		m.cursorCol = 0

	case "backspace":
		m.deleteBack()

	case "tab":
		m.buffer.InsertText(m.cursorRow, m.cursorCol, "    ")
		m.cursorCol += 4

	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
			text := string(msg.Runes)
			m.buffer.InsertText(m.cursorRow, m.cursorCol, text)
			m.cursorCol += len(text)
		} else if msg.Type == tea.KeySpace {
			m.buffer.InsertText(m.cursorRow, m.cursorCol, " ")
			m.cursorCol++
		}
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) toggleBackground() {
	m.dark = !m.dark
	if m.dark {
		m.world.SetBackground(darkBackground, host.BackgroundDark)
	} else {
		m.world.SetBackground(lightBackground, host.BackgroundLight)
	}
	m.eng.OnBackgroundChanged()
}

func (m *Model) moveCursor(dRow, dCol int) {
	m.cursorRow += dRow
	m.cursorCol += dCol
	m.clampCursor()
}

func (m *Model) clampCursor() {
	lines := m.buffer.Lines()
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
	if m.cursorRow >= len(lines) {
		m.cursorRow = len(lines) - 1
	}
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.cursorCol > len(lines[m.cursorRow]) {
		m.cursorCol = len(lines[m.cursorRow])
	}

	visible := m.textRows()
	if m.cursorRow < m.scrollRow {
		m.scrollRow = m.cursorRow
	}
	if m.cursorRow >= m.scrollRow+visible {
		m.scrollRow = m.cursorRow - visible + 1
	}
}

func (m *Model) deleteBack() {
	if m.cursorCol > 0 {
		m.buffer.DeleteRange(host.Range{
			StartRow: m.cursorRow, StartCol: m.cursorCol - 1,
			EndRow: m.cursorRow, EndCol: m.cursorCol,
		})
		m.cursorCol--
		return
	}
	if m.cursorRow > 0 {
		prevLen := len(m.buffer.Line(m.cursorRow - 1))
		m.buffer.DeleteRange(host.Range{
			StartRow: m.cursorRow - 1, StartCol: prevLen,
			EndRow: m.cursorRow, EndCol: 0,
		})
		m.cursorRow--
		m.cursorCol = prevLen
	}
}

func (m *Model) textRows() int {
	// Header and footer take one row each.
	rows := m.height - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

func describeEvent(e events.Event) string {
	switch e.Type {
	case events.EventSpansUpdated:
		return fmt.Sprintf("spans: %d", e.SpanCount)
	case events.EventBufferAttached:
		return "attached"
	case events.EventBufferDetached:
		return "detached"
	case events.EventBackgroundRebuilt:
		return "background rebuilt"
	case events.EventCacheSaved:
		return "cache saved"
	}
	return string(e.Type)
}

// Run starts the viewer and blocks until it exits.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
