package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/encoding"

	"github.com/mcdonaldj/rotlog/internal/config"
	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/textenc"
)

// View represents the current view state
type View int

const (
	HistoryView View = iota
	ContentView      // One generation's lines
	DiffView         // Two marked generations compared
)

// Model is the main TUI model
type Model struct {
	svc      ports.HistoryService
	config   *config.Config
	view     View
	width    int
	height   int
	quitting bool

	// History view
	generations []ports.Generation
	cursor      int
	marked      []int // Indices marked for comparison, at most two

	// Content and diff views
	viewport    viewport.Model
	viewing     string
	diffResult  *DiffResult
	diffSwapped bool // Whether the newer generation is shown as the base

	// Status message
	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Rotate  key.Binding
	Refresh key.Binding
	Mark    key.Binding
	Swap    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "view"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Rotate: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rotate now"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "refresh"),
	),
	Mark: key.NewBinding(
		key.WithKeys(" ", "tab"),
		key.WithHelp("space", "mark for diff"),
	),
	Swap: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "swap"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type statusMsg struct {
	msg string
	err bool
}

type diffMsg struct {
	result *DiffResult
	err    error
}

// NewModelWithService creates a model that loads its config and history from svc.
func NewModelWithService(svc ports.HistoryService) (*Model, error) {
	cfg, err := svc.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	m := NewModelWithConfig(cfg, svc)
	if err := m.loadGenerations(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModelWithConfig creates a model with an already loaded config.
// Generations are not loaded.
func NewModelWithConfig(cfg *config.Config, svc ports.HistoryService) *Model {
	return &Model{
		svc:      svc,
		config:   cfg,
		view:     HistoryView,
		viewport: viewport.New(80, 14),
	}
}

func (m *Model) loadGenerations() error {
	generations, err := m.svc.ListGenerations(m.config)
	if err != nil {
		return fmt.Errorf("listing generations: %w", err)
	}
	m.generations = generations
	m.marked = nil
	if m.cursor >= len(m.generations) {
		m.cursor = len(m.generations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return nil
}

// readText reads a generation and decodes it from the configured encoding.
func (m *Model) readText(g ports.Generation) (string, error) {
	data, err := m.svc.ReadGeneration(m.config, g)
	if err != nil {
		return "", err
	}
	enc, err := m.encoding()
	if err != nil {
		return "", err
	}
	return textenc.Decode(enc, data)
}

func (m *Model) encoding() (encoding.Encoding, error) {
	return textenc.Lookup(m.config.Encoding)
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = m.contentHeight()
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		// Reload to reflect the rotation
		if err := m.loadGenerations(); err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", err)
			m.statusErr = true
		}
		return m, nil

	case diffMsg:
		m.marked = nil
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Diff failed: %v", msg.err)
			m.statusErr = true
			return m, nil
		}
		m.diffResult = msg.result
		m.diffSwapped = false
		m.viewport.SetContent(m.renderDiffLines())
		m.viewport.GotoTop()
		m.view = DiffView
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		// Clear status on any key
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Back):
			if m.view != HistoryView {
				m.view = HistoryView
				m.diffResult = nil
				m.viewing = ""
			}
			return m, nil
		}

		if m.view != HistoryView {
			if m.view == DiffView && key.Matches(msg, keys.Swap) {
				m.diffSwapped = !m.diffSwapped
				m.viewport.SetContent(m.renderDiffLines())
				return m, nil
			}
			// Scrolling is handled by the viewport's own key map
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Enter):
			if len(m.generations) > 0 {
				m.openGeneration(m.generations[m.cursor])
			}

		case key.Matches(msg, keys.Rotate):
			return m, m.rotate()

		case key.Matches(msg, keys.Refresh):
			if err := m.loadGenerations(); err != nil {
				m.statusMsg = fmt.Sprintf("Error: %v", err)
				m.statusErr = true
			}

		case key.Matches(msg, keys.Mark):
			return m, m.toggleMark()
		}
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.generations) {
		m.cursor = len(m.generations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) openGeneration(g ports.Generation) {
	text, err := m.readText(g)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		m.statusErr = true
		return
	}
	if text == "" {
		text = dimStyle.Render("(empty)")
	}
	m.viewing = g.Name
	m.viewport.SetContent(text)
	m.viewport.GotoTop()
	m.view = ContentView
}

func (m *Model) rotate() tea.Cmd {
	svc, cfg := m.svc, m.config
	return func() tea.Msg {
		rotated, err := svc.Rotate(cfg)
		if err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("Rotation failed: %v", err)}
		}
		if !rotated {
			return statusMsg{msg: "Nothing to rotate"}
		}
		return statusMsg{msg: fmt.Sprintf("✓ Rotated %s", logfile.BaseName(cfg.Name))}
	}
}

func (m *Model) toggleMark() tea.Cmd {
	if len(m.generations) == 0 {
		return nil
	}
	idx := m.cursor
	for i, sel := range m.marked {
		if sel == idx {
			m.marked = append(m.marked[:i], m.marked[i+1:]...)
			return nil
		}
	}
	m.marked = append(m.marked, idx)
	if len(m.marked) < 2 {
		m.statusMsg = "Mark one more generation to compare"
		return nil
	}

	// Generations are listed newest first
	first, second := m.marked[0], m.marked[1]
	if first > second {
		first, second = second, first
	}
	newer, older := m.generations[first], m.generations[second]
	return func() tea.Msg {
		olderText, err := m.readText(older)
		if err != nil {
			return diffMsg{err: err}
		}
		newerText, err := m.readText(newer)
		if err != nil {
			return diffMsg{err: err}
		}
		return diffMsg{result: ComputeDiff(older.Name, olderText, newer.Name, newerText)}
	}
}

func (m *Model) isMarked(idx int) bool {
	for _, sel := range m.marked {
		if sel == idx {
			return true
		}
	}
	return false
}

func (m *Model) contentHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.view {
	case HistoryView:
		content = m.renderHistoryView()
	case ContentView:
		content = m.renderContentView()
	case DiffView:
		content = m.renderDiffView()
	}

	return appStyle.Render(content)
}

func (m *Model) renderHistoryView() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" 📜 %s ", logfile.BaseName(m.config.Name)))
	b.WriteString(title)
	if dir, err := m.config.LogDir(); err == nil {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(dir))
	}
	b.WriteString("\n\n")

	visibleHeight := m.contentHeight()

	if len(m.generations) == 0 {
		b.WriteString(dimStyle.Render("  No log files yet"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("    %-28s %10s  %s", "GENERATION", "SIZE", "WHERE")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 56)))
		b.WriteString("\n")

		start := 0
		if m.cursor >= visibleHeight {
			start = m.cursor - visibleHeight + 1
		}

		for i := start; i < len(m.generations) && i < start+visibleHeight; i++ {
			g := m.generations[i]
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "▸ "
				style = selectedStyle
			}
			mark := "  "
			if m.isMarked(i) {
				mark = markedStyle.Render("● ")
			}

			where := string(g.Location)
			if g.Location == ports.LocationArchive {
				where = archiveBadge.Render(where)
			}

			line := fmt.Sprintf("%s%-28s %10s  ", cursor, truncate(g.Name, 28), logfile.FormatSize(g.Size))
			b.WriteString(mark)
			b.WriteString(style.Render(line))
			b.WriteString(where)
			b.WriteString("\n")
		}
	}

	// Pad to fixed height
	for i := len(m.generations); i < visibleHeight; i++ {
		b.WriteString("\n")
	}

	m.writeStatus(&b)

	help := "[↑/↓] navigate  [enter] view  [space] mark  [r] rotate  [u] refresh  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderContentView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" 📄 %s ", m.viewing)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %3.f%%", m.viewport.ScrollPercent()*100)))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	m.writeStatus(&b)

	help := "[↑/↓] scroll  [pgup/pgdn] page  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderDiffView() string {
	var b strings.Builder

	if m.diffResult == nil {
		return "No diff loaded"
	}

	base, other := m.diffResult.Older, m.diffResult.Newer
	if m.diffSwapped {
		base, other = other, base
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf(" 🔍 %s → %s ", base, other)))
	b.WriteString("  ")
	b.WriteString(addedStyle.Render(fmt.Sprintf("+%d", m.added())))
	b.WriteString(" ")
	b.WriteString(deletedStyle.Render(fmt.Sprintf("-%d", m.deleted())))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	m.writeStatus(&b)

	help := "[↑/↓] scroll  [s] swap  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) added() int {
	if m.diffSwapped {
		return m.diffResult.Deleted
	}
	return m.diffResult.Added
}

func (m *Model) deleted() int {
	if m.diffSwapped {
		return m.diffResult.Added
	}
	return m.diffResult.Deleted
}

// renderDiffLines renders the diff body for the viewport. Swapping flips
// additions and deletions so the newer generation reads as the base.
func (m *Model) renderDiffLines() string {
	if m.diffResult.IsBinary {
		return dimStyle.Render("Binary content, cannot compare")
	}
	if len(m.diffResult.Lines) == 0 {
		return dimStyle.Render("Both generations are empty")
	}

	var b strings.Builder
	for _, line := range m.diffResult.Lines {
		kind := line.Type
		num1, num2 := line.LineNum1, line.LineNum2
		if m.diffSwapped {
			num1, num2 = num2, num1
			switch kind {
			case '+':
				kind = '-'
			case '-':
				kind = '+'
			}
		}

		text := fmt.Sprintf("%s %s %c %s", lineNum(num1), lineNum(num2), kind, line.Content)
		switch kind {
		case '+':
			b.WriteString(addedStyle.Render(text))
		case '-':
			b.WriteString(deletedStyle.Render(text))
		default:
			b.WriteString(normalStyle.Render(text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) writeStatus(b *strings.Builder) {
	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
}

func lineNum(n int) string {
	if n == 0 {
		return "    "
	}
	return fmt.Sprintf("%4d", n)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// Run starts the TUI
func Run(svc ports.HistoryService) error {
	m, err := NewModelWithService(svc)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
