// internal/browse/model.go

// Package browse is the interactive tri-state tree shown before an export.
// Entries appear as discovery delivers them; the user includes or excludes
// them and then accepts or cancels.
package browse

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gagin/packexport/internal/discovery"
	"github.com/gagin/packexport/internal/selection"
)

// Outcome is how the user left the browser.
type Outcome int

const (
	Cancelled Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "cancelled"
}

// batchMsg carries one discovery batch into Update.
type batchMsg discovery.Batch

// scanDoneMsg reports the end of discovery.
type scanDoneMsg struct{ err error }

// row is one visible line of the tree.
type row struct {
	path  string
	name  string
	depth int
	isDir bool
}

// Model is the bubbletea model for the browser.
type Model struct {
	projector *selection.Projector
	batches   <-chan discovery.Batch
	scanErr   <-chan error
	logger    *slog.Logger

	expanded map[string]bool
	rows     []row
	cursor   int
	offset   int

	width  int
	height int

	scanning bool
	message  string
	outcome  Outcome
	done     bool
}

// New creates a browser over p. Batches are read from batches until it
// closes, after which one value is read from scanErr (nil on success).
func New(p *selection.Projector, batches <-chan discovery.Batch, scanErr <-chan error, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		projector: p,
		batches:   batches,
		scanErr:   scanErr,
		logger:    logger,
		expanded:  map[string]bool{p.Root(): true},
		width:     100,
		height:    30,
		scanning:  true,
	}
	m.rebuild()
	return m
}

// Outcome returns how the user finished. Valid once the program exits.
func (m Model) Outcome() Outcome { return m.outcome }

// Done reports whether the user has accepted or cancelled.
func (m Model) Done() bool { return m.done }

// Init starts reading discovery batches.
func (m Model) Init() tea.Cmd {
	return m.waitForBatch()
}

func (m Model) waitForBatch() tea.Cmd {
	batches, scanErr := m.batches, m.scanErr
	return func() tea.Msg {
		batch, ok := <-batches
		if !ok {
			var err error
			if scanErr != nil {
				err = <-scanErr
			}
			return scanDoneMsg{err: err}
		}
		return batchMsg(batch)
	}
}

// Update handles discovery messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil

	case batchMsg:
		expand, err := m.projector.OnEntriesDiscovered(msg.Parent, msg.Entries)
		if err != nil {
			m.logger.Warn("Discarding discovery batch.", "parent", msg.Parent, "error", err)
		}
		for _, path := range expand {
			m.expanded[path] = true
		}
		m.rebuild()
		return m, m.waitForBatch()

	case scanDoneMsg:
		m.scanning = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Scan incomplete: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.outcome = Cancelled
		m.done = true
		return m, tea.Quit

	case "a", "A":
		m.outcome = Accepted
		m.done = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		m.cursor = len(m.rows) - 1

	case " ", "x":
		m.toggleCurrent()

	case "right", "l":
		if r, ok := m.current(); ok && r.isDir {
			m.expanded[r.path] = true
			m.rebuild()
		}

	case "left", "h":
		if r, ok := m.current(); ok {
			if r.isDir && m.expanded[r.path] && r.path != m.projector.Root() {
				delete(m.expanded, r.path)
				m.rebuild()
			} else if r.depth > 0 {
				m.moveTo(filepath.Dir(r.path))
			}
		}

	case "enter":
		if r, ok := m.current(); ok && r.isDir && r.path != m.projector.Root() {
			m.expanded[r.path] = !m.expanded[r.path]
			m.rebuild()
		}
	}
	m.clampOffset()
	return m, nil
}

func (m *Model) toggleCurrent() {
	r, ok := m.current()
	if !ok {
		return
	}
	state, err := m.projector.State(r.path)
	if err != nil {
		m.message = err.Error()
		return
	}
	include := state != selection.Checked
	got, err := m.projector.Toggle(r.path, include)
	if err != nil {
		if errors.Is(err, selection.ErrRootEntry) {
			m.message = "The instance root cannot be excluded."
		} else {
			m.message = err.Error()
		}
		return
	}
	if include && got == selection.Unchecked {
		m.message = "Still excluded by an ignored parent folder."
	}
}

func (m Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) moveTo(path string) {
	for i, r := range m.rows {
		if r.path == path {
			m.cursor = i
			return
		}
	}
}

// rebuild flattens the expanded part of the tree into rows, keeping the
// cursor on the same path when it is still visible.
func (m *Model) rebuild() {
	var keep string
	if r, ok := m.current(); ok {
		keep = r.path
	}

	root := m.projector.Root()
	m.rows = make([]row, 0, len(m.rows)+1)
	m.rows = append(m.rows, row{path: root, name: filepath.Base(root), isDir: true})
	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		children, err := m.projector.Children(path)
		if err != nil {
			return
		}
		for _, c := range children {
			m.rows = append(m.rows, row{path: c.Path, name: filepath.Base(c.Path), depth: depth, isDir: c.IsDir})
			if c.IsDir && m.expanded[c.Path] {
				walk(c.Path, depth+1)
			}
		}
	}
	walk(root, 1)

	if keep != "" {
		m.moveTo(keep)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.clampOffset()
}

// listHeight is the number of tree rows that fit on screen.
func (m Model) listHeight() int {
	h := m.height - 6
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func marker(s selection.State) string {
	switch s {
	case selection.Checked:
		return checkedStyle.Render("[x]")
	case selection.PartiallyChecked:
		return partialStyle.Render("[~]")
	default:
		return uncheckedStyle.Render("[ ]")
	}
}

// View renders the tree, a status line and key help.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Export " + filepath.Base(m.projector.Root())))
	b.WriteString("\n")

	end := m.offset + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		state, _ := m.projector.State(r.path)
		fold := "  "
		if r.isDir {
			fold = tern(m.expanded[r.path], "▾ ", "▸ ")
		}
		name := r.name
		if r.isDir {
			name += "/"
		}
		line := strings.Repeat("  ", r.depth) + fold + marker(state) + " " + name
		style := tern(i == m.cursor, cursorRowStyle, rowStyle)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("%d entries, %d ignore prefixes", m.projector.Len(), len(m.projector.BlockedPaths()))
	if m.scanning {
		status += " · scanning…"
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space: include/exclude · enter/→/←: expand/collapse · a: export · q/esc: cancel"))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func tern[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
