// Package preview is the interactive terminal preview of a rustmd document.
// The model only holds rendered text; loading and watching files is the
// caller's job, which feeds results in as ReloadMsg.
package preview

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ReloadMsg carries a freshly rendered document, or the error that
// prevented rendering it.
type ReloadMsg struct {
	Content string
	Err     error
	At      time.Time
}

// statusHeight is the number of rows reserved for the status bar.
const statusHeight = 1

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f2f2f2")).
			Background(lipgloss.Color("#101F38")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f2f2f2")).
			Background(lipgloss.Color("#e53935")).
			Padding(0, 1)
)

// Model shows one document in a scrollable viewport.
type Model struct {
	path     string
	viewport viewport.Model
	reloads  int
	lastErr  error
	lastAt   time.Time
	content  string
}

// New creates a preview for path with initial rendered content.
func New(path, content string) Model {
	vp := viewport.New(80, 20)
	vp.SetContent(content)
	return Model{
		path:     path,
		viewport: vp,
		content:  content,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-statusHeight, 1)

	case ReloadMsg:
		m.lastAt = msg.At
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.lastErr = nil
		m.reloads++
		m.content = msg.Content
		offset := m.viewport.YOffset
		m.viewport.SetContent(msg.Content)
		// Keep the reader's place across reloads.
		m.viewport.SetYOffset(offset)
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the viewport and status bar.
func (m Model) View() string {
	return m.viewport.View() + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	name := filepath.Base(m.path)
	if m.lastErr != nil {
		return errorStyle.Render(fmt.Sprintf("%s: %v", name, m.lastErr))
	}
	status := fmt.Sprintf("%s  %3.f%%  reloads: %d", name, m.viewport.ScrollPercent()*100, m.reloads)
	if !m.lastAt.IsZero() {
		status += "  updated " + m.lastAt.Format("15:04:05")
	}
	return statusStyle.Render(status + "  q: quit")
}

// Content returns the text currently displayed.
func (m Model) Content() string {
	return m.content
}

// Reloads returns how many successful reloads were applied.
func (m Model) Reloads() int {
	return m.reloads
}

// Err returns the error from the last reload, if it failed.
func (m Model) Err() error {
	return m.lastErr
}
