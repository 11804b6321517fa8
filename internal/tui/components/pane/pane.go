// Package pane is a scrollable block of pre-rendered lines.
package pane

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type Model struct {
	viewport viewport.Model
	lines    []string
	empty    string
}

// New returns a pane that shows empty until lines are set.
func New(empty string, width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		empty:    empty,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.lines) == 0 {
		return m.empty
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.render()
}

func (m *Model) SetLines(lines []string) {
	m.lines = lines
	m.render()
}

// Content is the text currently rendered, or the empty message.
func (m Model) Content() string {
	if len(m.lines) == 0 {
		return m.empty
	}
	return strings.Join(m.lines, "\n")
}

func (m *Model) render() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
}
