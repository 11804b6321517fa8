package queuelist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
)

// AnswerItemMsg asks the parent to answer the selected entry.
type AnswerItemMsg struct {
	Item Item
}

// CompleteItemMsg asks the parent to complete the entry without an answer.
type CompleteItemMsg struct {
	Item Item
}

type Item struct {
	Entry models.QueueItem
	Label string
	High  bool
}

func (i Item) Title() string {
	title := i.Label
	if title == "" {
		title = "(missing " + i.Entry.Category + ")"
	}
	if i.Entry.Completed {
		return "✓ " + title
	}
	if i.High {
		return "★ " + title
	}
	return title
}

func (i Item) Description() string {
	desc := i.Entry.Category
	if i.Entry.Completed && i.Entry.Response != "" {
		desc += " | " + i.Entry.Response
	}
	return desc
}

func (i Item) FilterValue() string { return i.Label }

// IsAction reports whether the entry points at an action rather than an entity.
func (i Item) IsAction() bool {
	return i.Entry.Category == constants.QueueCategoryAction
}

type KeyMap struct {
	Answer   key.Binding
	Complete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Answer: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "answer"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(items []Item, width, height int) Model {
	l := list.New(toListItems(items), list.NewDefaultDelegate(), width, height)
	l.Title = "Queue"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Answer, keys.Complete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

func toListItems(items []Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func (m *Model) SetItems(items []Item) {
	m.list.SetItems(toListItems(items))
}

func (m Model) Items() []Item {
	items := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		items = append(items, it.(Item))
	}
	return items
}

func (m Model) Selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Answer):
			if i, ok := m.Selected(); ok {
				return m, func() tea.Msg { return AnswerItemMsg{Item: i} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			if i, ok := m.Selected(); ok && !i.Entry.Completed {
				return m, func() tea.Msg { return CompleteItemMsg{Item: i} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing queued for today.\n  Press 'g' to fill the queue."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
