package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/tui/components/queuelist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateAnswering {
		return m.updateAnswering(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		// tabs, status and help lines
		bodyHeight := max(0, msg.Height-v-3)
		m.queueList.SetSize(msg.Width-h, bodyHeight)
		m.todayPane.SetSize(msg.Width-h, bodyHeight)
		m.duePane.SetSize(msg.Width-h, bodyHeight)
		return m, nil

	case queuelist.AnswerItemMsg:
		return m.startAnswer(msg.Item)

	case queuelist.CompleteItemMsg:
		m.completeEntry(msg.Item, "")
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Right):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab), key.Matches(msg, m.keys.Left):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status = ""
			m.refresh()
			return m, nil
		case m.state == StateQueue && key.Matches(msg, m.keys.Generate):
			m.generate()
			return m, nil
		case m.state == StateToday && key.Matches(msg, m.keys.Done):
			m.markTodayDone()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateQueue:
		m.queueList, cmd = m.queueList.Update(msg)
	case StateToday:
		m.todayPane, cmd = m.todayPane.Update(msg)
	case StateDue:
		m.duePane, cmd = m.duePane.Update(msg)
	}
	return m, cmd
}

func (m Model) updateAnswering(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Cancel) {
		m.closeForm("Answer cancelled.")
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitAnswer()
	case huh.StateAborted:
		m.closeForm("Answer cancelled.")
	}
	return m, cmd
}

func (m Model) startAnswer(item queuelist.Item) (tea.Model, tea.Cmd) {
	if item.Entry.Completed {
		m.status = "Already completed."
		return m, nil
	}
	if item.IsAction() {
		if _, err := m.entities.RecordActionInteraction(m.ctx, item.Entry.ItemID); err != nil {
			m.status = "⚠ " + err.Error()
			return m, nil
		}
		m.completeEntry(item, "")
		return m, nil
	}

	e, err := m.entities.GetEntity(m.ctx, models.Kind(item.Entry.Category), item.Entry.ItemID)
	if errors.Is(err, storage.ErrNotFound) {
		m.status = "That item no longer exists, press 'c' to clear it."
		return m, nil
	}
	if err != nil {
		m.status = "⚠ " + err.Error()
		return m, nil
	}

	m.answer = &models.Answer{}
	m.answering = &answerTarget{item: item, entity: e}
	m.form = newAnswerForm(e, m.answer)
	m.state = StateAnswering
	return m, m.form.Init()
}

func (m *Model) submitAnswer() {
	target, answer := m.answering, *m.answer
	if _, err := m.entities.RecordAnswer(m.ctx, target.entity.Kind, target.entity.ID, answer); err != nil {
		m.closeForm("⚠ " + err.Error())
		return
	}
	m.closeForm("")
	m.completeEntry(target.item, responseText(answer))
}

func (m *Model) closeForm(status string) {
	m.form = nil
	m.answer = nil
	m.answering = nil
	m.state = StateQueue
	m.status = status
}

func (m *Model) completeEntry(item queuelist.Item, response string) {
	if _, err := m.scheduler.CompleteQueueItem(m.ctx, item.Entry.ID, response); err != nil {
		m.status = "⚠ " + err.Error()
		return
	}
	m.status = "✓ " + item.Title()
	m.refresh()
}

func (m *Model) generate() {
	added, err := m.scheduler.GenerateForToday(m.ctx)
	if err != nil {
		m.status = "⚠ " + err.Error()
		return
	}
	if len(added) == 0 {
		m.status = "Queue is already full or nothing is due."
	} else {
		m.status = fmt.Sprintf("✓ Added %d item(s)", len(added))
	}
	m.refresh()
}

func (m *Model) markTodayDone() {
	record, err := m.selector.MarkTaskCompleted(m.ctx)
	if err != nil {
		m.status = "⚠ " + err.Error()
		return
	}
	if record == nil {
		m.status = "No task of the day to complete."
		return
	}
	m.status = "✓ Task of the day completed"
	m.refresh()
}
