// Package tui is the interactive review session over today's queue.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/scheduler"
	"github.com/julianstephens/nudge/internal/taskofday"
	"github.com/julianstephens/nudge/internal/tui/components/pane"
	"github.com/julianstephens/nudge/internal/tui/components/queuelist"
	"github.com/julianstephens/nudge/internal/utils"
)

type SessionState int

// The first three states are tabs, in display order.
const (
	StateQueue SessionState = iota
	StateToday
	StateDue
	StateAnswering
)

const tabCount = 3

type Model struct {
	ctx       context.Context
	entities  *entities.Service
	scheduler *scheduler.Scheduler
	selector  *taskofday.Selector

	state     SessionState
	keys      KeyMap
	help      help.Model
	queueList queuelist.Model
	todayPane pane.Model
	duePane   pane.Model

	form      *huh.Form
	answer    *models.Answer
	answering *answerTarget

	today    taskofday.Result
	status   string
	quitting bool
	width    int
	height   int
}

// answerTarget is the queue entry and entity an open form answers.
type answerTarget struct {
	item   queuelist.Item
	entity models.Entity
}

func NewModel(ctx context.Context, svc *entities.Service, sched *scheduler.Scheduler, sel *taskofday.Selector) Model {
	m := Model{
		ctx:       ctx,
		entities:  svc,
		scheduler: sched,
		selector:  sel,
		state:     StateQueue,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		queueList: queuelist.New(nil, 0, 0),
		todayPane: pane.New("No task of the day. Add a task to get one.", 0, 0),
		duePane:   pane.New("Nothing is due.", 0, 0),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// refresh reloads every tab from the store. The first failure is shown in
// the status line.
func (m *Model) refresh() {
	if err := m.loadQueue(); err != nil {
		m.status = "⚠ " + err.Error()
		return
	}
	if err := m.loadToday(); err != nil {
		m.status = "⚠ " + err.Error()
		return
	}
	if err := m.loadDue(); err != nil {
		m.status = "⚠ " + err.Error()
	}
}

func (m *Model) loadQueue() error {
	date, err := m.scheduler.Today(m.ctx)
	if err != nil {
		return err
	}
	entries, err := m.scheduler.ListQueue(m.ctx, date)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	all, err := m.entities.GetAllEntities(m.ctx)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	titles := make(map[string]string, len(all))
	for _, e := range all {
		titles[string(e.Kind)+"/"+e.ID] = e.Title
	}
	actions, err := m.entities.ListActions(m.ctx)
	if err != nil {
		return fmt.Errorf("load actions: %w", err)
	}
	highActions := make(map[string]bool, len(actions))
	for _, a := range actions {
		titles[constants.QueueCategoryAction+"/"+a.ID] = a.Title
		highActions[a.ID] = a.HighPriority
	}

	items := make([]queuelist.Item, len(entries))
	for i, entry := range entries {
		items[i] = queuelist.Item{
			Entry: entry,
			Label: titles[entry.Category+"/"+entry.ItemID],
			High:  entry.Category == string(models.KindIntervalPromptHighPriority) || highActions[entry.ItemID],
		}
	}
	m.queueList.SetItems(items)
	return nil
}

func (m *Model) loadToday() error {
	result, err := m.selector.GetCurrent(m.ctx)
	if err != nil {
		return fmt.Errorf("load task of the day: %w", err)
	}
	m.today = result
	if result.Task == nil {
		m.todayPane.SetLines(nil)
		return nil
	}

	status := pendingStyle.Render("pending, press 'd' when done")
	if result.IsCompleted {
		status = doneStyle.Render("completed")
	}
	m.todayPane.SetLines([]string{
		titleStyle.Render(result.Task.Title),
		dimStyle.Render(string(result.Task.Kind)),
		"",
		status,
	})
	return nil
}

func (m *Model) loadDue() error {
	now, err := m.entities.Now(m.ctx)
	if err != nil {
		return err
	}
	due, err := m.entities.DueCandidatesAt(m.ctx, now)
	if err != nil {
		return fmt.Errorf("load due items: %w", err)
	}
	actions, err := m.entities.DueActions(m.ctx, now)
	if err != nil {
		return fmt.Errorf("load due actions: %w", err)
	}

	var lines []string
	section := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(names))))
		for _, n := range names {
			lines = append(lines, "  "+n)
		}
	}
	section("High priority prompts", titlesOf(due.PromptsHighPriority))
	section("Prompts", titlesOf(due.PromptsText))
	section("Yes/no prompts", titlesOf(due.YesNoPrompts))
	section("Tasks", titlesOf(due.DailyTasks))
	actionNames := make([]string, len(actions))
	for i, a := range actions {
		actionNames[i] = a.Title
	}
	section("Actions", actionNames)

	lines = append(lines, "", dimStyle.Render("as of "+now.Format("15:04")+" on "+utils.FormatDateKey(now)))
	if due.Len()+len(actions) == 0 {
		lines = nil
	}
	m.duePane.SetLines(lines)
	return nil
}

func titlesOf(list []models.Entity) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Title
	}
	return out
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateQueue:
		keys = append(keys, m.keys.Answer, m.keys.Complete, m.keys.Generate)
	case StateToday:
		keys = append(keys, m.keys.Done)
	}
	return append(keys, m.keys.Refresh)
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right}

	var actions []key.Binding
	switch m.state {
	case StateQueue:
		actions = []key.Binding{m.keys.Answer, m.keys.Complete, m.keys.Generate}
	case StateToday:
		actions = []key.Binding{m.keys.Done}
	}
	return [][]key.Binding{global, navigation, actions}
}
