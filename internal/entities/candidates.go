package entities

import (
	"context"
	"time"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/recurrence"
)

// DueCandidates groups the entities that are due right now. Order within a
// group carries no meaning.
type DueCandidates struct {
	PromptsText         []models.Entity `json:"prompts_text"`
	PromptsHighPriority []models.Entity `json:"prompts_high_priority"`
	YesNoPrompts        []models.Entity `json:"yes_no_prompts"`
	// DailyTasks is the union of every task kind.
	DailyTasks []models.Entity `json:"daily_tasks"`
}

// All flattens the groups.
func (d DueCandidates) All() []models.Entity {
	all := make([]models.Entity, 0, d.Len())
	all = append(all, d.PromptsHighPriority...)
	all = append(all, d.PromptsText...)
	all = append(all, d.YesNoPrompts...)
	all = append(all, d.DailyTasks...)
	return all
}

func (d DueCandidates) Len() int {
	return len(d.PromptsText) + len(d.PromptsHighPriority) + len(d.YesNoPrompts) + len(d.DailyTasks)
}

// GetAllDueCandidates evaluates every kind's policy at the current time.
func (s *Service) GetAllDueCandidates(ctx context.Context) (DueCandidates, error) {
	now, err := s.Now(ctx)
	if err != nil {
		return DueCandidates{}, err
	}
	return s.DueCandidatesAt(ctx, now)
}

// DueCandidatesAt evaluates every kind's policy at now.
func (s *Service) DueCandidatesAt(ctx context.Context, now time.Time) (DueCandidates, error) {
	groups, err := s.listAll(ctx, models.Kinds)
	if err != nil {
		return DueCandidates{}, err
	}

	c := DueCandidates{
		PromptsText:         []models.Entity{},
		PromptsHighPriority: []models.Entity{},
		YesNoPrompts:        []models.Entity{},
		DailyTasks:          []models.Entity{},
	}
	for i, kind := range models.Kinds {
		due := recurrence.FilterDue(groups[i], now)
		switch {
		case kind == models.KindIntervalPrompt:
			c.PromptsText = append(c.PromptsText, due...)
		case kind == models.KindIntervalPromptHighPriority:
			c.PromptsHighPriority = append(c.PromptsHighPriority, due...)
		case kind == models.KindIntervalYesNoPrompt:
			c.YesNoPrompts = append(c.YesNoPrompts, due...)
		case kind.IsDailyTask():
			c.DailyTasks = append(c.DailyTasks, due...)
		}
	}
	return c, nil
}
