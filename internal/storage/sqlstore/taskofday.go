package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

var taskOfTheDayColumns = []string{"id", "date", "task_id", "task_type", "selected_at", "completed_at"}

func (s *Store) FindTaskOfTheDay(ctx context.Context, dateKey string) (models.TaskOfTheDay, error) {
	query := s.sb.Select(taskOfTheDayColumns...).
		From("task_of_the_day").
		Where(sq.Eq{"date": dateKey}).
		OrderBy("selected_at ASC").
		Limit(1)

	var (
		record models.TaskOfTheDay
		found  bool
	)
	err := s.query(ctx, query, func(rows *sql.Rows) error {
		r, err := scanTaskOfTheDay(rows)
		if err != nil {
			return err
		}
		record, found = r, true
		return nil
	})
	if err != nil {
		return models.TaskOfTheDay{}, fmt.Errorf("find task of the day %s: %w", dateKey, err)
	}
	if !found {
		return models.TaskOfTheDay{}, storage.NotFound("task of the day", dateKey)
	}
	return record, nil
}

func (s *Store) ListTasksOfTheDay(ctx context.Context) ([]models.TaskOfTheDay, error) {
	query := s.sb.Select(taskOfTheDayColumns...).
		From("task_of_the_day").
		OrderBy("date ASC", "selected_at ASC")

	records := []models.TaskOfTheDay{}
	err := s.query(ctx, query, func(rows *sql.Rows) error {
		r, err := scanTaskOfTheDay(rows)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks of the day: %w", err)
	}
	return records, nil
}

func (s *Store) AddTaskOfTheDay(ctx context.Context, r models.TaskOfTheDay) (string, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	insert := s.sb.Insert("task_of_the_day").
		Columns(taskOfTheDayColumns...).
		Values(r.ID, r.Date, r.TaskID, string(r.TaskType), formatTime(r.SelectedAt), formatTimePtr(r.CompletedAt))
	if _, err := s.exec(ctx, insert); err != nil {
		return "", fmt.Errorf("add task of the day %s: %w", r.Date, err)
	}
	return r.ID, nil
}

func (s *Store) SetTaskOfTheDayCompleted(ctx context.Context, id string, completedAt time.Time) error {
	res, err := s.exec(ctx, s.sb.Update("task_of_the_day").
		Set("completed_at", formatTime(completedAt)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("complete task of the day %s: %w", id, err)
	}
	return requireAffected(res, "task of the day", id)
}

func (s *Store) DeleteTaskOfTheDay(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.sb.Delete("task_of_the_day").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete task of the day %s: %w", id, err)
	}
	return requireAffected(res, "task of the day", id)
}

func scanTaskOfTheDay(row rowScanner) (models.TaskOfTheDay, error) {
	var (
		r           models.TaskOfTheDay
		taskType    string
		selectedAt  string
		completedAt sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Date, &r.TaskID, &taskType, &selectedAt, &completedAt); err != nil {
		return models.TaskOfTheDay{}, err
	}
	r.TaskType = models.Kind(taskType)

	var err error
	if r.SelectedAt, err = parseTime(selectedAt); err != nil {
		return models.TaskOfTheDay{}, err
	}
	if r.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return models.TaskOfTheDay{}, err
	}
	return r, nil
}
