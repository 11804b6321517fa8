package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

var actionColumns = []string{
	"id", "title", "interval_days", "is_finishable", "is_completed", "archived",
	"high_priority", "last_completed", "completed_at", "created_at",
}

func (s *Store) AddAction(ctx context.Context, a models.Action) (string, error) {
	if a.ID == "" {
		a.ID = storage.NewID()
	}
	insert := s.sb.Insert("actions").
		Columns(actionColumns...).
		Values(a.ID, a.Title, a.IntervalDays, a.IsFinishable, a.IsCompleted, a.Archived,
			a.HighPriority, formatTimePtr(a.LastCompleted), formatTimePtr(a.CompletedAt), formatTime(a.CreatedAt))
	if _, err := s.exec(ctx, insert); err != nil {
		return "", fmt.Errorf("add action: %w", err)
	}
	return a.ID, nil
}

func (s *Store) GetAction(ctx context.Context, id string) (models.Action, error) {
	query, args, err := s.sb.Select(actionColumns...).From("actions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Action{}, err
	}
	q, release, err := s.conn(ctx)
	if err != nil {
		return models.Action{}, err
	}
	defer release()

	a, err := scanAction(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Action{}, mapError(err, "action", id)
	}
	return a, nil
}

func (s *Store) GetAllActions(ctx context.Context) ([]models.Action, error) {
	actions := []models.Action{}
	err := s.query(ctx, s.sb.Select(actionColumns...).From("actions").OrderBy("created_at DESC"), func(rows *sql.Rows) error {
		a, err := scanAction(rows)
		if err != nil {
			return err
		}
		actions = append(actions, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

func (s *Store) UpdateAction(ctx context.Context, a models.Action) error {
	res, err := s.exec(ctx, s.sb.Update("actions").
		Set("title", a.Title).
		Set("interval_days", a.IntervalDays).
		Set("is_finishable", a.IsFinishable).
		Set("is_completed", a.IsCompleted).
		Set("archived", a.Archived).
		Set("high_priority", a.HighPriority).
		Set("last_completed", formatTimePtr(a.LastCompleted)).
		Set("completed_at", formatTimePtr(a.CompletedAt)).
		Where(sq.Eq{"id": a.ID}))
	if err != nil {
		return fmt.Errorf("update action %s: %w", a.ID, err)
	}
	return requireAffected(res, "action", a.ID)
}

func (s *Store) DeleteAction(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.sb.Delete("actions").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete action %s: %w", id, err)
	}
	return requireAffected(res, "action", id)
}

func scanAction(row rowScanner) (models.Action, error) {
	var (
		a             models.Action
		lastCompleted sql.NullString
		completedAt   sql.NullString
		createdAt     string
	)
	if err := row.Scan(&a.ID, &a.Title, &a.IntervalDays, &a.IsFinishable, &a.IsCompleted, &a.Archived,
		&a.HighPriority, &lastCompleted, &completedAt, &createdAt); err != nil {
		return models.Action{}, err
	}

	var err error
	if a.LastCompleted, err = parseNullTime(lastCompleted); err != nil {
		return models.Action{}, err
	}
	if a.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return models.Action{}, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Action{}, err
	}
	return a, nil
}
