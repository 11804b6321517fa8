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

var queueColumns = []string{"id", "category", "item_id", "scheduled_for", "completed", "response", "completed_at", "created_at"}

func scheduledBetween(from, to time.Time) sq.And {
	return sq.And{
		sq.GtOrEq{"scheduled_for": formatTime(from)},
		sq.LtOrEq{"scheduled_for": formatTime(to)},
	}
}

func (s *Store) ListQueueItems(ctx context.Context, from, to time.Time) ([]models.QueueItem, error) {
	query := s.sb.Select(queueColumns...).
		From("queue_items").
		Where(scheduledBetween(from, to)).
		OrderBy("scheduled_for ASC", "created_at ASC")

	items, err := s.listQueue(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

func (s *Store) GetAllQueueItems(ctx context.Context) ([]models.QueueItem, error) {
	items, err := s.listQueue(ctx, s.sb.Select(queueColumns...).From("queue_items").OrderBy("scheduled_for ASC", "created_at ASC"))
	if err != nil {
		return nil, fmt.Errorf("list all queue items: %w", err)
	}
	return items, nil
}

func (s *Store) listQueue(ctx context.Context, query sq.SelectBuilder) ([]models.QueueItem, error) {
	items := []models.QueueItem{}
	err := s.query(ctx, query, func(rows *sql.Rows) error {
		item, err := scanQueueItem(rows)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func (s *Store) CountQueueItems(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	query := s.sb.Select("count(*)").From("queue_items").Where(scheduledBetween(from, to))
	if err := s.queryRow(ctx, query, &count); err != nil {
		return 0, fmt.Errorf("count queue items: %w", err)
	}
	return count, nil
}

func (s *Store) GetQueueItem(ctx context.Context, id string) (models.QueueItem, error) {
	query, args, err := s.sb.Select(queueColumns...).From("queue_items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.QueueItem{}, err
	}
	q, release, err := s.conn(ctx)
	if err != nil {
		return models.QueueItem{}, err
	}
	defer release()

	item, err := scanQueueItem(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.QueueItem{}, mapError(err, "queue item", id)
	}
	return item, nil
}

func (s *Store) AddQueueItem(ctx context.Context, item models.QueueItem) (string, error) {
	if item.ID == "" {
		item.ID = storage.NewID()
	}
	insert := s.sb.Insert("queue_items").
		Columns(queueColumns...).
		Values(item.ID, item.Category, item.ItemID, formatTime(item.ScheduledFor), item.Completed,
			nullString(item.Response), formatTimePtr(item.CompletedAt), formatTime(item.CreatedAt))
	if _, err := s.exec(ctx, insert); err != nil {
		return "", fmt.Errorf("add queue item: %w", err)
	}
	return item.ID, nil
}

func (s *Store) CompleteQueueItem(ctx context.Context, id string, response string, completedAt time.Time) error {
	res, err := s.exec(ctx, s.sb.Update("queue_items").
		Set("completed", true).
		Set("response", nullString(response)).
		Set("completed_at", formatTime(completedAt)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("complete queue item %s: %w", id, err)
	}
	return requireAffected(res, "queue item", id)
}

func (s *Store) DeletePendingQueueItems(ctx context.Context, category, itemID string) (int, error) {
	res, err := s.exec(ctx, s.sb.Delete("queue_items").Where(sq.Eq{
		"category":  category,
		"item_id":   itemID,
		"completed": false,
	}))
	if err != nil {
		return 0, fmt.Errorf("delete pending queue items for %s %s: %w", category, itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanQueueItem(row rowScanner) (models.QueueItem, error) {
	var (
		item         models.QueueItem
		scheduledFor string
		response     sql.NullString
		completedAt  sql.NullString
		createdAt    string
	)
	if err := row.Scan(&item.ID, &item.Category, &item.ItemID, &scheduledFor, &item.Completed,
		&response, &completedAt, &createdAt); err != nil {
		return models.QueueItem{}, err
	}
	item.Response = response.String

	var err error
	if item.ScheduledFor, err = parseTime(scheduledFor); err != nil {
		return models.QueueItem{}, err
	}
	if item.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return models.QueueItem{}, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.QueueItem{}, err
	}
	return item, nil
}
