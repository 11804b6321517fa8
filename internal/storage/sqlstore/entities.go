package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

var entityColumns = []string{
	"id", "kind", "title", "created_at", "last_shown_at", "answers",
	"interval_days", "is_done", "start_at_date", "start_in_days",
}

func (s *Store) ListEntities(ctx context.Context, kind models.Kind) ([]models.Entity, error) {
	query := s.sb.Select(entityColumns...).
		From("entities").
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("created_at DESC")

	entities := []models.Entity{}
	err := s.query(ctx, query, func(rows *sql.Rows) error {
		e, err := scanEntity(rows)
		if err != nil {
			return err
		}
		entities = append(entities, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s entities: %w", kind, err)
	}
	return entities, nil
}

func (s *Store) GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	query, args, err := s.sb.Select(entityColumns...).
		From("entities").
		Where(sq.Eq{"id": id, "kind": string(kind)}).
		ToSql()
	if err != nil {
		return models.Entity{}, err
	}

	q, release, err := s.conn(ctx)
	if err != nil {
		return models.Entity{}, err
	}
	defer release()

	e, err := scanEntity(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Entity{}, mapError(err, string(kind), id)
	}
	return e, nil
}

func (s *Store) CreateEntity(ctx context.Context, e models.Entity) (string, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	answers, err := encodeAnswers(e.Answers)
	if err != nil {
		return "", err
	}
	interval, isDone, startAt, startIn := variantValues(e)

	insert := s.sb.Insert("entities").
		Columns(entityColumns...).
		Values(e.ID, string(e.Kind), e.Title, formatTime(e.CreatedAt), formatTimePtr(e.LastShownAt), answers,
			interval, isDone, startAt, startIn)
	if _, err := s.exec(ctx, insert); err != nil {
		return "", fmt.Errorf("create %s: %w", e.Kind, err)
	}
	return e.ID, nil
}

func (s *Store) UpdateEntity(ctx context.Context, kind models.Kind, id string, patch models.EntityPatch) error {
	set := map[string]any{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.LastShownAt != nil {
		set["last_shown_at"] = formatTime(*patch.LastShownAt)
	}
	if patch.Answers != nil {
		answers, err := encodeAnswers(*patch.Answers)
		if err != nil {
			return err
		}
		set["answers"] = answers
	}
	// variant columns stay NULL for kinds that do not own them
	if patch.IntervalDays != nil && kind.HasInterval() {
		set["interval_days"] = *patch.IntervalDays
	}
	if patch.IsDone != nil && kind.IsOneTime() {
		set["is_done"] = *patch.IsDone
	}
	if patch.StartAtDate != nil && kind.HasStartAtDate() {
		set["start_at_date"] = *patch.StartAtDate
	}
	if patch.StartInDays != nil && kind.HasStartInDays() {
		set["start_in_days"] = *patch.StartInDays
	}
	if len(set) == 0 {
		_, err := s.GetEntity(ctx, kind, id)
		return err
	}

	update := s.sb.Update("entities").SetMap(set).Where(sq.Eq{"id": id, "kind": string(kind)})
	res, err := s.exec(ctx, update)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return requireAffected(res, string(kind), id)
}

func (s *Store) DeleteEntity(ctx context.Context, kind models.Kind, id string) error {
	res, err := s.exec(ctx, s.sb.Delete("entities").Where(sq.Eq{"id": id, "kind": string(kind)}))
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return requireAffected(res, string(kind), id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (models.Entity, error) {
	var (
		e           models.Entity
		kind        string
		createdAt   string
		lastShownAt sql.NullString
		answers     string
		interval    sql.NullInt64
		isDone      sql.NullBool
		startAt     sql.NullString
		startIn     sql.NullInt64
	)
	if err := row.Scan(&e.ID, &kind, &e.Title, &createdAt, &lastShownAt, &answers,
		&interval, &isDone, &startAt, &startIn); err != nil {
		return models.Entity{}, err
	}

	e.Kind = models.Kind(kind)
	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Entity{}, err
	}
	if e.LastShownAt, err = parseNullTime(lastShownAt); err != nil {
		return models.Entity{}, err
	}
	if err := json.Unmarshal([]byte(answers), &e.Answers); err != nil {
		return models.Entity{}, fmt.Errorf("decode answers of %s: %w", e.ID, err)
	}
	if e.Answers == nil {
		e.Answers = []models.Answer{}
	}
	e.IntervalDays = int(interval.Int64)
	e.IsDone = isDone.Bool
	e.StartAtDate = startAt.String
	e.StartInDays = int(startIn.Int64)
	return e, nil
}

func encodeAnswers(answers []models.Answer) (string, error) {
	if answers == nil {
		answers = []models.Answer{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(data), nil
}

// variantValues returns the variant columns, NULL where the kind does not
// own the field.
func variantValues(e models.Entity) (interval, isDone, startAt, startIn any) {
	if e.Kind.HasInterval() {
		interval = e.IntervalDays
	}
	if e.Kind.IsOneTime() {
		isDone = e.IsDone
	}
	if e.Kind.HasStartAtDate() {
		startAt = e.StartAtDate
	}
	if e.Kind.HasStartInDays() {
		startIn = e.StartInDays
	}
	return interval, isDone, startAt, startIn
}
