package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"dayboard/domain"
)

// Notifier publishes row-level change events to the owner's live feed.
type Notifier interface {
	Publish(ctx context.Context, ownerID string, ev domain.ChangeEvent) error
}

// Store provides owner-scoped task persistence over Postgres. Every query
// carries the owner id; the store never returns or mutates another owner's
// rows.
type Store struct {
	pool   *pgxpool.Pool
	feed   Notifier
	logger *log.Logger
}

// New creates a Store backed by the given pool. feed may be nil, in which
// case mutations are not announced on the live feed.
func New(pool *pgxpool.Pool, feed Notifier, logger *log.Logger) *Store {
	if pool == nil {
		panic("storage.New: pool is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{pool: pool, feed: feed, logger: logger}
}

const taskColumns = "id, owner_id, title, description, priority, status, due_date, created_at"

// FetchTasks retrieves all tasks for the owner, newest first.
func (s *Store) FetchTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC",
		ownerID)
}

// FetchTasksDueOn retrieves the owner's tasks due on the given calendar date,
// newest first.
func (s *Store) FetchTasksDueOn(ctx context.Context, ownerID string, due domain.Date) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE owner_id = $1 AND due_date = $2 ORDER BY created_at DESC",
		ownerID, due.Time(time.UTC))
}

func (s *Store) queryTasks(ctx context.Context, sql string, args ...any) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertTask creates a task for the owner and returns the stored row. The id
// and creation time are assigned here, never by the caller.
func (s *Store) InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error) {
	t := domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		DueDate:     in.DueDate,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO tasks (id, owner_id, title, description, priority, status, due_date, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		t.ID, t.OwnerID, t.Title, nullIfEmpty(t.Description), nullIfEmpty(string(t.Priority)), string(t.Status), dueArg(t.DueDate), t.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	s.notify(ctx, ownerID, domain.ChangeEvent{Kind: domain.ChangeInserted, Task: t})
	return t, nil
}

// UpdateTask replaces the user-editable fields of the owner's task and
// returns the post-image.
func (s *Store) UpdateTask(ctx context.Context, ownerID, id string, in domain.TaskInput) (domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE tasks SET title = $1, description = $2, priority = $3, status = $4, due_date = $5 WHERE id = $6 AND owner_id = $7 RETURNING "+taskColumns,
		in.Title, nullIfEmpty(in.Description), nullIfEmpty(string(in.Priority)), string(in.Status), dueArg(in.DueDate), id, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	s.notify(ctx, ownerID, domain.ChangeEvent{Kind: domain.ChangeUpdated, Task: t})
	return t, nil
}

// UpdateTaskStatus moves the owner's task to another board column and returns
// the post-image.
func (s *Store) UpdateTaskStatus(ctx context.Context, ownerID, id string, status domain.TaskStatus) (domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE tasks SET status = $1 WHERE id = $2 AND owner_id = $3 RETURNING "+taskColumns,
		string(status), id, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	s.notify(ctx, ownerID, domain.ChangeEvent{Kind: domain.ChangeUpdated, Task: t})
	return t, nil
}

// DeleteTask removes the owner's task and returns the pre-image.
func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		"DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING "+taskColumns,
		id, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	s.notify(ctx, ownerID, domain.ChangeEvent{Kind: domain.ChangeDeleted, Task: t})
	return t, nil
}

// notify announces a confirmed mutation on the owner's feed. The feed is an
// enhancement over fetch-based reads, so publish failures are logged and
// swallowed rather than failing the mutation.
func (s *Store) notify(ctx context.Context, ownerID string, ev domain.ChangeEvent) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, ownerID, ev); err != nil {
		s.logger.WithFields(log.Fields{
			"owner": ownerID,
			"kind":  ev.Kind,
			"task":  ev.Task.ID,
		}).Errorf("feed publish failed: %v", err)
	}
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t           domain.Task
		description *string
		priority    *string
		status      *string
		due         *time.Time
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &description, &priority, &status, &due, &t.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	if description != nil {
		t.Description = *description
	}
	if priority != nil {
		t.Priority = domain.TaskPriority(*priority)
	}
	if status != nil {
		t.Status = domain.TaskStatus(*status)
	}
	if due != nil {
		d := domain.DateOf(due.UTC())
		t.DueDate = &d
	}
	return t, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func dueArg(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time(time.UTC)
	return &t
}
