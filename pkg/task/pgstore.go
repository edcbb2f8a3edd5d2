package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed task store. Rows keep their insertion order
// through the position column.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			position    BIGSERIAL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority    TEXT NOT NULL DEFAULT 'MEDIUM',
			due_date    DATE,
			completed   BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position)`)
	return err
}

// Save inserts a new task.
func (s *PgStore) Save(ctx context.Context, t Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, priority, due_date, completed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Title, t.Description, string(t.Priority), dueToTime(t.DueDate), t.Completed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("save task %s: %w", t.ID, ErrDuplicateID)
		}
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// Update replaces every field of the task with a matching ID.
func (s *PgStore) Update(ctx context.Context, t Task) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, priority = $4, due_date = $5, completed = $6
		WHERE id = $1`,
		t.ID, t.Title, t.Description, string(t.Priority), dueToTime(t.DueDate), t.Completed)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes the task with the given ID.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// FindByID retrieves a single task by ID.
func (s *PgStore) FindByID(ctx context.Context, id string) (Task, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, description, priority, due_date, completed
		FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, true, nil
}

// FindAll returns every task in insertion order.
func (s *PgStore) FindAll(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, priority, due_date, completed
		FROM tasks ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var priority string
	var due *time.Time
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &due, &t.Completed); err != nil {
		return Task{}, err
	}
	t.Priority = Priority(priority)
	if due != nil {
		d := DateOf(due.UTC())
		t.DueDate = &d
	}
	return t, nil
}

func dueToTime(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return &t
}
