// Package app wires a Service, its Store and its activity log from config.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-desk/internal/config"
	"todo-desk/internal/db"
	"todo-desk/pkg/activity"
	"todo-desk/pkg/task"
)

// App is an opened backend.
type App struct {
	Config   *config.Config
	Store    task.Store
	Activity *activity.Bus
	Tasks    *task.Service

	pool *pgxpool.Pool
}

// Open builds the backend named by cfg.Store.Backend. source names the
// frontend in recorded activity.
func Open(ctx context.Context, cfg *config.Config, source string) (*App, error) {
	a := &App{Config: cfg}

	var events activity.Log
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		a.pool = pool

		store := task.NewPgStore(pool)
		if err := store.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure tasks table: %w", err)
		}
		pglog := activity.NewPgLog(pool)
		if err := pglog.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure activity table: %w", err)
		}
		a.Store, events = store, pglog
		log.Debug("opened postgres backend")

	default:
		store, err := task.NewJSONStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.Store, events = store, activity.NewMemoryLog()
		log.Debug("opened task file", "path", store.Path())
	}

	a.Activity = activity.NewBus(events)
	a.Tasks = task.NewService(a.Store, task.WithActivity(a.Activity), task.WithSource(source))
	return a, nil
}

// FilePath returns the task file path, or "" for the postgres backend.
func (a *App) FilePath() string {
	if s, ok := a.Store.(*task.JSONStore); ok {
		return s.Path()
	}
	return ""
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
