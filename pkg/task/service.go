package task

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"todo-desk/pkg/activity"
)

// Service is the business-level façade over a Store. Frontends talk to the
// Service only; it is the single place for rules such as completion toggling
// and the derived filter and progress queries.
type Service struct {
	store    Store
	activity activity.Recorder
	source   string
}

// Option configures a Service.
type Option func(*Service)

// WithActivity records every successful mutation in r.
func WithActivity(r activity.Recorder) Option {
	return func(s *Service) {
		s.activity = r
	}
}

// WithSource names the frontend in recorded activity ("desk", "cli", "api").
func WithSource(source string) Option {
	return func(s *Service) {
		s.source = source
	}
}

// NewService creates a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, source: "app"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask persists a new task.
func (s *Service) AddTask(ctx context.Context, t Task) error {
	if err := s.store.Save(ctx, t); err != nil {
		return err
	}
	s.record(ctx, activity.TaskCreated, t)
	return nil
}

// GetAllTasks returns every task in stored order.
func (s *Service) GetAllTasks(ctx context.Context) ([]Task, error) {
	return s.store.FindAll(ctx)
}

// GetTaskByID returns the task with the given ID, if any.
func (s *Service) GetTaskByID(ctx context.Context, id string) (Task, bool, error) {
	return s.store.FindByID(ctx, id)
}

// UpdateTask replaces a stored task with t. Unknown IDs are ignored and
// record nothing.
func (s *Service) UpdateTask(ctx context.Context, t Task) error {
	if _, ok, err := s.store.FindByID(ctx, t.ID); err != nil || !ok {
		return err
	}
	if err := s.store.Update(ctx, t); err != nil {
		return err
	}
	s.record(ctx, activity.TaskUpdated, t)
	return nil
}

// DeleteTask removes the task with the given ID. Unknown IDs are ignored and
// record nothing.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if _, ok, err := s.store.FindByID(ctx, id); err != nil || !ok {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, activity.TaskDeleted, Task{ID: id})
	return nil
}

// ToggleTaskCompletion flips the completion flag of the task with the given
// ID and returns the updated task. A missing task is a no-op and reports false.
func (s *Service) ToggleTaskCompletion(ctx context.Context, id string) (Task, bool, error) {
	t, ok, err := s.store.FindByID(ctx, id)
	if err != nil || !ok {
		return Task{}, false, err
	}
	t = t.Toggled()
	if err := s.store.Update(ctx, t); err != nil {
		return Task{}, false, err
	}
	s.record(ctx, activity.TaskToggled, t)
	return t, true, nil
}

// FilterByPriority returns the tasks whose priority equals p, in stored
// order. Unlike Filter, an empty p matches only tasks with no priority.
func (s *Service) FilterByPriority(ctx context.Context, p Priority) ([]Task, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Priority == p {
			out = append(out, t)
		}
	}
	return out, nil
}

// CompletionProgress returns the percentage (0-100) of completed tasks.
// An empty collection is 0% done.
func (s *Service) CompletionProgress(ctx context.Context) (float64, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return Progress(tasks), nil
}

// Filter narrows a task list. Zero fields match everything.
type Filter struct {
	// Query matches a case-insensitive substring of the title.
	Query string
	// Priority matches exactly when set.
	Priority Priority
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(t.Title), strings.ToLower(q))
	}
	return true
}

// Search returns the tasks matching f in stored order.
func (s *Service) Search(ctx context.Context, f Filter) ([]Task, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(tasks, f), nil
}

// Apply returns the tasks matching f, preserving order.
func Apply(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Progress returns the percentage (0-100) of completed tasks in tasks.
func Progress(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return float64(done) * 100 / float64(len(tasks))
}

// record appends an activity event. Failures are logged only: the store
// write has already happened and remains authoritative.
func (s *Service) record(ctx context.Context, eventType string, t Task) {
	if s.activity == nil {
		return
	}
	content := map[string]any{"task_id": t.ID}
	if eventType != activity.TaskDeleted {
		content["title"] = t.Title
		content["priority"] = string(t.Priority)
		content["completed"] = t.Completed
	}
	if _, err := s.activity.Append(ctx, eventType, s.source, content); err != nil {
		log.Warn("record activity", "type", eventType, "task", t.ID, "err", err)
	}
}
