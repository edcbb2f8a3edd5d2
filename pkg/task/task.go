package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateID is returned by Save when a task with the same ID is already stored.
	ErrDuplicateID = errors.New("duplicate task id")
	// ErrCorrupt is returned when the persisted task collection cannot be decoded.
	ErrCorrupt = errors.New("corrupt task data")
)

// Priority is the urgency level of a task.
type Priority string

const (
	Low    Priority = "LOW"
	Medium Priority = "MEDIUM"
	High   Priority = "HIGH"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{Low, Medium, High}

// ParsePriority accepts a priority name in any letter case ("high", "High", "HIGH").
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q, must be one of: low, medium, high", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case Low, Medium, High:
		return true
	}
	return false
}

// Label returns the priority in title case, as shown in lists and forms.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	s := strings.ToLower(string(p))
	return strings.ToUpper(s[:1]) + s[1:]
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local date.
func Today() Date {
	return DateOf(time.Now())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is one to-do item. It is a value: edits produce a new Task which is
// written back with Store.Update.
type Task struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Priority    Priority `json:"priority" yaml:"priority" toml:"priority"`
	DueDate     *Date    `json:"dueDate" yaml:"dueDate" toml:"dueDate,omitempty"`
	Completed   bool     `json:"completed" yaml:"completed" toml:"completed"`
}

// New returns an open task with a fresh random ID.
func New(title, description string, priority Priority, due *Date) Task {
	return Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     cloneDate(due),
	}
}

// WithCompleted returns a copy of t with the completion flag set to done.
func (t Task) WithCompleted(done bool) Task {
	t.DueDate = cloneDate(t.DueDate)
	t.Completed = done
	return t
}

// Toggled returns a copy of t with the completion flag flipped.
func (t Task) Toggled() Task {
	return t.WithCompleted(!t.Completed)
}

// Overdue reports whether t is still open and its due date is before today.
func (t Task) Overdue(today Date) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(today)
}

// DueLabel is the human-readable due date line shown under a task.
func (t Task) DueLabel() string {
	if t.DueDate == nil {
		return "No due date"
	}
	return "Due: " + t.DueDate.String()
}

// Equal reports whether a and b carry the same field values.
func Equal(a, b Task) bool {
	if a.ID != b.ID || a.Title != b.Title || a.Description != b.Description ||
		a.Priority != b.Priority || a.Completed != b.Completed {
		return false
	}
	if a.DueDate == nil || b.DueDate == nil {
		return a.DueDate == nil && b.DueDate == nil
	}
	return *a.DueDate == *b.DueDate
}

// ValidateInput checks what a frontend must enforce before handing a task to
// the Service: a non-blank title and a known priority. Stores never call it.
func ValidateInput(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("title is required")
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	return nil
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Store is the contract for task persistence.
type Store interface {
	// Save appends t to the collection. It fails with ErrDuplicateID when
	// t.ID is already present.
	Save(ctx context.Context, t Task) error
	// Update replaces the first task whose ID matches t.ID. No match is a no-op.
	Update(ctx context.Context, t Task) error
	// Delete removes every task with the given ID. No match is a no-op.
	Delete(ctx context.Context, id string) error
	// FindByID returns the first task with the given ID and whether it was found.
	FindByID(ctx context.Context, id string) (Task, bool, error)
	// FindAll returns an independent copy of the collection in stored order.
	FindAll(ctx context.Context) ([]Task, error)
}
