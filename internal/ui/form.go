package ui

import (
	"strings"

	"todo-desk/pkg/task"
)

// TaskForm is the text state of the add/edit form.
type TaskForm struct {
	Title       string
	Description string
	Priority    string // LOW, MEDIUM or HIGH; empty means MEDIUM
	Due         string // YYYY-MM-DD or empty
	Completed   bool
}

// FormFor fills a form from an existing task.
func FormFor(t task.Task) TaskForm {
	f := TaskForm{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
	}
	if t.DueDate != nil {
		f.Due = t.DueDate.String()
	}
	return f
}

// Build validates the form and returns the task it describes. When base has
// an ID the result keeps it (an edit); otherwise a new task is created.
func (f TaskForm) Build(base task.Task) (task.Task, error) {
	p := task.Medium
	if strings.TrimSpace(f.Priority) != "" {
		parsed, err := task.ParsePriority(f.Priority)
		if err != nil {
			return task.Task{}, err
		}
		p = parsed
	}

	var due *task.Date
	if s := strings.TrimSpace(f.Due); s != "" {
		d, err := task.ParseDate(s)
		if err != nil {
			return task.Task{}, err
		}
		due = &d
	}

	var t task.Task
	if base.ID != "" {
		t = base
		t.Title = strings.TrimSpace(f.Title)
		t.Description = f.Description
		t.Priority = p
		t.DueDate = due
	} else {
		t = task.New(strings.TrimSpace(f.Title), f.Description, p, due)
	}
	t.Completed = f.Completed

	if err := task.ValidateInput(t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}
