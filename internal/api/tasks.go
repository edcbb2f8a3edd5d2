package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"todo-desk/pkg/task"
)

// taskInput is the request body for create and replace. Priority is parsed
// leniently ("high", "High") and defaults to MEDIUM.
type taskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *task.Date `json:"dueDate"`
	Completed   bool       `json:"completed"`
}

func (in taskInput) toTask(id string) (task.Task, error) {
	p := task.Medium
	if strings.TrimSpace(in.Priority) != "" {
		parsed, err := task.ParsePriority(in.Priority)
		if err != nil {
			return task.Task{}, err
		}
		p = parsed
	}
	t := task.Task{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    p,
		DueDate:     in.DueDate,
		Completed:   in.Completed,
	}
	return t, task.ValidateInput(t)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (taskInput, bool) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return in, false
	}
	return in, true
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	f := task.Filter{Query: r.URL.Query().Get("q")}
	if p := r.URL.Query().Get("priority"); p != "" && !strings.EqualFold(p, "all") {
		parsed, err := task.ParsePriority(p)
		if err != nil {
			writeError(w, 400, err.Error())
			return
		}
		f.Priority = parsed
	}
	tasks, err := s.tasks.Search(r.Context(), f)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, ok, err := s.tasks.GetTaskByID(r.Context(), id)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if !ok {
		writeError(w, 404, "task not found: "+id)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	t, err := in.toTask("")
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	created := task.New(t.Title, t.Description, t.Priority, t.DueDate).WithCompleted(t.Completed)
	if err := s.tasks.AddTask(r.Context(), created); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 201, created)
}

func (s *Server) handleTaskReplace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	t, err := in.toTask(id)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	_, found, err := s.tasks.GetTaskByID(r.Context(), id)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if !found {
		writeError(w, 404, "task not found: "+id)
		return
	}
	if err := s.tasks.UpdateTask(r.Context(), t); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, ok, err := s.tasks.ToggleTaskCompletion(r.Context(), id)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if !ok {
		writeError(w, 404, "task not found: "+id)
		return
	}
	writeJSON(w, 200, t)
}

type progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

func summarize(tasks []task.Task) progress {
	p := progress{Total: len(tasks), Percent: task.Progress(tasks)}
	for _, t := range tasks {
		if t.Completed {
			p.Completed++
		}
	}
	return p
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.GetAllTasks(r.Context())
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, summarize(tasks))
}
