package api

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.tasks.GetAllTasks(ctx)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	eventCount := 0
	if s.activity != nil {
		eventCount, _ = s.activity.Count(ctx)
	}
	p := summarize(tasks)
	writeJSON(w, 200, map[string]any{
		"tasks":     p.Total,
		"completed": p.Completed,
		"open":      p.Total - p.Completed,
		"percent":   p.Percent,
		"events":    eventCount,
	})
}
