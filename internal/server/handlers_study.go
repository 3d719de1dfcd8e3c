package server

import (
	"net/http"
	"strconv"
)

type daySummary struct {
	Day      int    `json:"day"`
	Title    string `json:"title"`
	Patterns int    `json:"patterns"`
	Total    int    `json:"total"`
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	days := s.svc.Catalog.Days()
	out := make([]daySummary, 0, len(days))
	for _, d := range days {
		out = append(out, daySummary{
			Day:      d.Day,
			Title:    d.Title,
			Patterns: len(d.Patterns),
			Total:    s.svc.Catalog.TotalExamples(d.Day),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": out})
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	day, err := pathInt(r, "day")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.svc.Catalog.Day(day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleLearnerDays(w http.ResponseWriter, r *http.Request, learnerID string) {
	days, err := s.svc.Progress.Days(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func (s *Server) handleDayProgress(w http.ResponseWriter, r *http.Request, learnerID string) {
	day, err := pathInt(r, "day")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dp, err := s.svc.Progress.DayProgress(r.Context(), learnerID, day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, learnerID string) {
	res, err := s.svc.Progress.Toggle(r.Context(), learnerID, r.PathValue("item"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request, learnerID string) {
	items, err := s.svc.Progress.CompletedItems(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

func (s *Server) handleCleared(w http.ResponseWriter, r *http.Request, learnerID string) {
	days, err := s.svc.Progress.ClearedDays(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, errInvalidID
	}
	return n, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return n, nil
}
