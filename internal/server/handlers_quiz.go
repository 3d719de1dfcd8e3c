package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/patterneng/internal/quiz"
)

type startQuizRequest struct {
	Day   int    `json:"day"`
	Count int    `json:"count"`
	Type  string `json:"type"`
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request, learnerID string) {
	var req startQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	qtype, err := quiz.ParseType(req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.svc.Quiz.Start(r.Context(), learnerID, req.Day, req.Count, qtype)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleQuizCurrent(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Quiz.Current(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	res, err := s.svc.Quiz.Answer(r.Context(), r.PathValue("session"), req.Answer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type nextResponse struct {
	Finished bool               `json:"finished"`
	Question *quiz.QuestionView `json:"question,omitempty"`
	Result   *quiz.Result       `json:"result,omitempty"`
}

func (s *Server) handleQuizNext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session")
	finished, err := s.svc.Quiz.Next(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := nextResponse{Finished: finished}
	if finished {
		resp.Result, err = s.svc.Quiz.Result(id)
	} else {
		resp.Question, err = s.svc.Quiz.Current(id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuizResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Quiz.Result(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleQuizHistory lists finished quizzes with stats over the last ?days=N
// days (default 7).
func (s *Server) handleQuizHistory(w http.ResponseWriter, r *http.Request, learnerID string) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, r, errInvalidID)
			return
		}
		days = n
	}

	history, err := s.svc.Quiz.History(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	stats, err := s.svc.Quiz.Stats(r.Context(), learnerID, now.AddDate(0, 0, -days), now.Add(time.Second))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": history,
		"stats":   stats,
	})
}
