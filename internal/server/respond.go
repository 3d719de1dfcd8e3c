package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/internal/quiz"
	"github.com/example/patterneng/internal/review"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidLearner = errors.New("invalid learner id")
	errInvalidID      = errors.New("invalid id")
	learnerIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownDay),
		errors.Is(err, catalog.ErrUnknownPattern),
		errors.Is(err, catalog.ErrUnknownItem),
		errors.Is(err, quiz.ErrSessionNotFound),
		errors.Is(err, database.ErrReviewItemNotFound),
		errors.Is(err, database.ErrLearnerNotFound),
		errors.Is(err, review.ErrEmptyDeck):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidItemID),
		errors.Is(err, quiz.ErrInvalidType),
		errors.Is(err, review.ErrInvalidSource),
		errors.Is(err, review.ErrInvalidItem),
		errors.Is(err, review.ErrInvalidAction),
		errors.Is(err, errInvalidLearner),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrDayLocked):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrFinished),
		errors.Is(err, quiz.ErrNotFinished),
		errors.Is(err, quiz.ErrNoQuestions):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail maps a service error to a JSON error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSONError(w, status, "Internal server error")
		return
	}
	writeJSONError(w, status, err.Error())
}

type learnerHandler func(w http.ResponseWriter, r *http.Request, learnerID string)

func (s *Server) withLearner(h learnerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("learner")
		if !learnerIDPattern.MatchString(id) {
			s.fail(w, r, errInvalidLearner)
			return
		}
		h(w, r, id)
	}
}
