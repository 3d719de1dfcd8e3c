package server

import (
	"net/http"
	"strconv"

	"github.com/example/patterneng/internal/review"
	"github.com/example/patterneng/pkg/models"
)

func (s *Server) handleListWrong(w http.ResponseWriter, r *http.Request, learnerID string) {
	items, err := s.svc.Review.WrongAnswers(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleDeleteWrong(w http.ResponseWriter, r *http.Request, learnerID string) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Review.DeleteWrong(r.Context(), learnerID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request, learnerID string) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	on, err := s.svc.Review.ToggleBookmark(r.Context(), learnerID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": on})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request, learnerID string) {
	items, err := s.svc.Review.Bookmarks(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request, learnerID string) {
	var item models.ReviewItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	saved, created, err := s.svc.Review.AddBookmark(r.Context(), learnerID, item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request, learnerID string) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Review.DeleteBookmark(r.Context(), learnerID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

func (s *Server) handleFlashcard(w http.ResponseWriter, r *http.Request, learnerID string) {
	q := r.URL.Query()
	source, err := review.ParseSource(q.Get("source"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	index := 0
	if v := q.Get("index"); v != "" {
		if index, err = strconv.Atoi(v); err != nil {
			s.fail(w, r, errInvalidID)
			return
		}
	}

	deck, err := s.svc.Review.Deck(r.Context(), learnerID, source, index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if q.Get("flipped") == "true" {
		deck.Flip()
	}
	card, err := deck.Apply(q.Get("action"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
