package server

import (
	"net/http"
)

type telegramRequest struct {
	ChatID    *int64 `json:"chatId"`
	Reminders bool   `json:"reminders"`
}

// handleTelegramSettings links a Telegram chat to the learner, or only
// switches reminders when no chat id is given.
func (s *Server) handleTelegramSettings(w http.ResponseWriter, r *http.Request, learnerID string) {
	var req telegramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var err error
	if req.ChatID != nil {
		err = s.svc.Learners.LinkTelegram(r.Context(), learnerID, *req.ChatID, req.Reminders)
	} else {
		err = s.svc.Learners.SetReminders(r.Context(), learnerID, req.Reminders)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	learner, err := s.svc.Learners.Get(r.Context(), learnerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, learner)
}
