package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/ai"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"ttsConfigured":  s.svc.TTS != nil,
		"chatConfigured": s.svc.Chat != nil,
	})
}

type ttsRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if req.Lang == "" {
		req.Lang = "en"
	}

	if req.Lang != "ko" && s.svc.Audio != nil {
		audio, ok, err := s.svc.Audio.Get(req.Text)
		if err != nil {
			s.logger.Warn("audio cache read failed", zap.Error(err))
		}
		if ok {
			writeJSON(w, http.StatusOK, map[string]string{
				"audioContent": base64.StdEncoding.EncodeToString(audio),
			})
			return
		}
	}

	if s.svc.TTS == nil {
		writeJSONError(w, http.StatusInternalServerError, "TTS API key not configured")
		return
	}

	audio, err := s.svc.TTS.Synthesize(r.Context(), req.Text, req.Lang)
	if err != nil {
		s.logger.Warn("tts failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audioContent": audio})
}

type chatRequest struct {
	Message string    `json:"message"`
	History []ai.Turn `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "Message required")
		return
	}
	if s.svc.Chat == nil {
		writeJSONError(w, http.StatusInternalServerError, "Chat model not configured")
		return
	}

	reply, err := s.svc.Chat.Reply(r.Context(), req.Message, req.History)
	if errors.Is(err, ai.ErrNoReply) {
		writeJSONError(w, http.StatusInternalServerError, "No response")
		return
	}
	if err != nil {
		s.logger.Warn("chat failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
