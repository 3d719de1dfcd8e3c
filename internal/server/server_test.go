package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/ai"
	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/config"
	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/internal/progress"
	"github.com/example/patterneng/internal/quiz"
	"github.com/example/patterneng/internal/review"
	"github.com/example/patterneng/internal/tts"
	"github.com/example/patterneng/pkg/models"
)

type fakeSynth struct{ calls int }

func (f *fakeSynth) Synthesize(_ context.Context, text, lang string) (string, error) {
	f.calls++
	return base64.StdEncoding.EncodeToString([]byte(lang + ":" + text)), nil
}

type fakeChat struct{ history []ai.Turn }

func (f *fakeChat) Reply(_ context.Context, message string, history []ai.Turn) (string, error) {
	f.history = history
	return "echo: " + message, nil
}

func newTestServices(t *testing.T) Services {
	t.Helper()

	db, err := database.Connect(config.DB{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.New(models.Catalog{Days: []models.Day{
		{Day: 1, Title: "Future plans", Patterns: []models.Pattern{
			{ID: 1, Title: "I'm going to ~", Color: "#6366f1", Examples: []models.Example{
				{English: "I'm going to study.", Korean: "나 공부할 거야."},
				{English: "I'm going to sleep.", Korean: "나 잘 거야."},
			}},
		}},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	logger := zap.NewNop()
	wrong := database.NewWrongAnswerRepository(db)
	prog := progress.NewService(cat, database.NewCompletedRepository(db), database.NewClearedDayRepository(db), false, logger)

	return Services{
		Catalog:  cat,
		Progress: prog,
		Quiz:     quiz.NewModule(cat, prog, wrong, database.NewQuizResultRepository(db), logger),
		Review:   review.NewService(wrong, database.NewBookmarkRepository(db), logger),
		Learners: database.NewLearnerRepository(db),
	}
}

func newTestHandler(t *testing.T, svc Services) http.Handler {
	t.Helper()
	return New(config.HTTP{Port: 0}, svc, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid json %q", method, path, rec.Body.String())
		}
	}
	return rec, out
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestHandler(t, newTestServices(t))

	rec, body := do(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["ttsConfigured"] != false {
		t.Errorf("unexpected health: %d %v", rec.Code, body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("missing CORS header, got %q", got)
	}

	rec, _ = do(t, h, http.MethodOptions, "/api/tts", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for OPTIONS, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Errorf("unexpected methods header %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}

	rec, body = do(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || body["error"] != "Not found" {
		t.Errorf("unexpected 404: %d %v", rec.Code, body)
	}
}

func TestTTS(t *testing.T) {
	svc := newTestServices(t)
	h := newTestHandler(t, svc)

	tests := []struct {
		name   string
		body   string
		status int
		err    string
	}{
		{"bad json", `{`, http.StatusBadRequest, "Text is required"},
		{"empty text", `{"text":""}`, http.StatusBadRequest, "Text is required"},
		{"no key", `{"text":"Hello"}`, http.StatusInternalServerError, "TTS API key not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, "/api/tts", tt.body)
			if rec.Code != tt.status || body["error"] != tt.err {
				t.Errorf("got %d %v", rec.Code, body)
			}
		})
	}

	synth := &fakeSynth{}
	svc.TTS = synth
	cache, err := tts.NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Put("I'm going to study.", []byte("cached")); err != nil {
		t.Fatal(err)
	}
	svc.Audio = cache
	h = newTestHandler(t, svc)

	rec, body := do(t, h, http.MethodPost, "/api/tts", `{"text":"I'm going to study."}`)
	if rec.Code != http.StatusOK || body["audioContent"] != base64.StdEncoding.EncodeToString([]byte("cached")) {
		t.Errorf("expected cached audio, got %d %v", rec.Code, body)
	}
	if synth.calls != 0 {
		t.Errorf("cached sentence must not call the API")
	}

	rec, body = do(t, h, http.MethodPost, "/api/tts", `{"text":"안녕","lang":"ko"}`)
	if rec.Code != http.StatusOK || body["audioContent"] != base64.StdEncoding.EncodeToString([]byte("ko:안녕")) {
		t.Errorf("unexpected synthesized audio: %d %v", rec.Code, body)
	}
}

func TestChat(t *testing.T) {
	svc := newTestServices(t)
	h := newTestHandler(t, svc)

	rec, body := do(t, h, http.MethodPost, "/api/chat", `not json`)
	if rec.Code != http.StatusBadRequest || body["error"] != "Invalid JSON" {
		t.Errorf("got %d %v", rec.Code, body)
	}
	rec, body = do(t, h, http.MethodPost, "/api/chat", `{"message":"  "}`)
	if rec.Code != http.StatusBadRequest || body["error"] != "Message required" {
		t.Errorf("got %d %v", rec.Code, body)
	}
	rec, body = do(t, h, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusInternalServerError || body["error"] != "Chat model not configured" {
		t.Errorf("got %d %v", rec.Code, body)
	}

	chat := &fakeChat{}
	svc.Chat = chat
	h = newTestHandler(t, svc)
	rec, body = do(t, h, http.MethodPost, "/api/chat", `{"message":"hi","history":[{"role":"user","text":"yo"}]}`)
	if rec.Code != http.StatusOK || body["reply"] != "echo: hi" {
		t.Errorf("got %d %v", rec.Code, body)
	}
	if len(chat.history) != 1 || chat.history[0].Text != "yo" {
		t.Errorf("history not forwarded: %+v", chat.history)
	}
}

func TestCatalogAndProgress(t *testing.T) {
	h := newTestHandler(t, newTestServices(t))

	rec, body := do(t, h, http.MethodGet, "/api/days", "")
	if rec.Code != http.StatusOK || len(body["days"].([]interface{})) != 1 {
		t.Errorf("unexpected days: %d %v", rec.Code, body)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/days/7", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown day, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/days/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad day, got %d", rec.Code)
	}

	rec, body = do(t, h, http.MethodPost, "/api/learners/abc123/completed/1_1_0/toggle", "")
	if rec.Code != http.StatusOK || body["completed"] != true || body["totalCompleted"] != float64(1) {
		t.Errorf("unexpected toggle: %d %v", rec.Code, body)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/learners/abc123/completed/1_1_9/toggle", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", rec.Code)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/days/1/progress", "")
	if rec.Code != http.StatusOK || body["completed"] != float64(1) || body["total"] != float64(2) {
		t.Errorf("unexpected progress: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/cleared", "")
	if rec.Code != http.StatusOK || len(body["days"].([]interface{})) != 1 {
		t.Errorf("unexpected cleared: %d %v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/learners/bad%20id/days", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid learner, got %d", rec.Code)
	}
}

func TestQuizFlowAndReview(t *testing.T) {
	h := newTestHandler(t, newTestServices(t))

	rec, body := do(t, h, http.MethodPost, "/api/learners/abc123/quiz", `{"day":1,"count":2,"type":"korean"}`)
	if rec.Code != http.StatusCreated || body["total"] != float64(2) {
		t.Fatalf("unexpected start: %d %v", rec.Code, body)
	}
	session := body["sessionId"].(string)

	rec, _ = do(t, h, http.MethodPost, "/api/quiz/"+session+"/next", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 before answering, got %d", rec.Code)
	}

	for i := 0; i < 2; i++ {
		rec, body = do(t, h, http.MethodPost, "/api/quiz/"+session+"/answer", `{"answer":"wrong"}`)
		if rec.Code != http.StatusOK || body["correct"] != false {
			t.Fatalf("unexpected answer: %d %v", rec.Code, body)
		}
		rec, body = do(t, h, http.MethodPost, "/api/quiz/"+session+"/next", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected next: %d %v", rec.Code, body)
		}
	}
	if body["finished"] != true {
		t.Fatalf("expected finished quiz, got %v", body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/quiz/"+session+"/result", "")
	if rec.Code != http.StatusOK || body["tier"] != "retry" || body["percent"] != float64(0) {
		t.Errorf("unexpected result: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/quiz/history", "")
	if rec.Code != http.StatusOK || len(body["results"].([]interface{})) != 1 {
		t.Errorf("unexpected history: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/wrong", "")
	items := body["items"].([]interface{})
	if rec.Code != http.StatusOK || len(items) != 2 {
		t.Fatalf("expected 2 wrong answers, got %d %v", rec.Code, body)
	}
	first := items[0].(map[string]interface{})
	id := int64(first["id"].(float64))

	rec, body = do(t, h, http.MethodPost, "/api/learners/abc123/wrong/"+itoa(id)+"/bookmark", "")
	if rec.Code != http.StatusOK || body["bookmarked"] != true {
		t.Errorf("unexpected bookmark toggle: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/flashcards?source=bookmark", "")
	if rec.Code != http.StatusOK || body["back"] != first["english"] || body["progress"] != "1 / 1" {
		t.Errorf("unexpected flashcard: %d %v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/learners/abc123/wrong/"+itoa(id), "")
	if rec.Code != http.StatusOK {
		t.Errorf("unexpected delete: %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodDelete, "/api/learners/abc123/wrong/"+itoa(id), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/quiz/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestBookmarksAndFlashcards(t *testing.T) {
	h := newTestHandler(t, newTestServices(t))

	rec, _ := do(t, h, http.MethodGet, "/api/learners/abc123/flashcards?source=wrong", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for empty deck, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/learners/abc123/flashcards?source=other", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad source, got %d", rec.Code)
	}

	payload := `{"english":"Can I sit here?","korean":"여기 앉아도 돼?","patternTitle":"Can I ~?","day":1}`
	rec, body := do(t, h, http.MethodPost, "/api/learners/abc123/bookmarks", payload)
	if rec.Code != http.StatusCreated || body["english"] != "Can I sit here?" {
		t.Fatalf("unexpected add: %d %v", rec.Code, body)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/learners/abc123/bookmarks", payload)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for existing bookmark, got %d", rec.Code)
	}

	rec, body = do(t, h, http.MethodGet, "/api/learners/abc123/bookmarks", "")
	if rec.Code != http.StatusOK || len(body["items"].([]interface{})) != 1 {
		t.Errorf("unexpected bookmarks: %d %v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/learners/abc123/bookmarks", `{"english":"I want to go home.","korean":"나 집에 가고 싶어."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected add: %d", rec.Code)
	}

	base := "/api/learners/abc123/flashcards?source=bookmark"
	rec, body = do(t, h, http.MethodGet, base+"&action=next", "")
	if rec.Code != http.StatusOK || body["index"] != float64(1) || body["hasNext"] != false {
		t.Errorf("unexpected next card: %d %v", rec.Code, body)
	}
	rec, body = do(t, h, http.MethodGet, base+"&index=1&action=next", "")
	if rec.Code != http.StatusOK || body["index"] != float64(1) {
		t.Errorf("next should clamp at the last card: %d %v", rec.Code, body)
	}
	rec, body = do(t, h, http.MethodGet, base+"&index=1&action=prev", "")
	if rec.Code != http.StatusOK || body["index"] != float64(0) || body["back"] != "Can I sit here?" {
		t.Errorf("unexpected prev card: %d %v", rec.Code, body)
	}
	_, body = do(t, h, http.MethodGet, base+"&action=flip", "")
	if body["flipped"] != true {
		t.Errorf("expected flipped card: %v", body)
	}
	_, body = do(t, h, http.MethodGet, base+"&flipped=true&action=flip", "")
	if body["flipped"] != false {
		t.Errorf("expected card flipped back: %v", body)
	}
	rec, _ = do(t, h, http.MethodGet, base+"&action=jump", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", rec.Code)
	}
}

func TestTelegramSettings(t *testing.T) {
	h := newTestHandler(t, newTestServices(t))

	rec, _ := do(t, h, http.MethodPut, "/api/learners/abc123/telegram", `{"reminders":true}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown learner, got %d", rec.Code)
	}

	rec, body := do(t, h, http.MethodPut, "/api/learners/abc123/telegram", `{"chatId":42,"reminders":true}`)
	if rec.Code != http.StatusOK || body["telegram_chat_id"] != float64(42) || body["reminders_enabled"] != true {
		t.Errorf("unexpected link: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodPut, "/api/learners/abc123/telegram", `{"reminders":false}`)
	if rec.Code != http.StatusOK || body["reminders_enabled"] != false || body["telegram_chat_id"] != float64(42) {
		t.Errorf("unexpected reminder update: %d %v", rec.Code, body)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
