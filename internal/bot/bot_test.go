package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/config"
	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/pkg/models"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatal("no message sent")
	}
	return f.messages[len(f.messages)-1]
}

type fakeProgress struct {
	completed int
	cleared   []int
}

func (f fakeProgress) CompletedCount(context.Context, string) (int, error) { return f.completed, nil }
func (f fakeProgress) ClearedDays(context.Context, string) ([]int, error)  { return f.cleared, nil }

type fakeReview struct{ wrong int }

func (f fakeReview) WrongCount(context.Context, string) (int, error) { return f.wrong, nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(models.Catalog{Days: []models.Day{
		{Day: 1, Patterns: []models.Pattern{{ID: 1, Examples: []models.Example{{English: "A."}, {English: "B."}}}}},
		{Day: 2, Patterns: []models.Pattern{{ID: 2, Examples: []models.Example{{English: "C."}}}}},
		{Day: 3, Patterns: []models.Pattern{{ID: 3, Examples: []models.Example{{English: "D."}}}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func setupBot(t *testing.T) (*Bot, *fakeSender, *database.LearnerRepository) {
	t.Helper()
	db, err := database.Connect(config.DB{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	learners := database.NewLearnerRepository(db)
	digests := NewDigester(testCatalog(t), fakeProgress{completed: 3, cleared: []int{0, 1}}, fakeReview{wrong: 2})
	out := &fakeSender{}
	cfg := DefaultConfig()
	cfg.StudyURL = "https://example.com/study"
	return newBot(out, learners, digests, cfg, zap.NewNop()), out, learners
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestDigest(t *testing.T) {
	d := NewDigester(testCatalog(t), fakeProgress{completed: 3, cleared: []int{0, 1}}, fakeReview{wrong: 2})

	digest, err := d.Digest(context.Background(), "learner")
	if err != nil {
		t.Fatal(err)
	}
	if digest.TotalSentences != 4 || digest.Completed != 3 || digest.NextDay != 2 || digest.WrongPending != 2 {
		t.Errorf("unexpected digest %+v", digest)
	}
	if len(digest.ClearedDays) != 1 || digest.ClearedDays[0] != 1 {
		t.Errorf("day 0 must not be listed, got %v", digest.ClearedDays)
	}

	text := digest.Text()
	for _, want := range []string{"3 / 4", "클리어한 Day: 1", "Day 2", "2개"} {
		if !strings.Contains(text, want) {
			t.Errorf("digest text %q missing %q", text, want)
		}
	}
}

func TestStartLinksChat(t *testing.T) {
	b, out, learners := setupBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(77, "/start abc123"))

	learner, err := learners.GetByTelegramChat(ctx, 77)
	if err != nil {
		t.Fatalf("expected linked learner: %v", err)
	}
	if learner.ID != "abc123" || !learner.RemindersEnabled {
		t.Errorf("unexpected learner %+v", learner)
	}
	if !strings.Contains(out.last(t).Text, "연결됐어요") {
		t.Errorf("unexpected reply %q", out.last(t).Text)
	}

	b.handleUpdate(ctx, command(78, "/start bad id!"))
	if !strings.Contains(out.last(t).Text, "올바르지") {
		t.Errorf("expected invalid id reply, got %q", out.last(t).Text)
	}
}

func TestProgressRequiresLink(t *testing.T) {
	b, out, _ := setupBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(5, "/progress"))
	if out.last(t).Text != notLinkedText {
		t.Errorf("expected not linked reply, got %q", out.last(t).Text)
	}

	b.handleUpdate(ctx, command(5, "/start learner-5"))
	b.handleUpdate(ctx, command(5, "/progress"))
	if !strings.Contains(out.last(t).Text, "학습 현황") {
		t.Errorf("expected digest, got %q", out.last(t).Text)
	}
}

func TestRemindersCommandAndCallback(t *testing.T) {
	b, out, learners := setupBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(9, "/start learner-9"))
	b.handleUpdate(ctx, command(9, "/reminders off"))

	learner, _ := learners.GetByTelegramChat(ctx, 9)
	if learner.RemindersEnabled {
		t.Errorf("reminders should be off")
	}

	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    "reminders_on",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}})
	learner, _ = learners.GetByTelegramChat(ctx, 9)
	if !learner.RemindersEnabled {
		t.Errorf("reminders should be on")
	}
	if out.requests != 1 {
		t.Errorf("expected callback to be answered")
	}
}

func TestSendReminder(t *testing.T) {
	b, out, _ := setupBot(t)

	err := b.SendReminder(42, &Digest{Completed: 1, TotalSentences: 4, NextDay: 1})
	if err != nil {
		t.Fatal(err)
	}
	msg := out.last(t)
	if msg.ChatID != 42 || !strings.Contains(msg.Text, "https://example.com/study") || !strings.Contains(msg.Text, "1 / 4") {
		t.Errorf("unexpected reminder %+v", msg)
	}
}
