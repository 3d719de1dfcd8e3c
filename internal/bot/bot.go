package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/pkg/models"
)

var learnerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of the Telegram API the bot writes to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// LearnerStore links Telegram chats to learners
type LearnerStore interface {
	LinkTelegram(ctx context.Context, learnerID string, chatID int64, reminders bool) error
	SetReminders(ctx context.Context, learnerID string, enabled bool) error
	GetByTelegramChat(ctx context.Context, chatID int64) (*models.Learner, error)
}

// DigestBuilder produces the study summary of a learner
type DigestBuilder interface {
	Digest(ctx context.Context, learnerID string) (*Digest, error)
}

// Bot is the Telegram companion of the study server
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	learners LearnerStore
	digests  DigestBuilder
	config   *BotConfig
	logger   *zap.Logger
}

// New connects to Telegram with the given token
func New(token string, learners LearnerStore, digests DigestBuilder, config *BotConfig, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	b := newBot(api, learners, digests, config, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, learners LearnerStore, digests DigestBuilder, config *BotConfig, logger *zap.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	return &Bot{
		out:      out,
		learners: learners,
		digests:  digests,
		config:   config,
		logger:   logger,
	}
}

// Start handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminder implements the scheduler's notifier
func (b *Bot) SendReminder(chatID int64, digest *Digest) error {
	text := "⏰ 오늘의 영어 패턴 공부할 시간이에요!\n\n" + digest.Text()
	if b.config.StudyURL != "" {
		text += "\n\n👉 " + b.config.StudyURL
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.menuButtons(true))
	if _, err := b.out.Send(msg); err != nil {
		return fmt.Errorf("send reminder to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) menuButtons(reminders bool) [][]MenuButton {
	toggle := MenuButton{Text: "🔕 알림 끄기", CallbackData: "reminders_off"}
	if !reminders {
		toggle = MenuButton{Text: "🔔 알림 켜기", CallbackData: "reminders_on"}
	}
	return [][]MenuButton{
		{
			{Text: "📊 학습 현황", CallbackData: "progress"},
			toggle,
		},
	}
}

func (b *Bot) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// learnerForChat returns the linked learner, telling the chat how to link
// when there is none.
func (b *Bot) learnerForChat(ctx context.Context, chatID int64) (*models.Learner, bool) {
	learner, err := b.learners.GetByTelegramChat(ctx, chatID)
	if errors.Is(err, database.ErrLearnerNotFound) {
		b.reply(chatID, notLinkedText, nil)
		return nil, false
	}
	if err != nil {
		b.logger.Error("failed to look up learner", zap.Int64("chat", chatID), zap.Error(err))
		b.reply(chatID, errorText, nil)
		return nil, false
	}
	return learner, true
}

func normalizeArg(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
