package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	helpText = `패턴 영어 알림 봇이에요 🎓

/start <학습자 ID> - 웹 학습 기록과 연결
/progress - 학습 현황 보기
/reminders on|off - 매일 알림 켜기/끄기
/help - 도움말`

	notLinkedText = "아직 연결된 학습 기록이 없어요. 웹의 설정 화면에 있는 학습자 ID로 /start <ID> 를 보내주세요."
	errorText     = "❌ 잠시 후 다시 시도해주세요."
)

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.reply(update.Message.Chat.ID, "명령어를 이해하지 못했어요. /help 를 확인해주세요.", nil)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		b.handleStartCommand(ctx, chatID, message.CommandArguments())
	case "progress":
		b.handleProgressCommand(ctx, chatID)
	case "reminders":
		switch normalizeArg(message.CommandArguments()) {
		case "on":
			b.setReminders(ctx, chatID, true)
		case "off":
			b.setReminders(ctx, chatID, false)
		default:
			b.reply(chatID, "사용법: /reminders on 또는 /reminders off", nil)
		}
	case "help":
		b.reply(chatID, helpText, nil)
	default:
		b.reply(chatID, "알 수 없는 명령어예요. /help 를 확인해주세요.", nil)
	}
}

// handleStartCommand links the chat to the learner ID given as argument
func (b *Bot) handleStartCommand(ctx context.Context, chatID int64, arg string) {
	learnerID := strings.TrimSpace(arg)
	if learnerID == "" {
		b.reply(chatID, helpText, nil)
		return
	}
	if !learnerIDPattern.MatchString(learnerID) {
		b.reply(chatID, "학습자 ID 형식이 올바르지 않아요.", nil)
		return
	}

	if err := b.learners.LinkTelegram(ctx, learnerID, chatID, b.config.DefaultReminders); err != nil {
		b.logger.Error("failed to link chat", zap.Int64("chat", chatID), zap.String("learner", learnerID), zap.Error(err))
		b.reply(chatID, errorText, nil)
		return
	}
	b.logger.Info("telegram chat linked", zap.Int64("chat", chatID), zap.String("learner", learnerID))

	text := "✅ 학습 기록과 연결됐어요!"
	if b.config.DefaultReminders {
		text += " 매일 공부 알림을 보내드릴게요."
	}
	keyboard := createKeyboard(b.menuButtons(b.config.DefaultReminders))
	b.reply(chatID, text, &keyboard)
}

func (b *Bot) handleProgressCommand(ctx context.Context, chatID int64) {
	learner, ok := b.learnerForChat(ctx, chatID)
	if !ok {
		return
	}

	digest, err := b.digests.Digest(ctx, learner.ID)
	if err != nil {
		b.logger.Error("failed to build digest", zap.String("learner", learner.ID), zap.Error(err))
		b.reply(chatID, errorText, nil)
		return
	}
	keyboard := createKeyboard(b.menuButtons(learner.RemindersEnabled))
	b.reply(chatID, digest.Text(), &keyboard)
}

func (b *Bot) setReminders(ctx context.Context, chatID int64, enabled bool) {
	learner, ok := b.learnerForChat(ctx, chatID)
	if !ok {
		return
	}
	if err := b.learners.SetReminders(ctx, learner.ID, enabled); err != nil {
		b.logger.Error("failed to update reminders", zap.String("learner", learner.ID), zap.Error(err))
		b.reply(chatID, errorText, nil)
		return
	}

	text := "🔕 알림을 껐어요."
	if enabled {
		text = "🔔 매일 알림을 켰어요."
	}
	b.reply(chatID, text, nil)
}

// handleCallbackQuery handles menu button presses
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}

	switch callback.Data {
	case "progress":
		b.handleProgressCommand(ctx, chatID)
	case "reminders_on":
		b.setReminders(ctx, chatID, true)
	case "reminders_off":
		b.setReminders(ctx, chatID, false)
	}
}
