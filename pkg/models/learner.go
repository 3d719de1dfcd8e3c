package models

import "time"

// Learner is a single browser profile using the app. The ID is generated
// client-side and carries no credentials.
type Learner struct {
	ID               string    `json:"id" db:"id"`
	TelegramChatID   int64     `json:"telegram_chat_id" db:"telegram_chat_id"` // 0 when not linked
	RemindersEnabled bool      `json:"reminders_enabled" db:"reminders_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
