package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Page linked from reminders and the welcome message
	StudyURL string
	// Whether linking a chat turns daily reminders on
	DefaultReminders bool
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultReminders: true,
		UpdateTimeout:    60,
	}
}
