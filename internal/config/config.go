package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required when database.type is postgres")

// Config holds application configuration loaded from .env, config files and environment variables.
type Config struct {
	Env         string   `mapstructure:"env"`          // current application environment (local, production)
	CatalogPath string   `mapstructure:"catalog_path"` // lesson file: .json, .xlsx or .csv
	HTTP        HTTP     `mapstructure:"http"`
	DB          DB       `mapstructure:"database"`
	Progress    Progress `mapstructure:"progress"`
	Quiz        Quiz     `mapstructure:"quiz"`
	TTS         TTS      `mapstructure:"tts"`
	Chat        Chat     `mapstructure:"chat"`
	Telegram    Telegram `mapstructure:"telegram"`
}

type HTTP struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address for the HTTP server.
func (h HTTP) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

// DB contains database-related configuration parameters.
type DB struct {
	Type         string `mapstructure:"type"` // "sqlite" or "postgres"
	Path         string `mapstructure:"path"` // sqlite file
	URL          string `mapstructure:"-"`    // postgres connection string loaded from environment
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type Progress struct {
	LockDays bool `mapstructure:"lock_days"` // require the previous day to be cleared
}

type Quiz struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type TTS struct {
	APIKey    string `mapstructure:"-"`
	BaseURL   string `mapstructure:"base_url"`
	AudioDir  string `mapstructure:"audio_dir"`
	WarmAudio bool   `mapstructure:"warm_audio"`
	WarmAt    string `mapstructure:"warm_at"` // daily HH:MM in UTC
}

type Chat struct {
	APIKey      string  `mapstructure:"-"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type Telegram struct {
	Token        string `mapstructure:"-"`
	ReminderHour int    `mapstructure:"reminder_hour"` // UTC
	StudyURL     string `mapstructure:"study_url"`     // linked from reminders
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// .env is optional, real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("catalog_path", "data/patterns.json")
	v.SetDefault("http.port", 3001)
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/patterneng.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("progress.lock_days", false)
	v.SetDefault("quiz.session_ttl", "2h")
	v.SetDefault("tts.base_url", "https://texttospeech.googleapis.com")
	v.SetDefault("tts.audio_dir", "data/audio")
	v.SetDefault("tts.warm_audio", false)
	v.SetDefault("tts.warm_at", "03:00")
	v.SetDefault("chat.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("chat.model", "gemini-2.0-flash")
	v.SetDefault("chat.max_tokens", 500)
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("telegram.reminder_hour", 9)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http.port", "PORT")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("tts_api_key", "GOOGLE_TTS_API_KEY")
	_ = v.BindEnv("chat_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("telegram_token", "TELEGRAM_BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Secrets only come from the environment.
	cfg.DB.URL = v.GetString("database_url")
	cfg.TTS.APIKey = v.GetString("tts_api_key")
	cfg.Chat.APIKey = v.GetString("chat_api_key")
	cfg.Telegram.Token = v.GetString("telegram_token")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks combinations viper cannot express as defaults.
func (c *Config) Validate() error {
	switch c.DB.Type {
	case "sqlite":
	case "postgres":
		if c.DB.URL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("unknown database type %q", c.DB.Type)
	}

	if c.Telegram.ReminderHour < 0 || c.Telegram.ReminderHour > 23 {
		return fmt.Errorf("telegram.reminder_hour must be between 0 and 23, got %d", c.Telegram.ReminderHour)
	}

	return nil
}
