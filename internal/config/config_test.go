package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Type != "sqlite" {
		t.Fatalf("database type = %q, want sqlite", cfg.DB.Type)
	}
	if cfg.Chat.MaxTokens != 500 {
		t.Fatalf("chat max tokens = %d, want 500", cfg.Chat.MaxTokens)
	}
	if cfg.Quiz.SessionTTL.Hours() != 2 {
		t.Fatalf("session ttl = %v, want 2h", cfg.Quiz.SessionTTL)
	}
}

func TestLoadReadsSecretsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_TTS_API_KEY", "tts-key")
	t.Setenv("GEMINI_API_KEY", "chat-key")
	t.Setenv("PORT", "4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TTS.APIKey != "tts-key" || cfg.Chat.APIKey != "chat-key" {
		t.Fatalf("secrets not loaded: %+v %+v", cfg.TTS, cfg.Chat)
	}
	if cfg.HTTP.Addr() != ":4000" {
		t.Fatalf("addr = %q, want :4000", cfg.HTTP.Addr())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "sqlite", cfg: Config{DB: DB{Type: "sqlite"}}},
		{name: "postgres without url", cfg: Config{DB: DB{Type: "postgres"}}, wantErr: true},
		{name: "postgres with url", cfg: Config{DB: DB{Type: "postgres", URL: "postgres://localhost/db"}}},
		{name: "unknown driver", cfg: Config{DB: DB{Type: "mysql"}}, wantErr: true},
		{name: "bad reminder hour", cfg: Config{DB: DB{Type: "sqlite"}, Telegram: Telegram{ReminderHour: 24}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
