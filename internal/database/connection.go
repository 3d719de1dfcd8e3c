package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/patterneng/internal/config"
)

// Connect establishes a connection to the configured database and creates the schema
func Connect(cfg config.DB) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		db, err = sqlx.Connect("sqlite3", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		// SQLite doesn't support multiple writers; a single connection also
		// keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSchema creates necessary tables if they don't exist
func InitSchema(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		table string
		ddl   string
	}{
		{"learners", `
			CREATE TABLE IF NOT EXISTS learners (
				id TEXT PRIMARY KEY,
				telegram_chat_id BIGINT NOT NULL DEFAULT 0,
				reminders_enabled BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"completed_items", `
			CREATE TABLE IF NOT EXISTS completed_items (
				learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
				item_id TEXT NOT NULL,
				day INTEGER NOT NULL,
				completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (learner_id, item_id)
			)`},
		{"cleared_days", `
			CREATE TABLE IF NOT EXISTS cleared_days (
				learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
				day INTEGER NOT NULL,
				cleared_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (learner_id, day)
			)`},
		{WrongAnswersTable, reviewTableDDL(WrongAnswersTable, serial)},
		{BookmarksTable, reviewTableDDL(BookmarksTable, serial)},
		{"quiz_results", `
			CREATE TABLE IF NOT EXISTS quiz_results (
				id ` + serial + `,
				learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
				day INTEGER NOT NULL,
				quiz_type TEXT NOT NULL,
				total_questions INTEGER NOT NULL,
				correct_answers INTEGER NOT NULL,
				cleared BOOLEAN NOT NULL DEFAULT FALSE,
				duration INTEGER NOT NULL DEFAULT 0,
				taken_at TIMESTAMP NOT NULL
			)`},
	}

	for _, s := range statements {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}

	return nil
}

func reviewTableDDL(table, serial string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + table + ` (
			id ` + serial + `,
			learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
			english TEXT NOT NULL,
			korean TEXT NOT NULL,
			pattern_title TEXT NOT NULL DEFAULT '',
			pattern_color TEXT NOT NULL DEFAULT '',
			day INTEGER NOT NULL,
			saved_at_ms BIGINT NOT NULL,
			UNIQUE (learner_id, english)
		)`
}
