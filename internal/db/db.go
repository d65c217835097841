package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS activity (
            user_id BIGINT NOT NULL,
            chat_id BIGINT NOT NULL,
            last_activity TIMESTAMPTZ NOT NULL,
            join_date TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (user_id, chat_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_config (
            chat_id BIGINT PRIMARY KEY,
            inactive_days INT NOT NULL,
            new_user_days INT NOT NULL
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Info().Msg("database migrations applied")
	return nil
}
