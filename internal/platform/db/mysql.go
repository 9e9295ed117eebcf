package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"twitch-giveaway-backend/internal/common/config"
	"twitch-giveaway-backend/internal/common/logger"
)

// Open initializes a MySQL connection pool using database/sql.
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.MySQL.Host).
		Int("port", cfg.MySQL.Port).
		Str("database", cfg.MySQL.Database).
		Msg("MySQL connection established")

	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS giveaways (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NULL,
			image VARCHAR(512) NULL,
			prize VARCHAR(255) NULL,
			cash_prize DECIMAL(10,2) NOT NULL DEFAULT 0,
			winner_count INT NOT NULL DEFAULT 1,
			draw_at DATETIME NULL,
			state ENUM('open','closed') NOT NULL DEFAULT 'open',
			winner_user_id VARCHAR(64) NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			giveaway_id BIGINT NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (giveaway_id, user_id),
			CONSTRAINT fk_participants_giveaway FOREIGN KEY (giveaway_id)
				REFERENCES giveaways (id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
