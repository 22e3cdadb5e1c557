package database

import (
	"context"
	"database/sql"
	"fmt"
)

// createStatements holds the current (superset) table layout.  Tables
// are created with IF NOT EXISTS so startup is safe on a fresh
// database and a no-op on a current one.  Older on-disk tables are
// brought forward by Migrate, which only ever adds columns.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		tg_id BIGINT NOT NULL,
		name VARCHAR(128) NOT NULL,
		surname VARCHAR(128) NOT NULL,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		blocked TINYINT(1) NOT NULL DEFAULT 0,
		blocked_reason TEXT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_tg_id (tg_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		event_datetime VARCHAR(32) NOT NULL,
		location VARCHAR(255) NOT NULL,
		caption TEXT NOT NULL,
		photo_file_id VARCHAR(255) NOT NULL DEFAULT '',
		early_bird_price DOUBLE NOT NULL DEFAULT 0,
		early_bird_price_girl DOUBLE NOT NULL DEFAULT 0,
		early_bird_qty INT NOT NULL DEFAULT 0,
		regular_tier1_price DOUBLE NOT NULL DEFAULT 0,
		regular_tier1_price_girl DOUBLE NOT NULL DEFAULT 0,
		regular_tier1_qty INT NOT NULL DEFAULT 0,
		regular_tier2_price DOUBLE NOT NULL DEFAULT 0,
		regular_tier2_price_girl DOUBLE NOT NULL DEFAULT 0,
		regular_tier2_qty INT NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'open',
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		code VARCHAR(64) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		ticket_type VARCHAR(16) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 0,
		boys INT NOT NULL DEFAULT 0,
		girls INT NOT NULL DEFAULT 0,
		total_price DOUBLE NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'pending_review',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payment_file_id VARCHAR(255) NOT NULL DEFAULT '',
		payment_file_type VARCHAR(32) NOT NULL DEFAULT '',
		admin_note TEXT NULL,
		reviewed_at DATETIME NULL,
		reviewed_by_tg_id BIGINT NULL,
		hold_applied TINYINT(1) NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		UNIQUE KEY uq_reservations_code (code),
		KEY idx_reservations_user (user_id),
		KEY idx_reservations_event (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS attendees (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reservation_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(128) NOT NULL DEFAULT '',
		surname VARCHAR(128) NOT NULL DEFAULT '',
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		gender VARCHAR(16) NOT NULL DEFAULT 'unknown',
		ticket_tier VARCHAR(16) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'pending_review',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_attendees_reservation (reservation_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// CreateTables creates every table of the current layout if absent.
func CreateTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range createStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
