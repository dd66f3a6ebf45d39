package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order at startup. Every statement is idempotent.
// Courses and layouts are stored as whole JSON documents; the version
// column guards course saves against lost updates.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		avatar        VARCHAR(1024) NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		is_verified   BOOLEAN      NOT NULL DEFAULT FALSE,
		courses       JSON         NOT NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS courses (
		id         CHAR(36) NOT NULL PRIMARY KEY,
		doc        JSON     NOT NULL,
		version    BIGINT   NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_courses_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           CHAR(36) NOT NULL PRIMARY KEY,
		course_id    CHAR(36) NOT NULL,
		user_id      CHAR(36) NOT NULL,
		payment_info JSON     NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_orders_user (user_id),
		KEY idx_orders_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		user_id    CHAR(36)     NOT NULL,
		title      VARCHAR(255) NOT NULL,
		message    TEXT         NOT NULL,
		status     VARCHAR(16)  NOT NULL DEFAULT 'unread',
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_notifications_status_created (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS layouts (
		id         CHAR(36)    NOT NULL PRIMARY KEY,
		type       VARCHAR(32) NOT NULL,
		doc        JSON        NOT NULL,
		created_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_layouts_type (type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the application needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
