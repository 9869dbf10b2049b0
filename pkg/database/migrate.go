package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the full schema if it does not exist (idempotent).
// Deletion cascades are declared here, at the schema level: removing a user
// removes its protocols, removing a protocol removes its zone links and
// compliance logs, removing a zone removes its links only.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id varchar(27) PRIMARY KEY,
			email varchar(255) NOT NULL UNIQUE,
			username varchar(255) NOT NULL UNIQUE,
			password_hash varchar(255) NOT NULL,
			first_name varchar(50),
			last_name varchar(50),
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS protocols (
			id varchar(27) PRIMARY KEY,
			user_id varchar(27) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name varchar(200) NOT NULL,
			description text,
			frequency varchar(20) NOT NULL,
			target_count int NOT NULL DEFAULT 1,
			is_active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS hazard_zones (
			id varchar(27) PRIMARY KEY,
			name varchar(50) NOT NULL UNIQUE,
			color varchar(7) NOT NULL DEFAULT '#16a34a',
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS protocol_zones (
			id varchar(27) PRIMARY KEY,
			protocol_id varchar(27) NOT NULL REFERENCES protocols(id) ON DELETE CASCADE,
			zone_id varchar(27) NOT NULL REFERENCES hazard_zones(id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS compliance_logs (
			id varchar(27) PRIMARY KEY,
			protocol_id varchar(27) NOT NULL REFERENCES protocols(id) ON DELETE CASCADE,
			completion_date timestamptz NOT NULL DEFAULT NOW(),
			note text,
			created_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_protocols_user_id ON protocols (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_protocol_zones_protocol_id ON protocol_zones (protocol_id)`,
		`CREATE INDEX IF NOT EXISTS idx_protocol_zones_zone_id ON protocol_zones (zone_id)`,
		`CREATE INDEX IF NOT EXISTS idx_compliance_logs_protocol_id ON compliance_logs (protocol_id, completion_date)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
