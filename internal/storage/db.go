package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens (or creates) the SQLite database at path and ensures the
// schema exists.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("error open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error ping db: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createSchema(db *sql.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"sites", `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL UNIQUE,
		check_http INTEGER NOT NULL DEFAULT 1,
		check_https INTEGER NOT NULL DEFAULT 1,
		check_tls INTEGER NOT NULL DEFAULT 1,
		check_whois INTEGER NOT NULL DEFAULT 1,
		http_interval_seconds INTEGER NOT NULL DEFAULT 300,
		tls_interval_days INTEGER NOT NULL DEFAULT 1,
		whois_interval_days INTEGER NOT NULL DEFAULT 1,
		failure_threshold INTEGER NOT NULL DEFAULT 3,
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		last_http_check TIMESTAMP,
		last_tls_check TIMESTAMP,
		last_whois_check TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`},
		{"check_results", `
	CREATE TABLE IF NOT EXISTS check_results (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		healthy INTEGER NOT NULL,
		http_status INTEGER,
		tls_days_left INTEGER,
		domain_days_left INTEGER,
		error_details TEXT,
		checked_at TIMESTAMP NOT NULL
	);`},
		{"check_results index", `
	CREATE INDEX IF NOT EXISTS idx_check_results_site_checked
		ON check_results(site_id, checked_at DESC);`},
		{"alert_config", `
	CREATE TABLE IF NOT EXISTS alert_config (
		id TEXT PRIMARY KEY,
		telegram_bot_token TEXT NOT NULL DEFAULT '',
		telegram_chat_id TEXT NOT NULL DEFAULT '',
		tls_alert_days INTEGER NOT NULL DEFAULT 14,
		domain_alert_days INTEGER NOT NULL DEFAULT 30,
		enabled INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	);`},
		{"retention_config", `
	CREATE TABLE IF NOT EXISTS retention_config (
		id TEXT PRIMARY KEY,
		audit_log_enabled INTEGER NOT NULL DEFAULT 0,
		audit_log_retention_days INTEGER NOT NULL DEFAULT 30,
		check_result_enabled INTEGER NOT NULL DEFAULT 0,
		check_result_retention_days INTEGER NOT NULL DEFAULT 30
	);`},
		{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'onlyread',
		assigned_group_ids TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`},
		{"groups", `
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`},
		{"site_groups", `
	CREATE TABLE IF NOT EXISTS site_groups (
		site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		PRIMARY KEY (site_id, group_id)
	);`},
		{"audit_logs", `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		action TEXT NOT NULL,
		target TEXT,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);`},
	}

	for _, s := range stmts {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("error creating %s table: %w", s.name, err)
		}
	}
	return nil
}
