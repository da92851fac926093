package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the history database inside the config dir
const FileName = "pastemd.db"

var ErrNotFound = errors.New("paste not found")

type DB struct {
	conn *sql.DB
}

// Open opens the database and initializes the schema
func Open(configDir string) (*DB, error) {
	dbPath := filepath.Join(configDir, FileName)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the dashboard read while a paste is being recorded
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pastes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

		-- What was read and where it went
		source TEXT NOT NULL,
		target_app TEXT NOT NULL,
		method TEXT NOT NULL,
		output_path TEXT,

		output_bytes INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,

		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pastes_timestamp ON pastes(timestamp);
	CREATE INDEX IF NOT EXISTS idx_pastes_target ON pastes(target_app);
	`

	_, err := db.conn.Exec(schema)
	return err
}
