package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Content sources a paste can be built from
const (
	SourceMarkdown = "markdown"
	SourceHTML     = "html"
	SourceFiles    = "files"
	SourceTable    = "table"
)

// Target recorded when the result went to a file instead of an app
const TargetFile = "file"

const timeLayout = "2006-01-02 15:04:05"

// Paste is one triggered conversion
type Paste struct {
	ID           int64
	Timestamp    time.Time
	Source       string
	TargetApp    string
	Method       string
	OutputPath   string
	OutputBytes  int64
	DurationMs   int64
	Success      bool
	ErrorMessage string
}

// SavePaste records a paste. A zero Timestamp is set to now.
func (db *DB) SavePaste(p *Paste) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	query := `
		INSERT INTO pastes (
			timestamp, source, target_app, method, output_path,
			output_bytes, duration_ms, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		p.Timestamp.UTC().Format(timeLayout), p.Source, p.TargetApp, p.Method, nullString(p.OutputPath),
		p.OutputBytes, p.DurationMs, p.Success, nullString(p.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to save paste: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	p.ID = id
	return nil
}

// GetPastes retrieves pastes newest first with pagination
func (db *DB) GetPastes(limit, offset int) ([]Paste, error) {
	query := `
		SELECT
			id, timestamp, source, target_app, method, output_path,
			output_bytes, duration_ms, success, error_message
		FROM pastes
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pastes: %w", err)
	}
	defer rows.Close()

	var pastes []Paste
	for rows.Next() {
		var p Paste
		var outputPath, errorMessage sql.NullString

		err := rows.Scan(
			&p.ID, &p.Timestamp, &p.Source, &p.TargetApp, &p.Method, &outputPath,
			&p.OutputBytes, &p.DurationMs, &p.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paste: %w", err)
		}

		p.OutputPath = outputPath.String
		p.ErrorMessage = errorMessage.String
		pastes = append(pastes, p)
	}

	return pastes, rows.Err()
}

// DeletePaste deletes a paste by ID
func (db *DB) DeletePaste(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM pastes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete paste: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete paste %d: %w", id, ErrNotFound)
	}

	return nil
}

// GetPasteCount returns the total number of pastes
func (db *DB) GetPasteCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pastes").Scan(&count)
	return count, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
