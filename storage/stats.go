package storage

import (
	"fmt"
	"time"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date         string
	TotalPastes  int
	TotalBytes   int64
	SuccessCount int
	FailureCount int
}

// TargetStats represents statistics grouped by target app
type TargetStats struct {
	TargetApp     string
	TotalPastes   int
	SuccessCount  int
	FailureCount  int
	AvgDurationMs float64
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalPastes   int
	SuccessCount  int
	FailureCount  int
	TotalBytes    int64
	AvgDurationMs float64
	FromMarkdown  int
	FromHTML      int
	FromFiles     int
	FromTable     int
}

func since(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_pastes,
			COALESCE(SUM(output_bytes), 0) as total_bytes,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count
		FROM pastes
		WHERE timestamp >= ?
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalPastes, &s.TotalBytes, &s.SuccessCount, &s.FailureCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetTargetStats retrieves statistics grouped by target app for the last N days
func (db *DB) GetTargetStats(days int) ([]TargetStats, error) {
	query := `
		SELECT
			target_app,
			COUNT(*) as total_pastes,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms
		FROM pastes
		WHERE timestamp >= ?
		GROUP BY target_app
		ORDER BY total_pastes DESC, target_app
	`

	rows, err := db.conn.Query(query, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to query target stats: %w", err)
	}
	defer rows.Close()

	var stats []TargetStats
	for rows.Next() {
		var s TargetStats
		err := rows.Scan(&s.TargetApp, &s.TotalPastes, &s.SuccessCount, &s.FailureCount, &s.AvgDurationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_pastes,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COALESCE(SUM(output_bytes), 0) as total_bytes,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
			COALESCE(SUM(CASE WHEN source = 'markdown' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = 'html' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = 'files' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = 'table' THEN 1 ELSE 0 END), 0)
		FROM pastes
		WHERE timestamp >= ?
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, since(days)).Scan(
		&stats.TotalPastes,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.TotalBytes,
		&stats.AvgDurationMs,
		&stats.FromMarkdown,
		&stats.FromHTML,
		&stats.FromFiles,
		&stats.FromTable,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
