package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

// RecordSnapshot persists one history row per model in the snapshot.
// Snapshots without an account email are skipped.
func (db *DB) RecordSnapshot(snap *models.QuotaSnapshot) error {
	if snap == nil || snap.AccountEmail == "" {
		return nil
	}

	query := `
		INSERT INTO quota_history (
			timestamp, email, model_id, label, remaining_fraction, is_exhausted, reset_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := snap.CapturedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	for i := range snap.Models {
		m := &snap.Models[i]

		var remaining any
		if m.RemainingFraction != nil {
			remaining = *m.RemainingFraction
		}
		var resetAt any
		if m.ResetAt != nil {
			resetAt = m.ResetAt.UTC().Format(timeFormat)
		}

		_, err := db.ExecContext(context.Background(), query,
			timestamp.UTC().Format(timeFormat),
			snap.AccountEmail,
			m.ModelID,
			m.DisplayLabel,
			remaining,
			m.IsExhausted,
			resetAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quota history row: %w", err)
		}
	}

	return nil
}

// GetModelHistory returns history points for one model, oldest first,
// covering the given trailing window.
func (db *DB) GetModelHistory(email, modelID string, window time.Duration) ([]models.HistoryPoint, error) {
	query := `
		SELECT id, timestamp, email, model_id, label, remaining_fraction, is_exhausted, reset_at
		FROM quota_history
		WHERE email = ? AND model_id = ? AND timestamp >= datetime('now', ?)
		ORDER BY timestamp ASC
	`

	modifier := fmt.Sprintf("-%d seconds", int64(window.Seconds()))
	rows, err := db.QueryContext(context.Background(), query, email, modelID, modifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanHistoryRows(rows)
}

// GetRecentHistory returns the most recent history points across all models,
// newest first.
func (db *DB) GetRecentHistory(email string, limit int) ([]models.HistoryPoint, error) {
	query := `
		SELECT id, timestamp, email, model_id, label, remaining_fraction, is_exhausted, reset_at
		FROM quota_history
		WHERE email = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanHistoryRows(rows)
}

// ListTrackedModels returns the distinct model IDs seen for an account.
func (db *DB) ListTrackedModels(email string) ([]string, error) {
	query := `
		SELECT DISTINCT model_id FROM quota_history
		WHERE email = ?
		ORDER BY model_id
	`

	rows, err := db.QueryContext(context.Background(), query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan model id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Prune deletes history rows older than the retention window and reports
// how many were removed.
func (db *DB) Prune(retention time.Duration) (int64, error) {
	modifier := fmt.Sprintf("-%d seconds", int64(retention.Seconds()))
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM quota_history WHERE timestamp < datetime('now', ?)", modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to prune quota history: %w", err)
	}

	return result.RowsAffected()
}

func scanHistoryRows(rows *sql.Rows) ([]models.HistoryPoint, error) {
	var points []models.HistoryPoint
	for rows.Next() {
		var (
			p         models.HistoryPoint
			tsStr     string
			remaining sql.NullFloat64
			resetStr  sql.NullString
		)

		err := rows.Scan(
			&p.ID,
			&tsStr,
			&p.Email,
			&p.ModelID,
			&p.Label,
			&remaining,
			&p.IsExhausted,
			&resetStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		if ts, err := time.Parse(timeFormat, tsStr); err == nil {
			p.Timestamp = ts.UTC()
		}
		if remaining.Valid {
			p.RemainingFraction = remaining.Float64
		}
		if resetStr.Valid {
			if reset, err := time.Parse(timeFormat, resetStr.String); err == nil {
				p.ResetAt = reset.UTC()
			}
		}

		points = append(points, p)
	}

	return points, rows.Err()
}
