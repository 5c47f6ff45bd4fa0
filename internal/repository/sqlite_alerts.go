package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

func (s *SQLiteDB) CreateAlert(ctx context.Context, a *models.Alert) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("error marshaling alert metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, alert_type, severity, latitude, longitude, title, message, is_active, sent_at, expires_at, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Category), string(a.Severity), a.Latitude, a.Longitude,
		a.Title, a.Message, a.IsActive, timeOrNil(a.SentAt), timeOrNil(a.ExpiresAt),
		string(metadata), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, alert_type, severity, latitude, longitude, title, message, is_active, sent_at, expires_at, metadata, created_at
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting alert: %w", err)
	}
	return a, nil
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query := `
		SELECT id, alert_type, severity, latitude, longitude, title, message, is_active, sent_at, expires_at, metadata, created_at
		FROM alerts WHERE 1=1`
	var args []any

	if filter.ActiveOnly {
		query += " AND is_active = 1 AND (expires_at IS NULL OR expires_at > ?)"
		args = append(args, filter.Now)
	}
	if filter.Category != nil {
		query += " AND alert_type = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Severity != nil {
		query += " AND severity = ?"
		args = append(args, string(*filter.Severity))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) MarkSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET sent_at = ? WHERE id = ? AND sent_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("error marking alert sent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteDB) DeactivateAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deactivating alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteDB) CountActiveBySeverity(ctx context.Context, now time.Time) (map[models.Severity]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM alerts
		WHERE is_active = 1 AND (expires_at IS NULL OR expires_at > ?)
		GROUP BY severity`, now)
	if err != nil {
		return nil, fmt.Errorf("error counting alerts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Severity]int)
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("error scanning alert count: %w", err)
		}
		counts[models.Severity(sev)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var category, severity string
	var sentAt, expiresAt sql.NullTime
	var metadata sql.NullString

	if err := row.Scan(&a.ID, &category, &severity, &a.Latitude, &a.Longitude,
		&a.Title, &a.Message, &a.IsActive, &sentAt, &expiresAt, &metadata, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Category = models.HazardCategory(category)
	a.Severity = models.Severity(severity)
	if sentAt.Valid {
		t := sentAt.Time
		a.SentAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &a.Metadata); err != nil {
			return nil, fmt.Errorf("error unmarshaling alert metadata: %w", err)
		}
	}
	return &a, nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
