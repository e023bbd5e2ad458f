package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sample is one analysed product within a batch (form).
type Sample struct {
	ID        string
	BatchID   string
	Number    string
	Product   string
	Brand     string
	Site      string
	Status    string
	CreatedAt time.Time
}

// SampleFilter narrows ListSamples. Zero fields match everything.
type SampleFilter struct {
	BatchID string
	Site    string
	Limit   int
}

// AddSample inserts s, assigning ID and CreatedAt when empty.
func (s *Store) AddSample(ctx context.Context, sm *Sample) error {
	if strings.TrimSpace(sm.BatchID) == "" {
		return fmt.Errorf("sample: batch id is required")
	}
	if sm.ID == "" {
		sm.ID = uuid.NewString()
	}
	if sm.Status == "" {
		sm.Status = "draft"
	}
	if sm.CreatedAt.IsZero() {
		sm.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (id, batch_id, number, product, brand, site, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sm.ID, sm.BatchID, sm.Number, sm.Product, sm.Brand, sm.Site, sm.Status, FormatTimestamp(sm.CreatedAt))
	if err != nil {
		return fmt.Errorf("add sample: %w", err)
	}
	return nil
}

// ListSamples returns samples newest first.
func (s *Store) ListSamples(ctx context.Context, f SampleFilter) ([]Sample, error) {
	var where []string
	var args []any
	if f.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Site != "" {
		where = append(where, "site = ?")
		args = append(args, f.Site)
	}
	q := `SELECT id, batch_id, number, product, brand, site, status, created_at FROM samples`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, number"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		var created sql.NullString
		if err := rows.Scan(&sm.ID, &sm.BatchID, &sm.Number, &sm.Product, &sm.Brand, &sm.Site, &sm.Status, &created); err != nil {
			return nil, err
		}
		sm.CreatedAt = nullTime(created)
		out = append(out, sm)
	}
	return out, rows.Err()
}
