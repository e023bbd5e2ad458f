package db

import (
	"context"
	"fmt"

	"github.com/ramanasai/incubator/internal/catalog"
)

// LoadCatalog returns the saved bacterium definitions in their saved order.
// An empty table returns no definitions and no error.
func (s *Store) LoadCatalog(ctx context.Context) ([]catalog.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, delay_hours, color, enabled, description
		FROM bacteria_settings
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Definition
	for rows.Next() {
		var d catalog.Definition
		if err := rows.Scan(&d.ID, &d.Name, &d.DelayHours, &d.Color, &d.Enabled, &d.Description); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveCatalog replaces the saved definitions with defs.
func (s *Store) SaveCatalog(ctx context.Context, defs []catalog.Definition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bacteria_settings`); err != nil {
		return err
	}
	now := FormatTimestamp(s.now())
	for i, d := range defs {
		if d.DelayHours <= 0 {
			return fmt.Errorf("bacterium %s: %w", d.ID, catalog.ErrInvalidDelay)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bacteria_settings (id, position, name, delay_hours, color, enabled, description, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, d.ID, i, d.Name, d.DelayHours, d.Color, d.Enabled, d.Description, now); err != nil {
			return fmt.Errorf("save bacterium %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}
