package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/schedule"
)

// BacteriaSelection is one bacterium chosen for one form (batch).
type BacteriaSelection struct {
	ID           string
	FormID       string
	BacteriaName string
	Delay        string
	ReadingDay   string
	Status       reading.Recorded
	SeededAt     time.Time
	ReadingDate  time.Time
	CreatedAt    time.Time
	ModifiedAt   time.Time
	// BacteriumID is the catalog id; empty on rows written before it was stored.
	BacteriumID  string
	// Result is the count recorded when the reading was completed.
	Result       *int
}

// Item is the status-resolver view of the row.
func (b BacteriaSelection) Item() reading.Item {
	return reading.Item{
		ID:           b.ID,
		FormID:       b.FormID,
		BacteriumID:  b.BacteriumID,
		BacteriaName: b.BacteriaName,
		Delay:        b.Delay,
		Recorded:     b.Status,
		SeededAt:     b.SeededAt,
		DueAt:        b.ReadingDate,
	}
}

// ReadingFilter narrows ListReadings. Zero fields match everything.
type ReadingFilter struct {
	FormID   string
	Bacteria string
	Statuses []reading.Recorded
}

const selectionColumns = `id, form_id, bacteria_name, bacteria_delay, reading_day, status, seeded_at, reading_date, created_at, modified_at, bacterium_id, result`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSelection(r rowScanner) (BacteriaSelection, error) {
	var b BacteriaSelection
	var status string
	var seeded, readingDate, created, modified sql.NullString
	var result sql.NullInt64
	if err := r.Scan(&b.ID, &b.FormID, &b.BacteriaName, &b.Delay, &b.ReadingDay, &status,
		&seeded, &readingDate, &created, &modified, &b.BacteriumID, &result); err != nil {
		return b, err
	}
	if result.Valid {
		n := int(result.Int64)
		b.Result = &n
	}
	b.Status = reading.Recorded(status)
	b.SeededAt = nullTime(seeded)
	b.ReadingDate = nullTime(readingDate)
	b.CreatedAt = nullTime(created)
	b.ModifiedAt = nullTime(modified)
	return b, nil
}

func (s *Store) querySelections(ctx context.Context, query string, args ...any) ([]BacteriaSelection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacteriaSelection
	for rows.Next() {
		b, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBacteriaSelections returns the rows of one form in creation order.
func (s *Store) ListBacteriaSelections(ctx context.Context, formID string) ([]BacteriaSelection, error) {
	out, err := s.querySelections(ctx,
		`SELECT `+selectionColumns+` FROM bacteria_selections WHERE form_id = ? ORDER BY created_at, bacteria_name`,
		formID)
	if err != nil {
		return nil, fmt.Errorf("list selections %s: %w", formID, err)
	}
	return out, nil
}

// UpsertBacteriaSelections replaces every row of formID with rows, in one
// transaction. Rows without an id get a new one; CreatedAt is kept when set.
func (s *Store) UpsertBacteriaSelections(ctx context.Context, formID string, rows []BacteriaSelection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bacteria_selections WHERE form_id = ?`, formID); err != nil {
		return fmt.Errorf("clear selections %s: %w", formID, err)
	}

	now := s.now()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bacteria_selections (`+selectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Status == "" {
			r.Status = reading.RecordedPending
		}
		if !r.Status.Valid() {
			return fmt.Errorf("selection %s: unknown status %q", r.BacteriaName, r.Status)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, formID, r.BacteriaName, r.Delay, r.ReadingDay, string(r.Status),
			FormatTimestamp(r.SeededAt), FormatTimestamp(r.ReadingDate),
			FormatTimestamp(r.CreatedAt), FormatTimestamp(now),
			r.BacteriumID, nullInt(r.Result),
		)
		if err != nil {
			return fmt.Errorf("insert selection %s: %w", r.BacteriaName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("selections replaced", zap.String("form", formID), zap.Int("rows", len(rows)))
	return nil
}

// GetSelection returns one row by id.
func (s *Store) GetSelection(ctx context.Context, id string) (BacteriaSelection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectionColumns+` FROM bacteria_selections WHERE id = ?`, id)
	b, err := scanSelection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("selection %s: %w", id, ErrNotFound)
	}
	return b, err
}

// ListReadings returns rows across forms matching f, oldest seeding first.
func (s *Store) ListReadings(ctx context.Context, f ReadingFilter) ([]BacteriaSelection, error) {
	var where []string
	var args []any
	if f.FormID != "" {
		where = append(where, "form_id = ?")
		args = append(args, f.FormID)
	}
	if f.Bacteria != "" {
		where = append(where, "bacteria_name LIKE ?")
		args = append(args, "%"+f.Bacteria+"%")
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(marks, ",")+")")
	}

	q := `SELECT ` + selectionColumns + ` FROM bacteria_selections`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY COALESCE(seeded_at, created_at), form_id, bacteria_name"

	out, err := s.querySelections(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

// SetStatus records a new status for one reading. A completed reading is
// never moved back; that attempt returns reading.ErrInvalidTransition.
// result, when set, is stored with a completion and must not be negative.
func (s *Store) SetStatus(ctx context.Context, id string, to reading.Recorded, result *int) (BacteriaSelection, error) {
	if result != nil && (to != reading.RecordedCompleted || *result < 0) {
		return BacteriaSelection{}, fmt.Errorf("selection %s: result %d with status %s: %w", id, *result, to, ErrInvalidResult)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BacteriaSelection{}, err
	}
	defer func() { _ = tx.Rollback() }()

	b, err := scanSelection(tx.QueryRowContext(ctx, `SELECT `+selectionColumns+` FROM bacteria_selections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("selection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return b, err
	}
	if err := reading.CheckTransition(b.Status, to); err != nil {
		return b, fmt.Errorf("selection %s: %w", id, err)
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE bacteria_selections SET status = ?, result = COALESCE(?, result), modified_at = ? WHERE id = ?`,
		string(to), nullInt(result), FormatTimestamp(now), id,
	); err != nil {
		return b, err
	}
	if err := tx.Commit(); err != nil {
		return b, err
	}
	s.log.Info("reading status changed", zap.String("id", id), zap.String("from", string(b.Status)), zap.String("to", string(to)))
	b.Status = to
	b.ModifiedAt = now
	if result != nil {
		b.Result = result
	}
	return b, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// BackfillDueDates fills reading_date and reading_day for seeded rows that
// lack them, from seeding plus the bacterium delay. It returns the number of
// rows updated.
func (s *Store) BackfillDueDates(ctx context.Context, delay reading.DelayLookup, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.Local
	}
	rows, err := s.querySelections(ctx,
		`SELECT `+selectionColumns+` FROM bacteria_selections
		 WHERE (reading_date IS NULL OR reading_date = '') AND seeded_at IS NOT NULL AND seeded_at != ''`)
	if err != nil {
		return 0, fmt.Errorf("scan missing due dates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	n := 0
	for _, b := range rows {
		due, ok := b.Item().Due(delay)
		if !ok {
			continue
		}
		day := schedule.WeekdayName(due.In(loc).Weekday())
		if _, err := tx.ExecContext(ctx,
			`UPDATE bacteria_selections SET reading_date = ?, reading_day = ?, modified_at = ? WHERE id = ?`,
			FormatTimestamp(due), day, FormatTimestamp(s.now()), b.ID,
		); err != nil {
			return 0, fmt.Errorf("backfill %s: %w", b.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("due dates backfilled", zap.Int("rows", n))
	}
	return n, nil
}
