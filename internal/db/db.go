// Package db is the SQLite store for samples, bacteria selections and
// catalog settings.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidResult rejects negative counts and results on readings that
	// are not being completed.
	ErrInvalidResult = errors.New("invalid reading result")
)

// Store wraps the database handle. Methods are safe for concurrent use;
// SQLite serializes writes behind busy_timeout.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the clock used for created_at and modified_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path,
	)

	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := migrate(dbh); err != nil {
		return nil, errors.Join(err, dbh.Close())
	}
	if err := ensureSelectionColumns(dbh); err != nil {
		return nil, errors.Join(err, dbh.Close())
	}

	s := &Store{db: dbh, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log.Debug("store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(dbh *sql.DB) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := dbh.Exec(string(b)); err != nil {
		return errors.Join(fmt.Errorf("schema apply failed"), err)
	}
	return nil
}

// selectionUpgrades are columns added to bacteria_selections after the first
// release, each with the statement that fills it for existing rows.
var selectionUpgrades = []struct {
	name, ddl, backfill string
}{
	// older databases recorded the seeding time only as created_at
	{"seeded_at", `ALTER TABLE bacteria_selections ADD COLUMN seeded_at TEXT`,
		`UPDATE bacteria_selections SET seeded_at = created_at WHERE seeded_at IS NULL`},
	// empty for legacy rows, which are matched by name
	{"bacterium_id", `ALTER TABLE bacteria_selections ADD COLUMN bacterium_id TEXT NOT NULL DEFAULT ''`, ""},
	{"result", `ALTER TABLE bacteria_selections ADD COLUMN result INTEGER`, ""},
}

// ensureSelectionColumns adds columns introduced after the first release.
func ensureSelectionColumns(dbh *sql.DB) error {
	have := map[string]bool{}

	rows, err := dbh.Query(`PRAGMA table_info(bacteria_selections)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		have[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := dbh.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range selectionUpgrades {
		if have[u.name] {
			continue
		}
		if _, err := tx.Exec(u.ddl); err != nil {
			return fmt.Errorf("add %s: %w", u.name, err)
		}
		if u.backfill == "" {
			continue
		}
		if _, err := tx.Exec(u.backfill); err != nil {
			return fmt.Errorf("backfill %s: %w", u.name, err)
		}
	}
	return tx.Commit()
}
