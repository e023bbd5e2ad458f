// Package app ties the catalog, the schedule and status rules, calendar
// grouping and selection sessions to a store. It is what the CLI and the
// board talk to.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/config"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/schedule"
	"github.com/ramanasai/incubator/internal/selection"
)

var (
	// ErrNotReady is returned when a reading is started before its due day.
	ErrNotReady  = errors.New("reading is not due yet")
	ErrAmbiguous = errors.New("reading id prefix is ambiguous")
)

// Store is the persistence the service needs. *db.Store implements it.
type Store interface {
	catalog.Store
	ListBacteriaSelections(ctx context.Context, formID string) ([]db.BacteriaSelection, error)
	UpsertBacteriaSelections(ctx context.Context, formID string, rows []db.BacteriaSelection) error
	ListSamples(ctx context.Context, f db.SampleFilter) ([]db.Sample, error)
	AddSample(ctx context.Context, s *db.Sample) error
	ListReadings(ctx context.Context, f db.ReadingFilter) ([]db.BacteriaSelection, error)
	GetSelection(ctx context.Context, id string) (db.BacteriaSelection, error)
	SetStatus(ctx context.Context, id string, to reading.Recorded, result *int) (db.BacteriaSelection, error)
	BackfillDueDates(ctx context.Context, delay reading.DelayLookup, loc *time.Location) (int, error)
}

type Service struct {
	store   Store
	catalog *catalog.Catalog
	cfg     config.Config
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock fixes the service clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New loads the catalog from store and returns a ready service.
func New(ctx context.Context, store Store, cfg config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		store: store,
		cfg:   cfg,
		loc:   cfg.Location(),
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	c, err := catalog.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	s.catalog = c
	return s, nil
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) Location() *time.Location { return s.loc }

// Now is the service clock in the configured location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// SaveCatalog persists edits made through Catalog().
func (s *Service) SaveCatalog(ctx context.Context) error {
	if err := catalog.Save(ctx, s.store, s.catalog); err != nil {
		return err
	}
	s.log.Info("catalog saved", zap.Int("bacteria", len(s.catalog.All())))
	return nil
}

func (s *Service) delay(key string) int { return s.catalog.DelayFor(key) }

// ResolveStatus is the display status of it right now.
func (s *Service) ResolveStatus(it reading.Item) reading.Status {
	return reading.Resolve(it, s.delay, s.Now())
}

// Urgency is the hour-level countdown of it right now.
func (s *Service) Urgency(it reading.Item) (schedule.Remaining, bool) {
	return reading.Urgency(it, s.delay, s.Now())
}

// ComputeSchedule plans the readings of ids seeded at seeded.
func (s *Service) ComputeSchedule(ids []string, seeded time.Time) []schedule.Schedule {
	return schedule.ForIDs(s.catalog, ids, seeded, s.Now(), s.cfg.UrgentWithin())
}

func (s *Service) GroupForCalendar(items []reading.Item, view calendar.View) calendar.Grouped {
	return calendar.Group(items, view, s.delay, s.Now())
}

func (s *Service) ListReadings(ctx context.Context, f db.ReadingFilter) ([]db.BacteriaSelection, error) {
	return s.store.ListReadings(ctx, f)
}

// Items lists stored readings as status-resolver items, named as the
// catalog currently names them.
func (s *Service) Items(ctx context.Context, f db.ReadingFilter) ([]reading.Item, error) {
	rows, err := s.store.ListReadings(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]reading.Item, len(rows))
	for i, r := range rows {
		out[i] = r.Item()
		if d, ok := s.catalog.Lookup(r.BacteriumID); ok {
			out[i].BacteriaName = d.Name
		}
	}
	return out, nil
}

// Seed records that the bacteria ids of batchID were seeded at seeded and
// stores their due dates. Rows already present, matched by catalog id, keep
// their id and status; completed readings are left as they are. Other rows
// of the batch are kept.
func (s *Service) Seed(ctx context.Context, batchID string, seeded time.Time, ids []string) ([]schedule.Schedule, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("seed %s: no bacteria selected", batchID)
	}
	existing, err := s.store.ListBacteriaSelections(ctx, batchID)
	if err != nil {
		return nil, err
	}
	plans := s.ComputeSchedule(ids, seeded)

	byKey := make(map[string]int, len(existing))
	for i, r := range existing {
		byKey[s.bacteriumKey(r)] = i
	}
	rows := append([]db.BacteriaSelection(nil), existing...)
	for _, p := range plans {
		row := db.BacteriaSelection{Status: reading.RecordedPending}
		i, ok := byKey[p.BacteriumID]
		if ok {
			row = rows[i]
			if row.Status == reading.RecordedCompleted {
				continue
			}
		}
		row.BacteriaName = p.Name
		row.BacteriumID = ""
		if p.Known {
			row.BacteriumID = p.BacteriumID
		}
		row.Delay = p.DelayDisplay
		row.SeededAt = p.SeededAt
		row.ReadingDate = p.DueAt
		row.ReadingDay = schedule.WeekdayName(p.DueAt.In(s.loc).Weekday())
		if ok {
			rows[i] = row
		} else {
			byKey[p.BacteriumID] = len(rows)
			rows = append(rows, row)
		}
		if !p.Known {
			s.log.Warn("unknown bacterium seeded with fallback delay", zap.String("id", p.BacteriumID))
		}
	}
	if err := s.store.UpsertBacteriaSelections(ctx, batchID, rows); err != nil {
		return nil, err
	}
	s.log.Info("batch seeded", zap.String("batch", batchID), zap.Time("seeded_at", seeded), zap.Int("bacteria", len(plans)))
	return plans, nil
}

// FindReading resolves a full reading id or a unique prefix of one.
func (s *Service) FindReading(ctx context.Context, ref string) (db.BacteriaSelection, error) {
	ref = strings.TrimSpace(ref)
	row, err := s.store.GetSelection(ctx, ref)
	if err == nil || !errors.Is(err, db.ErrNotFound) || ref == "" {
		return row, err
	}
	rows, lerr := s.store.ListReadings(ctx, db.ReadingFilter{})
	if lerr != nil {
		return row, lerr
	}
	var match []db.BacteriaSelection
	for _, r := range rows {
		if strings.HasPrefix(r.ID, ref) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return row, err
	case 1:
		return match[0], nil
	default:
		return row, fmt.Errorf("%s matches %d readings: %w", ref, len(match), ErrAmbiguous)
	}
}

// StartReading marks a due reading as in progress.
func (s *Service) StartReading(ctx context.Context, id string) (db.BacteriaSelection, error) {
	row, err := s.store.GetSelection(ctx, id)
	if err != nil {
		return row, err
	}
	st := s.ResolveStatus(row.Item())
	switch {
	case st == reading.StatusInProgress:
		return row, nil
	case st == reading.StatusPending:
		return row, fmt.Errorf("reading %s: %w", id, ErrNotReady)
	}
	return s.store.SetStatus(ctx, id, reading.RecordedInProgress, nil)
}

// CompleteReading closes a reading, recording result when given. Completing
// twice is not an error; a second result replaces the first.
func (s *Service) CompleteReading(ctx context.Context, id string, result *int) (db.BacteriaSelection, error) {
	return s.store.SetStatus(ctx, id, reading.RecordedCompleted, result)
}

// Backfill fills missing due dates from seeding plus catalog delay.
func (s *Service) Backfill(ctx context.Context) (int, error) {
	return s.store.BackfillDueDates(ctx, s.delay, s.loc)
}

func (s *Service) AddSample(ctx context.Context, sm *db.Sample) error {
	return s.store.AddSample(ctx, sm)
}

func (s *Service) ListSamples(ctx context.Context, f db.SampleFilter) ([]db.Sample, error) {
	return s.store.ListSamples(ctx, f)
}

// Summary is the state of every reading at one instant.
type Summary struct {
	At       time.Time      `json:"at"`
	Counts   reading.Counts `json:"counts"`
	DueToday []reading.Item `json:"due_today"`
	Overdue  []reading.Item `json:"overdue"`
}

// Summary tallies readings matching f and lists the actionable ones,
// earliest due first.
func (s *Service) Summary(ctx context.Context, f db.ReadingFilter) (Summary, error) {
	items, err := s.Items(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	now := s.Now()
	sum := Summary{At: now, Counts: reading.Count(items, s.delay, now)}
	for _, it := range items {
		switch reading.Resolve(it, s.delay, now) {
		case reading.StatusReady:
			sum.DueToday = append(sum.DueToday, it)
		case reading.StatusOverdue:
			sum.Overdue = append(sum.Overdue, it)
		}
	}
	s.sortByDue(sum.DueToday)
	s.sortByDue(sum.Overdue)
	return sum, nil
}

func (s *Service) sortByDue(items []reading.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		di, _ := items[i].Due(s.delay)
		dj, _ := items[j].Due(s.delay)
		return di.Before(dj)
	})
}

// Session opens a selection editing session for batchID backed by cache,
// with the store as its remote.
func (s *Service) Session(batchID string, cache selection.Cache) *selection.Engine {
	return selection.Open(batchID, cache, storeRemote{s}, selection.Options{
		SettleDelay:  s.cfg.Selection.SettleDelay,
		PersistDelay: s.cfg.Selection.PersistDelay,
		Logger:       s.log,
	})
}
