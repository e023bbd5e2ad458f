package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/config"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/selection"
)

// Monday 2025-06-02 09:00 UTC.
var seeded = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *db.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "incubator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Selection.SettleDelay = time.Hour
	cfg.Selection.PersistDelay = time.Hour

	f := &fixture{store: store, now: seeded}
	f.svc, err = New(context.Background(), store, cfg, WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	return f
}

func rowID(t *testing.T, rows []db.BacteriaSelection, name string) string {
	t.Helper()
	for _, r := range rows {
		if r.BacteriaName == name {
			return r.ID
		}
	}
	t.Fatalf("no row for %s", name)
	return ""
}

func TestSeedStoresDueDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plans, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli", "listeria", "mystery"})
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.False(t, plans[2].Known)
	assert.Equal(t, 24, plans[2].DelayHours)

	rows, err := f.store.ListBacteriaSelections(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byName := map[string]db.BacteriaSelection{}
	for _, r := range rows {
		byName[r.BacteriaName] = r
	}
	lis := byName["Listeria"]
	assert.True(t, lis.ReadingDate.Equal(seeded.Add(48*time.Hour)))
	assert.Equal(t, "mercredi", lis.ReadingDay)
	assert.Equal(t, "2j", lis.Delay)
	assert.Equal(t, "mardi", byName["Escherichia coli"].ReadingDay)
	assert.Contains(t, byName, "mystery")

	_, err = f.svc.Seed(ctx, "F1", seeded, nil)
	assert.Error(t, err)
}

func TestReseedKeepsIdsAndCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli", "listeria"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	ecoli := rowID(t, rows, "Escherichia coli")
	lis := rowID(t, rows, "Listeria")

	f.now = seeded.Add(24 * time.Hour)
	_, err = f.svc.CompleteReading(ctx, ecoli, nil)
	require.NoError(t, err)

	later := seeded.Add(2 * time.Hour)
	_, err = f.svc.Seed(ctx, "F1", later, []string{"ecoli", "listeria"})
	require.NoError(t, err)

	rows, _ = f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 2)
	assert.Equal(t, lis, rowID(t, rows, "Listeria"))
	for _, r := range rows {
		switch r.BacteriaName {
		case "Escherichia coli":
			assert.Equal(t, reading.RecordedCompleted, r.Status)
			assert.True(t, r.SeededAt.Equal(seeded))
		case "Listeria":
			assert.True(t, r.SeededAt.Equal(later))
		}
	}
}

func TestStartAndCompleteReading(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"listeria"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	id := rows[0].ID

	// Tuesday: Listeria is due Wednesday
	f.now = seeded.Add(24 * time.Hour)
	_, err = f.svc.StartReading(ctx, id)
	assert.ErrorIs(t, err, ErrNotReady)

	// Wednesday 08:00, one hour before the exact due time, already ready by day
	f.now = seeded.Add(47 * time.Hour)
	row, err := f.svc.StartReading(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, reading.RecordedInProgress, row.Status)
	assert.Equal(t, reading.StatusInProgress, f.svc.ResolveStatus(row.Item()))

	row, err = f.svc.StartReading(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, reading.RecordedInProgress, row.Status)

	row, err = f.svc.CompleteReading(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, reading.StatusCompleted, f.svc.ResolveStatus(row.Item()))

	_, err = f.svc.CompleteReading(ctx, id, nil)
	require.NoError(t, err)
	_, err = f.svc.StartReading(ctx, id)
	assert.ErrorIs(t, err, reading.ErrInvalidTransition)
}

func TestSummaryAndCalendar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli", "listeria", "levures5j"})
	require.NoError(t, err)

	// Wednesday noon: ecoli overdue, listeria ready, levures pending
	f.now = seeded.Add(51 * time.Hour)
	sum, err := f.svc.Summary(ctx, db.ReadingFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Counts[reading.StatusOverdue])
	assert.Equal(t, 1, sum.Counts[reading.StatusReady])
	assert.Equal(t, 1, sum.Counts[reading.StatusPending])
	require.Len(t, sum.Overdue, 1)
	assert.Equal(t, "Escherichia coli", sum.Overdue[0].BacteriaName)
	require.Len(t, sum.DueToday, 1)
	assert.Equal(t, "Listeria", sum.DueToday[0].BacteriaName)

	items, err := f.svc.Items(ctx, db.ReadingFilter{FormID: "F1"})
	require.NoError(t, err)
	g := f.svc.GroupForCalendar(items, calendar.ViewWeek)
	assert.Len(t, g.Week[1].Entries, 1)
	assert.Len(t, g.Week[2].Entries, 1)
	assert.Len(t, g.Week[5].Entries, 1)

	u, ok := f.svc.Urgency(items[0])
	require.True(t, ok)
	assert.NotEmpty(t, u.Label)
}

func TestBackfillThroughService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.UpsertBacteriaSelections(ctx, "F1", []db.BacteriaSelection{
		{BacteriaName: "Listeria", SeededAt: seeded},
	}))
	n, err := f.svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCatalogEditsPersist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.svc.Catalog().SetDelay("ecoli", 30))
	require.NoError(t, f.svc.SaveCatalog(ctx))

	again, err := New(ctx, f.store, config.Default())
	require.NoError(t, err)
	d, err := again.Catalog().Get("ecoli")
	require.NoError(t, err)
	assert.Equal(t, 30, d.DelayHours)

	plans := again.ComputeSchedule([]string{"ecoli"}, seeded)
	assert.Equal(t, "1j6h", plans[0].DelayDisplay)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"listeria"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	lis := rows[0].ID

	cache := selection.NewDiskCache(t.TempDir())
	e := f.svc.Session("F1", cache)
	defer e.Close()

	changed, err := e.Pull(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	e.Flush()
	assert.Equal(t, []string{"listeria"}, e.Current())

	assert.True(t, e.Add("ecoli"))
	pushed, err := e.Push(ctx)
	require.NoError(t, err)
	assert.True(t, pushed)

	rows, err = f.store.ListBacteriaSelections(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, lis, rowID(t, rows, "Listeria"), "kept row keeps its id")
	assert.NotEmpty(t, rowID(t, rows, "Escherichia coli"))

	assert.True(t, e.Remove("listeria"))
	_, err = e.Push(ctx)
	require.NoError(t, err)
	rows, _ = f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 1)
	assert.Equal(t, "Escherichia coli", rows[0].BacteriaName)
}

func TestFindReading(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.UpsertBacteriaSelections(ctx, "F1", []db.BacteriaSelection{
		{ID: "abc-1", BacteriaName: "Listeria"},
		{ID: "abd-2", BacteriaName: "Escherichia coli"},
	}))

	row, err := f.svc.FindReading(ctx, "abc-1")
	require.NoError(t, err)
	assert.Equal(t, "Listeria", row.BacteriaName)

	row, err = f.svc.FindReading(ctx, "abd")
	require.NoError(t, err)
	assert.Equal(t, "abd-2", row.ID)

	_, err = f.svc.FindReading(ctx, "ab")
	assert.ErrorIs(t, err, ErrAmbiguous)
	_, err = f.svc.FindReading(ctx, "zz")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPushKeepsStartedAndCompletedReadings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli", "listeria", "coliformes"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")

	// Wednesday: ecoli overdue, coliformes due
	f.now = seeded.Add(48 * time.Hour)
	count := 40
	_, err = f.svc.CompleteReading(ctx, rowID(t, rows, "Escherichia coli"), &count)
	require.NoError(t, err)
	_, err = f.svc.StartReading(ctx, rowID(t, rows, "Coliformes totaux"))
	require.NoError(t, err)

	e := f.svc.Session("F1", selection.NewDiskCache(t.TempDir()))
	defer e.Close()
	e.Add("listeria")
	_, err = e.Push(ctx)
	require.ErrorIs(t, err, selection.ErrRemoteUnseen)
	rows, _ = f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 3, "an unpulled session writes nothing")

	_, err = e.Pull(ctx)
	require.NoError(t, err)
	e.Flush()
	require.True(t, e.Set([]string{"listeria"}))
	_, err = e.Push(ctx)
	require.NoError(t, err)

	rows, err = f.store.ListBacteriaSelections(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byName := map[string]db.BacteriaSelection{}
	for _, r := range rows {
		byName[r.BacteriaName] = r
	}
	ecoli := byName["Escherichia coli"]
	assert.Equal(t, reading.RecordedCompleted, ecoli.Status)
	require.NotNil(t, ecoli.Result)
	assert.Equal(t, 40, *ecoli.Result)
	assert.Equal(t, reading.RecordedInProgress, byName["Coliformes totaux"].Status)

	require.True(t, e.Remove("listeria"))
	_, err = e.Push(ctx)
	require.NoError(t, err)
	rows, _ = f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 2)
	assert.NotContains(t, []string{rows[0].BacteriaName, rows[1].BacteriaName}, "Listeria")
}

func TestRenamedBacteriumKeepsItsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"listeria"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 1)
	lis := rows[0].ID
	assert.Equal(t, "listeria", rows[0].BacteriumID)

	name := "Listeria monocytogenes"
	require.NoError(t, f.svc.Catalog().Update("listeria", catalog.Patch{Name: &name}))

	items, err := f.svc.Items(ctx, db.ReadingFilter{FormID: "F1"})
	require.NoError(t, err)
	assert.Equal(t, name, items[0].BacteriaName)

	e := f.svc.Session("F1", selection.NewDiskCache(t.TempDir()))
	defer e.Close()
	_, err = e.Pull(ctx)
	require.NoError(t, err)
	e.Flush()
	assert.Equal(t, []string{"listeria"}, e.Current())

	later := seeded.Add(time.Hour)
	_, err = f.svc.Seed(ctx, "F1", later, []string{"listeria"})
	require.NoError(t, err)
	rows, _ = f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 1)
	assert.Equal(t, lis, rows[0].ID)
	assert.Equal(t, name, rows[0].BacteriaName)
	assert.True(t, rows[0].SeededAt.Equal(later))
}

func TestRenamedBacteriumKeepsItsDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.UpsertBacteriaSelections(ctx, "F1", []db.BacteriaSelection{
		{ID: "r1", BacteriumID: "listeria", BacteriaName: "Listeria", SeededAt: seeded},
	}))
	name := "Listeria monocytogenes"
	require.NoError(t, f.svc.Catalog().Update("listeria", catalog.Patch{Name: &name}))

	items, err := f.svc.Items(ctx, db.ReadingFilter{})
	require.NoError(t, err)
	due, ok := items[0].Due(f.svc.Catalog().DelayFor)
	require.True(t, ok)
	assert.True(t, due.Equal(seeded.Add(48*time.Hour)))
}

func TestSeedAdoptsLegacyRowByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.UpsertBacteriaSelections(ctx, "F1", []db.BacteriaSelection{
		{ID: "old", BacteriaName: "Escherichia coli"},
	}))
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	require.Len(t, rows, 1)
	assert.Equal(t, "old", rows[0].ID)
	assert.Equal(t, "ecoli", rows[0].BacteriumID)
}

func TestCompleteReadingRecordsResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Seed(ctx, "F1", seeded, []string{"ecoli"})
	require.NoError(t, err)
	rows, _ := f.store.ListBacteriaSelections(ctx, "F1")
	f.now = seeded.Add(24 * time.Hour)

	count := 0
	row, err := f.svc.CompleteReading(ctx, rows[0].ID, &count)
	require.NoError(t, err)
	require.NotNil(t, row.Result)
	assert.Zero(t, *row.Result)

	bad := -3
	_, err = f.svc.CompleteReading(ctx, rows[0].ID, &bad)
	assert.ErrorIs(t, err, db.ErrInvalidResult)
}
