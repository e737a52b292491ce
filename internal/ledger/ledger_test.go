package ledger

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pigeon/internal/bundle"
	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/filter"
	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/seed"
	"github.com/roach88/pigeon/internal/store"
	"github.com/roach88/pigeon/internal/testutil"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store, *clock.FakeClock) {
	t.Helper()
	st := testutil.OpenStore(t)
	fc := clock.Fake(testutil.Epoch)
	g, err := seed.New(seed.DefaultConfig(), seed.WithClock(fc), seed.WithSeed([32]byte{7}))
	require.NoError(t, err)
	l, err := New(st, WithClock(fc), WithSeeder(g))
	require.NoError(t, err)
	return l, st, fc
}

func next(t *testing.T, f *Feed) []model.Event {
	t.Helper()
	select {
	case events, ok := <-f.C:
		require.True(t, ok, "feed closed unexpectedly")
		return events
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for feed")
	}
	return nil
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	e, err := l.Create(ctx, "NODE-ME", Draft{
		EventType:   model.EventWater,
		Title:       "Pipe burst",
		Description: "Main street",
		Latitude:    33.9,
		Longitude:   35.5,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "NODE-ME", e.CreatorDeviceID)
	assert.Equal(t, clock.Millis(testutil.Epoch), e.Timestamp)
	assert.False(t, e.IsResolved)
	assert.Equal(t, DefaultTTL.Milliseconds(), e.TTL)

	stored, err := st.Event(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, e, stored)
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.Create(context.Background(), "n", Draft{EventType: "FLOOD", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestCreate_StoresDraftAsGiven(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	e, err := l.Create(ctx, "NODE-X", Draft{EventType: model.EventSOS, Title: "", Latitude: 999, Longitude: -500})
	require.NoError(t, err)

	stored, err := st.Event(ctx, e.EventID)
	require.NoError(t, err)
	assert.Empty(t, stored.Title)
	assert.Equal(t, 999.0, stored.Latitude)
	assert.Equal(t, -500.0, stored.Longitude)
}

func TestResolve(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E1", "a", 100)))
	require.NoError(t, l.Resolve(ctx, "E1"))
	require.NoError(t, l.Resolve(ctx, "E1"), "resolving twice is idempotent")

	e, err := l.Get(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, e.IsResolved)

	assert.ErrorIs(t, l.Resolve(ctx, "missing"), store.ErrNotFound)
}

func TestSearch_TrimsAndBlankReturnsAll(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E1", "Water leak", 100)))
	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E2", "Fire", 200)))

	got, err := l.Search(ctx, "  water ")
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, testutil.EventIDs(got))

	got, err = l.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"E2", "E1"}, testutil.EventIDs(got))
}

func TestEvents_Filtered(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	resolved := testutil.Event("E1", "Water leak", 100)
	resolved.IsResolved = true
	require.NoError(t, st.CreateOrReplace(ctx, resolved))
	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E2", "Water tank", 200)))
	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E3", "Fire", 300)))

	tests := []struct {
		mode  filter.Mode
		query string
		want  []string
	}{
		{filter.ModeAll, "", []string{"E3", "E2", "E1"}},
		{filter.ModeUnresolved, "", []string{"E3", "E2"}},
		{filter.ModeUnresolved, "water", []string{"E2"}},
		{filter.ModeNearby, "WATER", []string{"E2", "E1"}},
	}
	for _, tt := range tests {
		got, err := l.Events(ctx, tt.mode, tt.query)
		require.NoError(t, err)
		assert.Equal(t, tt.want, testutil.EventIDs(got), "mode=%s query=%q", tt.mode, tt.query)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	n, err := l.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	n, err = l.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := st.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, count)
}

func TestSeed_SkipsNonEmptyLedger(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E1", "mine", 100)))
	n, err := l.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := st.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearAll_KeepsIdentity(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUser(ctx, model.User{NodeName: "NODE-X"}))
	_, err := l.Seed(ctx)
	require.NoError(t, err)

	require.NoError(t, l.ClearAll(ctx))

	events, err := l.Events(ctx, filter.ModeAll, "")
	require.NoError(t, err)
	assert.Empty(t, events)

	u, err := st.UserSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "NODE-X", u.NodeName)

	n, err := l.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, n, "cleared ledger can be seeded again")
}

func TestWatch_FollowsWritesAndInputs(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E1", "Water leak", 100)))

	v := filter.NewView(filter.ModeAll, "")
	feed := l.Watch(ctx, v)
	assert.Equal(t, []string{"E1"}, testutil.EventIDs(next(t, feed)))

	require.NoError(t, st.CreateOrReplace(ctx, testutil.Event("E2", "Fire", 200)))
	assert.Equal(t, []string{"E2", "E1"}, testutil.EventIDs(next(t, feed)))

	v.SetQuery("fire")
	assert.Equal(t, []string{"E2"}, testutil.EventIDs(next(t, feed)))

	require.NoError(t, l.Resolve(ctx, "E2"))
	assert.Equal(t, []string{"E2"}, testutil.EventIDs(next(t, feed)))

	v.SetMode(filter.ModeUnresolved)
	assert.Empty(t, next(t, feed))

	cancel()
	for range feed.C {
	}
	assert.NoError(t, feed.Err())
}

func TestExportImport(t *testing.T) {
	src, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := src.Seed(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf, "NODE-SRC")
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	dst, dstStore, _ := newTestLedger(t)
	require.NoError(t, dstStore.CreateOrReplace(ctx, testutil.Event("LOCAL", "local only", 1)))

	imported, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 15, imported)

	want, err := src.Events(ctx, filter.ModeAll, "")
	require.NoError(t, err)
	got, err := dst.Events(ctx, filter.ModeAll, "")
	require.NoError(t, err)
	require.Len(t, got, 16)
	assert.Equal(t, want, got[:15])

	again, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 15, again)
	got, err = dst.Events(ctx, filter.ModeAll, "")
	require.NoError(t, err)
	assert.Len(t, got, 16, "re-import deduplicates by id")
}

func TestExport_HeaderUsesClock(t *testing.T) {
	l, _, fc := newTestLedger(t)
	fc.Advance(time.Hour)

	var buf bytes.Buffer
	_, err := l.Export(context.Background(), &buf, "NODE-A")
	require.NoError(t, err)

	b, err := bundle.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "NODE-A", b.Origin)
	assert.Equal(t, clock.Millis(testutil.Epoch.Add(time.Hour)), b.CreatedAt)
	assert.Empty(t, b.Events)
}

func TestImport_RejectsEventWithoutID(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, bundle.Write(&buf, bundle.Bundle{
		Events: []model.Event{testutil.Event("ok", "fine", 1), {Title: "no id"}},
	}))

	_, err := l.Import(ctx, &buf)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	count, err := st.CountEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
