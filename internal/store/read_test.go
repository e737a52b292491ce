package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pigeon/internal/model"
)

func TestAllEvents_Empty(t *testing.T) {
	s := createTestStore(t)

	events, err := s.AllEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events, "want empty slice, not nil")
	assert.Empty(t, events)
}

func TestAllEvents_OrderedByTimestampDesc(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Inserted out of order on purpose.
	for _, e := range []model.Event{
		createTestEvent("mid", "m", 200),
		createTestEvent("old", "o", 100),
		createTestEvent("new", "n", 300),
	} {
		require.NoError(t, s.CreateOrReplace(ctx, e))
	}

	events, err := s.AllEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, eventIDs(events))
}

func TestAllEvents_TimestampTieBreaksOnID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOrReplaceBatch(ctx, []model.Event{
		createTestEvent("b", "x", 100),
		createTestEvent("a", "x", 100),
	}))

	events, err := s.AllEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, eventIDs(events))
}

func TestUnresolvedEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	resolved := createTestEvent("done", "r", 300)
	resolved.IsResolved = true
	require.NoError(t, s.CreateOrReplaceBatch(ctx, []model.Event{
		createTestEvent("open-old", "a", 100),
		resolved,
		createTestEvent("open-new", "b", 200),
	}))

	events, err := s.UnresolvedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"open-new", "open-old"}, eventIDs(events))
}

func TestSearch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	water := createTestEvent("1", "Water leak", 100)
	water.Description = "Clean water source reported contaminated."
	medical := createTestEvent("2", "Medical need", 200)
	medical.Description = "Injured civilian requires immediate transport."
	require.NoError(t, s.CreateOrReplaceBatch(ctx, []model.Event{water, medical}))

	tests := []struct {
		query string
		want  []string
	}{
		{"med", []string{"2"}},
		{"WATER", []string{"1"}},
		{"civilian", []string{"2"}},  // description match
		{"contaminated", []string{"1"}},
		{"fire", []string{}},
		{"", []string{"2", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			events, err := s.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eventIDs(events))
		})
	}
}

func TestSearch_LikeWildcardsAreLiteral(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOrReplaceBatch(ctx, []model.Event{
		createTestEvent("pct", "100% contaminated", 1),
		createTestEvent("plain", "contaminated", 2),
	}))

	events, err := s.Search(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"pct"}, eventIDs(events))
}

func TestEvent_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Event(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCountEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOrReplaceBatch(ctx, []model.Event{
		createTestEvent("a", "x", 1),
		createTestEvent("b", "y", 2),
	}))

	n, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
