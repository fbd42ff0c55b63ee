package remote

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/wingmate/wingmate/internal/clock"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (*Ledger, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagedomain.GenerationRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	return NewLedger(db, node, clk, zap.NewNop()), clk
}

func TestInsertAndCount(t *testing.T) {
	ledger, clk := setupLedger(t)
	ctx := context.Background()

	periodStart := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := ledger.Insert(ctx, "user-1", usagedomain.HistoryEntry{
			MatchName: "Alex",
			Mode:      usagedomain.ModeChaotic,
			Openers:   []usagedomain.Opener{{Type: "question", Emoji: "👀", Text: "hey"}},
			Timestamp: clk.Now().Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	require.NoError(t, ledger.Insert(ctx, "user-2", usagedomain.HistoryEntry{Mode: usagedomain.ModeFlirty}))

	count, err := ledger.CountSince(ctx, "user-1", periodStart)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	all, err := ledger.CountAll(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, all)
}

func TestCountSinceExcludesOlderPeriods(t *testing.T) {
	ledger, clk := setupLedger(t)
	ctx := context.Background()

	old := clk.Now().Add(-72 * time.Hour)
	require.NoError(t, ledger.Insert(ctx, "user-1", usagedomain.HistoryEntry{Mode: usagedomain.ModePoetic, Timestamp: old}))
	require.NoError(t, ledger.Insert(ctx, "user-1", usagedomain.HistoryEntry{Mode: usagedomain.ModePoetic, Timestamp: clk.Now()}))

	count, err := ledger.CountSince(ctx, "user-1", clk.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	all, err := ledger.CountAll(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, all)
}

func TestListMostRecentFirstRoundTrip(t *testing.T) {
	ledger, clk := setupLedger(t)
	ctx := context.Background()

	analysis := &usagedomain.Analysis{Vibe: "golden retriever energy", Interests: []string{"climbing"}}
	for i := 0; i < 4; i++ {
		entry := usagedomain.HistoryEntry{
			MatchName: "Sam",
			Mode:      usagedomain.ModeMysterious,
			Openers:   []usagedomain.Opener{{Type: "tease", Emoji: "🌙", Text: "so mysterious"}},
			Timestamp: clk.Now().Add(time.Duration(i) * time.Hour),
		}
		if i == 3 {
			entry.Analysis = analysis
		}
		require.NoError(t, ledger.Insert(ctx, "user-1", entry))
	}

	entries, err := ledger.List(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
	require.NotNil(t, entries[0].Analysis)
	require.Equal(t, "golden retriever energy", entries[0].Analysis.Vibe)
	require.Equal(t, []usagedomain.Opener{{Type: "tease", Emoji: "🌙", Text: "so mysterious"}}, entries[0].Openers)
	require.NotEmpty(t, entries[0].ID)
}

func TestInsertDefaultsCreatedAtToNow(t *testing.T) {
	ledger, clk := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Insert(ctx, "user-1", usagedomain.HistoryEntry{Mode: usagedomain.ModeDadJoke}))

	entries, err := ledger.List(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.WithinDuration(t, clk.Now(), entries[0].Timestamp, time.Second)
}
