package local

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/quota"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
)

func setupLedger(t *testing.T) (*Ledger, *clock.FakeClock, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFakeClock(time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	ledger := NewLedger(client, quota.NewSchedule(2), clk, 50, zap.NewNop())
	return ledger, clk, srv
}

func TestReadMissingReturnsFreshRecord(t *testing.T) {
	ledger, _, _ := setupLedger(t)

	record := ledger.Read(context.Background(), "device-1")
	require.Zero(t, record.Count)
	require.Zero(t, record.Total)
	require.Empty(t, record.History)
	require.Equal(t, "2026-03-05", record.Period)
}

func TestReadCorruptReturnsFreshRecord(t *testing.T) {
	ledger, _, srv := setupLedger(t)
	srv.Set("wingmate:usage:device-1", "{not json")

	record := ledger.Read(context.Background(), "device-1")
	require.Zero(t, record.Count)
	require.Equal(t, "2026-03-05", record.Period)
}

func TestRecordGenerationIncrements(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		record, err := ledger.RecordGeneration(ctx, "device-1")
		require.NoError(t, err)
		require.Equal(t, i, record.Count)
		require.Equal(t, i, record.Total)
	}
}

func TestRecordGenerationResetsOnPeriodChange(t *testing.T) {
	ledger, clk, _ := setupLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := ledger.RecordGeneration(ctx, "device-1")
		require.NoError(t, err)
	}

	clk.Advance(48 * time.Hour)

	record, err := ledger.RecordGeneration(ctx, "device-1")
	require.NoError(t, err)
	require.Equal(t, 1, record.Count, "count resets before incrementing")
	require.Equal(t, 6, record.Total, "total never resets")
	require.Equal(t, "2026-03-07", record.Period)
}

func TestFreeCountTreatsStalePeriodAsReset(t *testing.T) {
	ledger, clk, _ := setupLedger(t)
	ctx := context.Background()

	_, err := ledger.RecordGeneration(ctx, "device-1")
	require.NoError(t, err)
	require.Equal(t, 1, ledger.FreeCount(ctx, "device-1", "2026-03-05"))

	clk.Advance(48 * time.Hour)
	require.Zero(t, ledger.FreeCount(ctx, "device-1", "2026-03-07"))
}

func TestAppendHistoryBoundedMostRecentFirst(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		err := ledger.AppendHistory(ctx, "device-1", usagedomain.HistoryEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			MatchName: "Sam",
			Mode:      usagedomain.ModeFlirty,
			Timestamp: time.Date(2026, time.March, 5, 10, 0, i, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	record := ledger.Read(ctx, "device-1")
	require.Len(t, record.History, 50)
	require.Equal(t, "entry-59", record.History[0].ID)
	require.Equal(t, "entry-10", record.History[49].ID)
}
