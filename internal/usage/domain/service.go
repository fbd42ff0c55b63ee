package domain

import (
	"context"
	"time"

	"github.com/wingmate/wingmate/internal/identity"
)

// Service reconciles the local and remote usage ledgers. The remote ledger
// is authoritative for signed-in users, the local one for anonymous
// devices; the local ledger doubles as the fallback when the remote store
// is unreachable.
type Service interface {
	// RemainingFree returns the free generations left in the current
	// cooldown period. Never negative.
	RemainingFree(ctx context.Context, id identity.Identity) int
	// NextReset returns when the current cooldown period ends.
	NextReset() time.Time
	// RecordConsumption counts one free generation optimistically: the
	// local ledger is incremented immediately and the cached remote
	// count is bumped so rapid follow-up reads see the debit. The
	// durable remote row rides on SaveHistory.
	RecordConsumption(ctx context.Context, id identity.Identity)
	// SaveHistory stores the entry locally and, for signed-in users,
	// mirrors it to the remote store best-effort.
	SaveHistory(ctx context.Context, id identity.Identity, entry HistoryEntry)
	// History returns up to limit entries, most recent first.
	History(ctx context.Context, id identity.Identity, limit int) []HistoryEntry
	// TotalCount returns the lifetime generation count.
	TotalCount(ctx context.Context, id identity.Identity) int
	// MigrateHistory copies the device's local history into the remote
	// store, once, on first sign-in. Skipped entirely when the remote
	// store already has rows for the user.
	MigrateHistory(ctx context.Context, id identity.Identity) (int, error)
}
