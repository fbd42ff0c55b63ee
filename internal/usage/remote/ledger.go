// Package remote implements the server-of-record generation log for
// signed-in users.
package remote

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wingmate/wingmate/internal/clock"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger reads and appends durable generation rows. Writes are best-effort
// from the caller's point of view: the reconciler treats an insert failure
// as lost bookkeeping, not a failed generation.
type Ledger struct {
	db    *gorm.DB
	genID *snowflake.Node
	clk   clock.Clock
	log   *zap.Logger
}

func NewLedger(db *gorm.DB, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) *Ledger {
	return &Ledger{
		db:    db,
		genID: genID,
		clk:   clk,
		log:   log.Named("usage.remote"),
	}
}

// CountSince returns the user's generation count recorded at or after the
// given instant.
func (l *Ledger) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&usagedomain.GenerationRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return int(count), err
}

// CountAll returns the user's lifetime generation count.
func (l *Ledger) CountAll(ctx context.Context, userID string) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&usagedomain.GenerationRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return int(count), err
}

// Insert appends one generation row.
func (l *Ledger) Insert(ctx context.Context, userID string, entry usagedomain.HistoryEntry) error {
	record, err := l.toRecord(userID, entry)
	if err != nil {
		return err
	}
	return l.db.WithContext(ctx).Create(record).Error
}

// List returns up to limit rows for the user, most recent first.
func (l *Ledger) List(ctx context.Context, userID string, limit int) ([]usagedomain.HistoryEntry, error) {
	var records []usagedomain.GenerationRecord
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	entries := make([]usagedomain.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, l.toEntry(record))
	}
	return entries, nil
}

func (l *Ledger) toRecord(userID string, entry usagedomain.HistoryEntry) (*usagedomain.GenerationRecord, error) {
	openers, err := json.Marshal(entry.Openers)
	if err != nil {
		return nil, err
	}

	record := &usagedomain.GenerationRecord{
		ID:        l.genID.Generate(),
		UserID:    userID,
		MatchName: entry.MatchName,
		Openers:   datatypes.JSON(openers),
		Mode:      entry.Mode,
		CreatedAt: entry.Timestamp,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = l.clk.Now()
	}
	if entry.Analysis != nil {
		analysis, err := json.Marshal(entry.Analysis)
		if err != nil {
			return nil, err
		}
		record.Analysis = datatypes.JSON(analysis)
	}
	return record, nil
}

func (l *Ledger) toEntry(record usagedomain.GenerationRecord) usagedomain.HistoryEntry {
	entry := usagedomain.HistoryEntry{
		ID:        strconv.FormatInt(record.ID.Int64(), 10),
		MatchName: record.MatchName,
		Mode:      record.Mode,
		Timestamp: record.CreatedAt,
	}
	if len(record.Openers) > 0 {
		if err := json.Unmarshal(record.Openers, &entry.Openers); err != nil {
			l.log.Warn("undecodable openers column", zap.Int64("id", record.ID.Int64()), zap.Error(err))
		}
	}
	if len(record.Analysis) > 0 {
		var analysis usagedomain.Analysis
		if err := json.Unmarshal(record.Analysis, &analysis); err != nil {
			l.log.Warn("undecodable analysis column", zap.Int64("id", record.ID.Int64()), zap.Error(err))
		} else {
			entry.Analysis = &analysis
		}
	}
	return entry
}
