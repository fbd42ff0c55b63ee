// Package local implements the device-scoped usage ledger: a single JSON
// record per device in Redis, holding the free-generation count for the
// current cooldown period, the lifetime total, and a bounded history.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	"github.com/wingmate/wingmate/internal/quota"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
)

const keyPrefix = "wingmate:usage:"

// NewClient builds the Redis client backing the local ledger.
func NewClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
}

// NewLedgerFromConfig builds the ledger with the configured history bound.
func NewLedgerFromConfig(client *redis.Client, schedule quota.Schedule, clk clock.Clock, cfg config.Config, log *zap.Logger) *Ledger {
	return NewLedger(client, schedule, clk, cfg.Quota.HistoryLimit, log)
}

// Ledger owns the per-device usage records. It is the only writer of the
// local store; remote state is never written back into it.
type Ledger struct {
	client       *redis.Client
	schedule     quota.Schedule
	clk          clock.Clock
	historyLimit int
	log          *zap.Logger
}

func NewLedger(client *redis.Client, schedule quota.Schedule, clk clock.Clock, historyLimit int, log *zap.Logger) *Ledger {
	return &Ledger{
		client:       client,
		schedule:     schedule,
		clk:          clk,
		historyLimit: historyLimit,
		log:          log.Named("usage.local"),
	}
}

// Read loads the device's record. Absence and corruption both yield a
// fresh record for the current period; Read never fails the caller.
func (l *Ledger) Read(ctx context.Context, deviceID string) usagedomain.UsageRecord {
	fresh := usagedomain.UsageRecord{Period: l.schedule.PeriodKey(l.clk.Now())}

	raw, err := l.client.Get(ctx, keyPrefix+deviceID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.log.Warn("read failed, using empty record", zap.String("device_id", deviceID), zap.Error(err))
		}
		return fresh
	}

	var record usagedomain.UsageRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		l.log.Warn("corrupt record, using empty record", zap.String("device_id", deviceID), zap.Error(err))
		return fresh
	}
	return record
}

// Write persists the record as one SET; readers never observe a partial
// record.
func (l *Ledger) Write(ctx context.Context, deviceID string, record usagedomain.UsageRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return l.client.Set(ctx, keyPrefix+deviceID, raw, 0).Err()
}

// RecordGeneration counts one generation against the device. The free
// count resets lazily when the stored period differs from the current one;
// the lifetime total never resets.
func (l *Ledger) RecordGeneration(ctx context.Context, deviceID string) (usagedomain.UsageRecord, error) {
	record := l.Read(ctx, deviceID)

	period := l.schedule.PeriodKey(l.clk.Now())
	if record.Period != period {
		record.Count = 0
		record.Period = period
	}
	record.Count++
	record.Total++

	if err := l.Write(ctx, deviceID, record); err != nil {
		return record, err
	}
	return record, nil
}

// AppendHistory prepends the entry and truncates to the history limit.
func (l *Ledger) AppendHistory(ctx context.Context, deviceID string, entry usagedomain.HistoryEntry) error {
	record := l.Read(ctx, deviceID)

	record.History = append([]usagedomain.HistoryEntry{entry}, record.History...)
	if len(record.History) > l.historyLimit {
		record.History = record.History[:l.historyLimit]
	}
	return l.Write(ctx, deviceID, record)
}

// FreeCount returns the device's consumed free generations for the given
// period, treating a record from an older period as already reset.
func (l *Ledger) FreeCount(ctx context.Context, deviceID, period string) int {
	record := l.Read(ctx, deviceID)
	if record.Period != period {
		return 0
	}
	return record.Count
}
