package service

import (
	"context"
	"time"

	"github.com/wingmate/wingmate/internal/cache"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	"github.com/wingmate/wingmate/internal/identity"
	"github.com/wingmate/wingmate/internal/quota"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"github.com/wingmate/wingmate/internal/usage/local"
	"github.com/wingmate/wingmate/internal/usage/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config   config.Config
	Schedule quota.Schedule
	Clock    clock.Clock
	Local    *local.Ledger
	Remote   *remote.Ledger
	Counts   *cache.CountCache
	Log      *zap.Logger
}

// Service is the usage reconciler. One remote count read per identity per
// period; everything in between runs off the local ledger and the
// optimistic cache.
type Service struct {
	cfg      config.QuotaConfig
	schedule quota.Schedule
	clk      clock.Clock
	local    *local.Ledger
	remote   *remote.Ledger
	counts   *cache.CountCache
	log      *zap.Logger
}

func NewService(p Params) usagedomain.Service {
	return &Service{
		cfg:      p.Config.Quota,
		schedule: p.Schedule,
		clk:      p.Clock,
		local:    p.Local,
		remote:   p.Remote,
		counts:   p.Counts,
		log:      p.Log.Named("usage.service"),
	}
}

func (s *Service) RemainingFree(ctx context.Context, id identity.Identity) int {
	limit := s.cfg.FreeLimitAnonymous
	if id.IsSignedIn() {
		limit = s.cfg.FreeLimitSignedIn
	}

	remaining := limit - s.consumedThisPeriod(ctx, id)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Service) NextReset() time.Time {
	return s.schedule.NextReset(s.clk.Now())
}

func (s *Service) RecordConsumption(ctx context.Context, id identity.Identity) {
	if _, err := s.local.RecordGeneration(ctx, id.DeviceID); err != nil {
		// The generation already happened; losing the local increment
		// only under-counts in the caller's favor.
		s.log.Warn("local consumption write failed", zap.String("device_id", id.DeviceID), zap.Error(err))
	}
	if id.IsSignedIn() {
		s.counts.Bump(id.Key(), s.currentPeriod(), 1)
	}
}

func (s *Service) SaveHistory(ctx context.Context, id identity.Identity, entry usagedomain.HistoryEntry) {
	if err := s.local.AppendHistory(ctx, id.DeviceID, entry); err != nil {
		s.log.Warn("local history append failed", zap.String("device_id", id.DeviceID), zap.Error(err))
	}
	if !id.IsSignedIn() {
		return
	}
	// Best-effort mirror. A lost insert leaves the cached count ahead of
	// the true remote count until the next period; the quota debit itself
	// already happened and is not compensated.
	if err := s.remote.Insert(ctx, id.UserID, entry); err != nil {
		s.log.Warn("remote history insert failed", zap.String("user_id", id.UserID), zap.Error(err))
	}
}

func (s *Service) History(ctx context.Context, id identity.Identity, limit int) []usagedomain.HistoryEntry {
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}

	if id.IsSignedIn() {
		entries, err := s.remote.List(ctx, id.UserID, limit)
		if err == nil {
			return entries
		}
		s.log.Warn("remote history read failed, serving local", zap.String("user_id", id.UserID), zap.Error(err))
	}

	history := s.local.Read(ctx, id.DeviceID).History
	if len(history) > limit {
		history = history[:limit]
	}
	return history
}

func (s *Service) TotalCount(ctx context.Context, id identity.Identity) int {
	if id.IsSignedIn() {
		total, err := s.remote.CountAll(ctx, id.UserID)
		if err == nil {
			return total
		}
		s.log.Warn("remote total read failed, serving local", zap.String("user_id", id.UserID), zap.Error(err))
	}
	return s.local.Read(ctx, id.DeviceID).Total
}

func (s *Service) MigrateHistory(ctx context.Context, id identity.Identity) (int, error) {
	if !id.IsSignedIn() {
		return 0, usagedomain.ErrNotSignedIn
	}

	existing, err := s.remote.CountAll(ctx, id.UserID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		// Already migrated (or the user generated on another device);
		// never merge on top of remote rows.
		return 0, nil
	}

	history := s.local.Read(ctx, id.DeviceID).History
	if len(history) > s.cfg.MigrationLimit {
		history = history[:s.cfg.MigrationLimit]
	}

	migrated := 0
	for _, entry := range history {
		if err := s.remote.Insert(ctx, id.UserID, entry); err != nil {
			s.log.Warn("history entry migration failed",
				zap.String("user_id", id.UserID),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			continue
		}
		migrated++
	}

	if migrated > 0 {
		// Migrated rows may land in the current period.
		s.counts.Invalidate(id.Key())
		s.log.Info("local history migrated",
			zap.String("user_id", id.UserID),
			zap.Int("entries", migrated))
	}
	return migrated, nil
}

func (s *Service) consumedThisPeriod(ctx context.Context, id identity.Identity) int {
	period := s.currentPeriod()
	if !id.IsSignedIn() {
		return s.local.FreeCount(ctx, id.DeviceID, period)
	}

	if count, ok := s.counts.Get(id.Key(), period); ok {
		return count
	}

	count, err := s.remote.CountSince(ctx, id.UserID, s.schedule.PeriodStart(s.clk.Now()))
	if err != nil {
		s.log.Warn("remote count read failed, serving local", zap.String("user_id", id.UserID), zap.Error(err))
		return s.local.FreeCount(ctx, id.DeviceID, period)
	}
	s.counts.Set(id.Key(), period, count)
	return count
}

func (s *Service) currentPeriod() string {
	return s.schedule.PeriodKey(s.clk.Now())
}
