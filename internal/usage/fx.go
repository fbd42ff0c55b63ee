package usage

import (
	"context"
	"time"

	"github.com/wingmate/wingmate/internal/identity"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"github.com/wingmate/wingmate/internal/usage/local"
	"github.com/wingmate/wingmate/internal/usage/remote"
	"github.com/wingmate/wingmate/internal/usage/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("usage.service",
	fx.Provide(
		local.NewClient,
		local.NewLedgerFromConfig,
		remote.NewLedger,
		service.NewService,
	),
	fx.Invoke(registerMigration),
)

// registerMigration copies a device's anonymous history into the remote
// store the first time it signs in. Runs on the session transition
// handler, sequentially with the sign-in itself.
func registerMigration(sessions *identity.Sessions, svc usagedomain.Service, log *zap.Logger) {
	migrateLog := log.Named("usage.migration")
	sessions.Subscribe(func(old, next identity.Identity) {
		if old.IsSignedIn() || !next.IsSignedIn() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := svc.MigrateHistory(ctx, next); err != nil {
			migrateLog.Warn("sign-in migration failed", zap.String("user_id", next.UserID), zap.Error(err))
		}
	})
}
