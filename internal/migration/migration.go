// Package migration keeps the remote store's schema current.
package migration

import (
	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&usagedomain.GenerationRecord{},
		&creditdomain.CreditBalance{},
		&paymentdomain.CheckoutSession{},
	)
}

var Module = fx.Module("migration",
	fx.Invoke(autoMigrate),
)
