// Package db opens the GORM connection backing the remote ledgers.
package db

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{})
}

var Module = fx.Module("db",
	fx.Provide(
		Dialect,
		Open,
	),
)
