package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/wingmate/wingmate/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Type {
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DB.Host,
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Name,
			cfg.DB.Port,
			cfg.DB.SSLMode,
		)), nil
	case "sqlite":
		return sqlite.Open(cfg.DB.Name + ".db"), nil
	case "sqlite-memory":
		return sqlite.Open(":memory:"), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.DB.Type)
	}
}
