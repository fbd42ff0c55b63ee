package quota

import (
	"github.com/wingmate/wingmate/internal/config"
	"go.uber.org/fx"
)

func NewScheduleFromConfig(cfg config.Config) Schedule {
	return NewSchedule(cfg.Quota.CooldownDays)
}

var Module = fx.Module("quota",
	fx.Provide(NewScheduleFromConfig),
)
