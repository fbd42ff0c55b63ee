package generator

import (
	"github.com/wingmate/wingmate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newClient(cfg config.Config, log *zap.Logger) *Client {
	return NewClient(cfg, log)
}

func provideService(client *Client) Service {
	return client
}

var Module = fx.Module("generator",
	fx.Provide(
		newClient,
		provideService,
	),
)
