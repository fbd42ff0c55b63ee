package payment

import (
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	"github.com/wingmate/wingmate/internal/payment/service"
	"go.uber.org/fx"
)

func provideProcessor(p *HTTPProcessor) paymentdomain.Processor {
	return p
}

var Module = fx.Module("payment.service",
	fx.Provide(
		NewHTTPProcessor,
		provideProcessor,
		service.NewService,
	),
)
