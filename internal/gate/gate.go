// Package gate decides whether a caller may generate right now and which
// quota pays for a completed generation.
package gate

import (
	"context"
	"errors"
	"time"

	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	"github.com/wingmate/wingmate/internal/identity"
	"github.com/wingmate/wingmate/internal/observability"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Unit names the quota a generation was charged against.
type Unit string

const (
	UnitFree   Unit = "free"
	UnitCredit Unit = "credit"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed       bool
	RemainingFree int
	CreditBalance int
	ResetAt       time.Time
}

// ErrExhausted is returned by Consume when neither a free slot nor a
// credit is available. With a well-behaved caller this only happens when
// concurrent attempts raced past CanGenerate.
var ErrExhausted = errors.New("quota_exhausted")

type Params struct {
	fx.In

	Usage   usagedomain.Service
	Credits creditdomain.Service
	Metrics *observability.Metrics
	Log     *zap.Logger
}

// Gate combines the free-quota reconciler and the credit ledger.
//
// CanGenerate and Consume deliberately do not form a transaction: the
// external generation call sits between them, and two devices on the same
// account can both pass the check and both consume. The product accepts
// that single unit of over-consumption; the remote store offers no atomic
// decrement to close it.
type Gate struct {
	usage   usagedomain.Service
	credits creditdomain.Service
	metrics *observability.Metrics
	log     *zap.Logger
}

func New(p Params) *Gate {
	return &Gate{
		usage:   p.Usage,
		credits: p.Credits,
		metrics: p.Metrics,
		log:     p.Log.Named("gate"),
	}
}

// CanGenerate reports whether the identity may start a generation. A
// denial mutates nothing and carries the exact reset time for display.
func (g *Gate) CanGenerate(ctx context.Context, id identity.Identity) Decision {
	decision := Decision{
		RemainingFree: g.usage.RemainingFree(ctx, id),
		ResetAt:       g.usage.NextReset(),
	}

	balance, err := g.credits.Balance(ctx, id)
	if err != nil {
		// Unreachable credit store reads as zero; free quota may still
		// authorize the attempt.
		g.log.Warn("credit balance read failed", zap.String("identity", id.String()), zap.Error(err))
	}
	decision.CreditBalance = balance

	decision.Allowed = decision.RemainingFree > 0 || decision.CreditBalance > 0
	if !decision.Allowed {
		g.metrics.DenialsTotal.WithLabelValues("quota_exhausted").Inc()
	}
	return decision
}

// Consume charges exactly one unit for a generation that already
// succeeded. Free quota is preferred; a credit is debited only when no
// free slot remains. Call only after CanGenerate authorized the attempt.
func (g *Gate) Consume(ctx context.Context, id identity.Identity, mode usagedomain.Mode) (Unit, error) {
	if g.usage.RemainingFree(ctx, id) > 0 {
		g.usage.RecordConsumption(ctx, id)
		g.metrics.GenerationsTotal.WithLabelValues(string(mode), string(UnitFree)).Inc()
		return UnitFree, nil
	}

	spent, err := g.credits.Spend(ctx, id)
	if err != nil {
		return "", err
	}
	if !spent {
		g.metrics.DenialsTotal.WithLabelValues("consume_race").Inc()
		return "", ErrExhausted
	}
	g.metrics.CreditsSpent.Inc()
	g.metrics.GenerationsTotal.WithLabelValues(string(mode), string(UnitCredit)).Inc()
	return UnitCredit, nil
}
