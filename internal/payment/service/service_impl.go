package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	"github.com/wingmate/wingmate/internal/identity"
	"github.com/wingmate/wingmate/internal/observability"
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Config    config.Config
	Clock     clock.Clock
	Processor paymentdomain.Processor
	Credits   creditdomain.Service
	Metrics   *observability.Metrics
	Log       *zap.Logger
}

type Service struct {
	db        *gorm.DB
	cfg       config.CreditsConfig
	clk       clock.Clock
	processor paymentdomain.Processor
	credits   creditdomain.Service
	metrics   *observability.Metrics
	log       *zap.Logger
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:        p.DB,
		cfg:       p.Config.Credits,
		clk:       p.Clock,
		processor: p.Processor,
		credits:   p.Credits,
		metrics:   p.Metrics,
		log:       p.Log.Named("payment.service"),
	}
}

func (s *Service) CreateCheckout(ctx context.Context, id identity.Identity, email string) (string, error) {
	if !id.IsSignedIn() {
		return "", paymentdomain.ErrNotSignedIn
	}

	session := paymentdomain.CheckoutSession{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Email:     email,
		Credits:   s.cfg.PerPurchase,
		Status:    paymentdomain.StatusPending,
		CreatedAt: s.clk.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", err
	}

	redirectURL, err := s.processor.CreateCheckout(ctx, session.ID, email)
	if err != nil {
		s.log.Warn("checkout creation failed", zap.String("session_id", session.ID), zap.Error(err))
		return "", err
	}

	s.log.Info("checkout session opened",
		zap.String("session_id", session.ID),
		zap.String("user_id", id.UserID))
	return redirectURL, nil
}

func (s *Service) Confirm(ctx context.Context, id identity.Identity, sessionID string) error {
	if !id.IsSignedIn() {
		return paymentdomain.ErrNotSignedIn
	}

	var session paymentdomain.CheckoutSession
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return paymentdomain.ErrUnknownSession
		}
		return err
	}
	if session.UserID != id.UserID {
		return paymentdomain.ErrWrongOwner
	}

	switch session.Status {
	case paymentdomain.StatusCredited:
		// Success URL revisited; credits already landed.
		return nil
	case paymentdomain.StatusCancelled:
		return paymentdomain.ErrCancelled
	}

	// Claim the session before granting so two concurrent confirmations
	// cannot both credit. The loser of the race sees zero rows updated.
	now := s.clk.Now()
	claim := s.db.WithContext(ctx).
		Model(&paymentdomain.CheckoutSession{}).
		Where("id = ? AND status = ?", sessionID, paymentdomain.StatusPending).
		Updates(map[string]any{"status": paymentdomain.StatusCredited, "credited_at": now})
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil
	}

	if err := s.credits.Add(ctx, id, session.Credits); err != nil {
		// Release the claim so a retry can grant. Credits are never
		// granted on failure.
		s.db.WithContext(ctx).
			Model(&paymentdomain.CheckoutSession{}).
			Where("id = ?", sessionID).
			Updates(map[string]any{"status": paymentdomain.StatusPending, "credited_at": nil})
		return err
	}

	s.metrics.CreditsGranted.Add(float64(session.Credits))
	s.log.Info("payment confirmed",
		zap.String("session_id", sessionID),
		zap.String("user_id", id.UserID),
		zap.Int("credits", session.Credits))
	return nil
}

func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).
		Model(&paymentdomain.CheckoutSession{}).
		Where("id = ? AND status = ?", sessionID, paymentdomain.StatusPending).
		Update("status", paymentdomain.StatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentdomain.ErrUnknownSession
	}
	return nil
}
