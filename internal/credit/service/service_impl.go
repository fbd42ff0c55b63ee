package service

import (
	"context"
	"errors"

	"github.com/wingmate/wingmate/internal/clock"
	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	"github.com/wingmate/wingmate/internal/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Clock clock.Clock
	Log   *zap.Logger
}

type Service struct {
	db  *gorm.DB
	clk clock.Clock
	log *zap.Logger
}

func NewService(p Params) creditdomain.Service {
	return &Service{
		db:  p.DB,
		clk: p.Clock,
		log: p.Log.Named("credit.service"),
	}
}

func (s *Service) Balance(ctx context.Context, id identity.Identity) (int, error) {
	account, err := s.Summary(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *Service) Summary(ctx context.Context, id identity.Identity) (creditdomain.CreditBalance, error) {
	if !id.IsSignedIn() {
		return creditdomain.CreditBalance{}, nil
	}

	var account creditdomain.CreditBalance
	err := s.db.WithContext(ctx).
		Where("user_id = ?", id.UserID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return creditdomain.CreditBalance{UserID: id.UserID}, nil
		}
		return creditdomain.CreditBalance{}, err
	}
	return account, nil
}

func (s *Service) Add(ctx context.Context, id identity.Identity, amount int) error {
	if !id.IsSignedIn() {
		s.log.Warn("credit grant for anonymous identity rejected", zap.String("device_id", id.DeviceID))
		return creditdomain.ErrNotSignedIn
	}
	if amount <= 0 {
		return creditdomain.ErrInvalidAmount
	}

	now := s.clk.Now()
	account := creditdomain.CreditBalance{
		UserID:         id.UserID,
		Balance:        amount,
		TotalPurchased: amount,
		UpdatedAt:      now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":         gorm.Expr("balance + ?", amount),
				"total_purchased": gorm.Expr("total_purchased + ?", amount),
				"updated_at":      now,
			}),
		}).
		Create(&account).Error
	if err != nil {
		s.log.Error("credit grant failed", zap.String("user_id", id.UserID), zap.Int("amount", amount), zap.Error(err))
		return err
	}

	s.log.Info("credits granted", zap.String("user_id", id.UserID), zap.Int("amount", amount))
	return nil
}

func (s *Service) Spend(ctx context.Context, id identity.Identity) (bool, error) {
	if !id.IsSignedIn() {
		return false, nil
	}

	// Guarded decrement so two concurrent spends can never drive the
	// balance negative.
	result := s.db.WithContext(ctx).
		Model(&creditdomain.CreditBalance{}).
		Where("user_id = ? AND balance > 0", id.UserID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - 1"),
			"updated_at": s.clk.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	s.log.Info("credit spent", zap.String("user_id", id.UserID))
	return true, nil
}
