// Package domain defines the purchased-credit balance model and service
// contract. Credits exist only for signed-in users; anonymous devices
// always read a zero balance.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/wingmate/wingmate/internal/identity"
)

// CreditBalance is one user's purchased-credit account. Balance never goes
// negative; TotalPurchased is monotonic.
type CreditBalance struct {
	UserID         string    `gorm:"primaryKey;type:text"`
	Balance        int       `gorm:"not null;default:0"`
	TotalPurchased int       `gorm:"not null;default:0"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (CreditBalance) TableName() string { return "credit_balances" }

type Service interface {
	// Balance returns the spendable credit count. Anonymous identities
	// always get 0.
	Balance(ctx context.Context, id identity.Identity) (int, error)
	// Summary returns the full account row, zero-valued when absent.
	Summary(ctx context.Context, id identity.Identity) (CreditBalance, error)
	// Add grants amount credits durably. No credits are granted on
	// failure; the caller may safely retry.
	Add(ctx context.Context, id identity.Identity, amount int) error
	// Spend debits exactly one credit. Returns false without mutating
	// anything when the identity is anonymous or the balance is empty.
	Spend(ctx context.Context, id identity.Identity) (bool, error)
}

var (
	ErrNotSignedIn   = errors.New("not_signed_in")
	ErrInvalidAmount = errors.New("invalid_amount")
)
