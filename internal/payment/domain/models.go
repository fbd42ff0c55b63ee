// Package domain defines checkout sessions and the payment service
// contract. The processor integration is a thin passthrough; the part
// with weight is the idempotent credit grant on confirmation.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/wingmate/wingmate/internal/identity"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusCredited  SessionStatus = "credited"
	StatusCancelled SessionStatus = "cancelled"
)

// CheckoutSession is one purchase attempt. Its primary key doubles as the
// idempotency key for the credit grant: revisiting a success URL can call
// Confirm any number of times, credits land once.
type CheckoutSession struct {
	ID         string        `gorm:"primaryKey;type:text"`
	UserID     string        `gorm:"type:text;not null;index"`
	Email      string        `gorm:"type:text"`
	Credits    int           `gorm:"not null"`
	Status     SessionStatus `gorm:"type:text;not null"`
	CreatedAt  time.Time     `gorm:"not null"`
	CreditedAt *time.Time
}

// TableName sets the database table name.
func (CheckoutSession) TableName() string { return "payment_sessions" }

type Service interface {
	// CreateCheckout opens a session with the processor and returns the
	// redirect URL. Signed-in users only.
	CreateCheckout(ctx context.Context, id identity.Identity, email string) (string, error)
	// Confirm grants the session's credits exactly once. Safe to call
	// repeatedly for the same session.
	Confirm(ctx context.Context, id identity.Identity, sessionID string) error
	// Cancel marks an abandoned session. No credits move.
	Cancel(ctx context.Context, sessionID string) error
}

// Processor is the external payment provider boundary.
type Processor interface {
	CreateCheckout(ctx context.Context, sessionID, email string) (redirectURL string, err error)
}

var (
	ErrNotSignedIn    = errors.New("not_signed_in")
	ErrUnknownSession = errors.New("unknown_session")
	ErrWrongOwner     = errors.New("wrong_owner")
	ErrCancelled      = errors.New("session_cancelled")
)
