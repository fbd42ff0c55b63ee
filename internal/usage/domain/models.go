// Package domain contains the usage-ledger models shared by the local and
// remote ledgers and the reconciler.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Mode selects the voice of the generated openers.
type Mode string

const (
	ModeChaotic    Mode = "chaotic"
	ModeFlirty     Mode = "flirty"
	ModeUnhinged   Mode = "unhinged"
	ModeMysterious Mode = "mysterious"
	ModeDadJoke    Mode = "dadjoke"
	ModePoetic     Mode = "poetic"
)

// ParseMode validates a caller-supplied mode string.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case ModeChaotic, ModeFlirty, ModeUnhinged, ModeMysterious, ModeDadJoke, ModePoetic:
		return mode, nil
	}
	return "", ErrInvalidMode
}

// Opener is a single generated opening message.
type Opener struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

// Analysis is the optional personality read extracted from the profile.
type Analysis struct {
	Vibe          string   `json:"vibe,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	Personality   string   `json:"personality,omitempty"`
	Compatibility string   `json:"compatibility,omitempty"`
	GreenFlags    []string `json:"greenFlags,omitempty"`
	RedFlags      []string `json:"redFlags,omitempty"`
}

// HistoryEntry is one generated opener set. Immutable once created.
type HistoryEntry struct {
	ID        string    `json:"id"`
	MatchName string    `json:"matchName"`
	Openers   []Opener  `json:"openers"`
	Mode      Mode      `json:"mode"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageRecord is the per-device local ledger record: free generations
// consumed in the current cooldown period, the lifetime total, and a
// bounded most-recent-first history.
//
// JSON field names match the persisted key-value layout.
type UsageRecord struct {
	Count   int            `json:"count"`
	Period  string         `json:"period"`
	Total   int            `json:"total"`
	History []HistoryEntry `json:"history"`
}

// GenerationRecord is one durable generation row in the remote store.
type GenerationRecord struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	UserID    string         `gorm:"type:text;not null;index:idx_generations_user_created,priority:1"`
	MatchName string         `gorm:"type:text"`
	Openers   datatypes.JSON `gorm:"type:jsonb"`
	Mode      Mode           `gorm:"type:text;not null"`
	Analysis  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index:idx_generations_user_created,priority:2"`
}

// TableName sets the database table name.
func (GenerationRecord) TableName() string { return "generations" }

var (
	ErrInvalidMode  = errors.New("invalid_mode")
	ErrInvalidImage = errors.New("invalid_image")
	ErrNotSignedIn  = errors.New("not_signed_in")
)
