// Package generator is the boundary to the external vision/LLM service
// that turns a profile screenshot into openers and an analysis.
package generator

import (
	"context"
	"errors"
	"strings"

	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
)

// Request is one screenshot to analyze.
type Request struct {
	Image     string // base64, no data-URL prefix
	MediaType string
	Mode      usagedomain.Mode
}

// Profile is the structured read of the screenshot itself.
type Profile struct {
	Name      string   `json:"name,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// Result is a completed generation.
type Result struct {
	MatchName string                `json:"matchName"`
	Openers   []usagedomain.Opener  `json:"openers"`
	Analysis  *usagedomain.Analysis `json:"analysis,omitempty"`
	Profile   *Profile              `json:"profile,omitempty"`
}

// Service generates openers from a screenshot. Implementations must treat
// every failure as "generation did not happen": the caller charges quota
// only on success.
type Service interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// UpstreamError wraps provider failures with a user-displayable message.
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string { return e.Message }
func (e *UpstreamError) Unwrap() error { return e.Cause }

var ErrEmptyResult = errors.New("empty_generation")

const maxImageBytes = 8 << 20

// ValidateRequest rejects malformed input before any quota is touched.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Image) == "" {
		return usagedomain.ErrInvalidImage
	}
	// base64 inflates by 4/3; bound the decoded size without decoding.
	if len(req.Image) > maxImageBytes*4/3 {
		return usagedomain.ErrInvalidImage
	}
	if !strings.HasPrefix(req.MediaType, "image/") {
		return usagedomain.ErrInvalidImage
	}
	if _, err := usagedomain.ParseMode(string(req.Mode)); err != nil {
		return err
	}
	return nil
}
