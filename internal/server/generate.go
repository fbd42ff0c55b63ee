package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wingmate/wingmate/internal/gate"
	"github.com/wingmate/wingmate/internal/generator"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
)

type generateRequest struct {
	Image     string `json:"image"`
	MediaType string `json:"mediaType"`
	Mode      string `json:"mode"`
}

type generateResponse struct {
	Entry   usagedomain.HistoryEntry `json:"entry"`
	Unit    string                   `json:"unit"`
	Usage   usageSummary             `json:"usage"`
	Profile *generator.Profile       `json:"profile,omitempty"`
}

// Generate runs one attempt end to end: validate, authorize, call the
// generator, then charge and persist. Quota is only touched after the
// external call succeeded; a failed generation costs nothing.
func (s *Server) Generate(c *gin.Context) {
	id := s.identityFrom(c)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ErrInvalidBody)
		return
	}

	mode, err := usagedomain.ParseMode(req.Mode)
	if err != nil {
		_ = c.Error(err)
		return
	}
	genReq := generator.Request{Image: req.Image, MediaType: req.MediaType, Mode: mode}
	if err := generator.ValidateRequest(genReq); err != nil {
		_ = c.Error(err)
		return
	}

	decision := s.gate.CanGenerate(c.Request.Context(), id)
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   errorPayload{Type: "quota_exhausted", Message: "you're out of free generations"},
			"resetAt": decision.ResetAt,
		})
		return
	}

	result, err := s.genSvc.Generate(c.Request.Context(), genReq)
	if err != nil {
		_ = c.Error(err)
		return
	}

	unit, err := s.gate.Consume(c.Request.Context(), id, mode)
	if err != nil {
		// The generation already succeeded; a consume race only means
		// another device took the last unit. Deliver the result anyway.
		s.log.Warn("consume failed after successful generation",
			zap.String("identity", id.String()), zap.Error(err))
		unit = gate.UnitFree
	}

	entry := usagedomain.HistoryEntry{
		ID:        strconv.FormatInt(s.genID.Generate().Int64(), 10),
		MatchName: result.MatchName,
		Openers:   result.Openers,
		Mode:      mode,
		Analysis:  result.Analysis,
		Timestamp: s.clk.Now(),
	}
	s.usageSvc.SaveHistory(c.Request.Context(), id, entry)

	c.JSON(http.StatusOK, generateResponse{
		Entry:   entry,
		Unit:    string(unit),
		Usage:   s.summarize(c, id),
		Profile: result.Profile,
	})
}
