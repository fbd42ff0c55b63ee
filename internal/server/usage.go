package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wingmate/wingmate/internal/identity"
	"go.uber.org/zap"
)

type usageSummary struct {
	SignedIn       bool      `json:"signedIn"`
	RemainingFree  int       `json:"remainingFree"`
	ResetAt        time.Time `json:"resetAt"`
	TotalCount     int       `json:"totalCount"`
	CreditBalance  int       `json:"creditBalance"`
	TotalPurchased int       `json:"totalPurchased"`
}

func (s *Server) summarize(c *gin.Context, id identity.Identity) usageSummary {
	ctx := c.Request.Context()

	summary := usageSummary{
		SignedIn:      id.IsSignedIn(),
		RemainingFree: s.usageSvc.RemainingFree(ctx, id),
		ResetAt:       s.usageSvc.NextReset(),
		TotalCount:    s.usageSvc.TotalCount(ctx, id),
	}

	account, err := s.creditSvc.Summary(ctx, id)
	if err != nil {
		s.log.Warn("credit summary read failed", zap.String("identity", id.String()), zap.Error(err))
		return summary
	}
	summary.CreditBalance = account.Balance
	summary.TotalPurchased = account.TotalPurchased
	return summary
}

// UsageSummary reports the caller's remaining quota, reset time, lifetime
// total, and credit balance.
func (s *Server) UsageSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.summarize(c, s.identityFrom(c)))
}

// History returns the caller's generation history, most recent first.
func (s *Server) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(ErrInvalidBody)
			return
		}
		limit = parsed
	}

	id := s.identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"history": s.usageSvc.History(c.Request.Context(), id, limit),
	})
}
