package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Email string `json:"email"`
}

// CreateCheckout opens a hosted checkout session and returns the redirect
// URL.
func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ErrInvalidBody)
		return
	}

	redirectURL, err := s.paySvc.CreateCheckout(c.Request.Context(), s.identityFrom(c), strings.TrimSpace(req.Email))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": redirectURL})
}

// ConfirmPayment handles the redirect back from the processor. A success
// observation credits the session's purchase exactly once no matter how
// often the URL is revisited; a cancelled observation voids the session.
func (s *Server) ConfirmPayment(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	outcome := c.Query("payment")
	if sessionID == "" || (outcome != "success" && outcome != "cancelled") {
		_ = c.Error(ErrInvalidBody)
		return
	}

	id := s.identityFrom(c)

	if outcome == "cancelled" {
		if err := s.paySvc.Cancel(c.Request.Context(), sessionID); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		return
	}

	if err := s.paySvc.Confirm(c.Request.Context(), id, sessionID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "credited",
		"usage":  s.summarize(c, id),
	})
}
