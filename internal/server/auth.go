package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	UserID string `json:"userId"`
}

// SignIn binds the device to a user account. Authentication itself is the
// account provider's job; this endpoint records the outcome and kicks off
// the one-time local-history migration through the session subscription.
func (s *Server) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		_ = c.Error(ErrInvalidBody)
		return
	}

	id := s.identityFrom(c)
	next := s.sessions.SignIn(id.DeviceID, strings.TrimSpace(req.UserID))
	c.JSON(http.StatusOK, s.summarize(c, next))
}

// SignOut returns the device to anonymous.
func (s *Server) SignOut(c *gin.Context) {
	id := s.identityFrom(c)
	next := s.sessions.SignOut(id.DeviceID)
	c.JSON(http.StatusOK, s.summarize(c, next))
}
