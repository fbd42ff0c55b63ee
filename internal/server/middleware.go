package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wingmate/wingmate/internal/identity"
)

const (
	headerDeviceID = "X-Device-ID"
	ctxKeyIdentity = "identity"
)

// DeviceMiddleware resolves the caller's identity from the device header
// and the session registry. Every /api route requires a device id.
func (s *Server) DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := strings.TrimSpace(c.GetHeader(headerDeviceID))
		if deviceID == "" {
			_ = c.Error(ErrMissingDevice)
			c.Abort()
			return
		}
		c.Set(ctxKeyIdentity, s.sessions.Resolve(deviceID))
		c.Next()
	}
}

func (s *Server) identityFrom(c *gin.Context) identity.Identity {
	id, _ := c.MustGet(ctxKeyIdentity).(identity.Identity)
	return id
}
