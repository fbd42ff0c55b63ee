package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wingmate/wingmate/internal/gate"
	"github.com/wingmate/wingmate/internal/generator"
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrMissingDevice = errors.New("missing_device")
	ErrInvalidBody   = errors.New("invalid_request")
)

// ErrorHandlingMiddleware maps domain errors pushed onto the gin context
// to short user-displayable payloads. Raw upstream or store errors never
// reach the client.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, payload := classify(err)
		c.JSON(status, errorResponse{Error: payload})
	}
}

func classify(err error) (int, errorPayload) {
	var upstream *generator.UpstreamError

	switch {
	case errors.Is(err, ErrMissingDevice):
		return http.StatusBadRequest, errorPayload{Type: "missing_device", Message: "device id header is required"}
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "request body is invalid"}
	case errors.Is(err, usagedomain.ErrInvalidMode):
		return http.StatusBadRequest, errorPayload{Type: "invalid_mode", Message: "unknown opener mode"}
	case errors.Is(err, usagedomain.ErrInvalidImage):
		return http.StatusBadRequest, errorPayload{Type: "invalid_image", Message: "screenshot is missing or not an image"}
	case errors.Is(err, usagedomain.ErrNotSignedIn),
		errors.Is(err, paymentdomain.ErrNotSignedIn):
		return http.StatusUnauthorized, errorPayload{Type: "not_signed_in", Message: "sign in to do that"}
	case errors.Is(err, paymentdomain.ErrWrongOwner):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "that session belongs to another account"}
	case errors.Is(err, paymentdomain.ErrUnknownSession):
		return http.StatusNotFound, errorPayload{Type: "unknown_session", Message: "payment session not found"}
	case errors.Is(err, paymentdomain.ErrCancelled):
		return http.StatusConflict, errorPayload{Type: "session_cancelled", Message: "this payment was cancelled"}
	case errors.Is(err, gate.ErrExhausted):
		return http.StatusTooManyRequests, errorPayload{Type: "quota_exhausted", Message: "you're out of free generations and credits"}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, errorPayload{Type: "generation_failed", Message: upstream.Message}
	case errors.Is(err, generator.ErrEmptyResult):
		return http.StatusBadGateway, errorPayload{Type: "generation_failed", Message: "generation came back empty, try again"}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "something went wrong, try again"}
}
