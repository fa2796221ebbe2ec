package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sairamarava/CodeTogether/internal/service"
)

// apiResponse is the envelope for every JSON API reply.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apiResponse{Success: true, Data: data})
}

// respondError maps service errors onto HTTP status codes. Unknown errors
// collapse to a generic 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidFileName):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAuthenticationFailed):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrExecutionDisabled):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrFileNotFound), errors.Is(err, service.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrRoomFull):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrRegistrationFailed):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnsupportedLanguage):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	}
	c.JSON(status, apiResponse{Success: false, Error: message})
}
