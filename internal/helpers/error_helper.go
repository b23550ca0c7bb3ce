package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairtix/fairtix/internal/ticketing"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithTicketingError translates an engine/registry rejection into its
// HTTP status and reason code. Anything that is not a ticketing.Error is an
// internal failure and stays opaque to the caller.
func RespondWithTicketingError(c *gin.Context, err error) {
	var tErr *ticketing.Error
	if errors.As(err, &tErr) {
		c.JSON(tErr.Status, ErrorResponse{
			Error:   tErr.Code,
			Message: tErr.Message,
		})
		return
	}
	RespondWithError(c, http.StatusInternalServerError, "Unexpected error processing the request.")
}
