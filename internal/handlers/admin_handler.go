package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairtix/fairtix/internal/helpers"
	"github.com/fairtix/fairtix/internal/ticketing"
)

type AdminHandler struct {
	registry *ticketing.Registry
}

func NewAdminHandler(registry *ticketing.Registry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// WithdrawFees moves accumulated creation fees into the admin's wallet.
// The route is behind the admin role guard.
func (h *AdminHandler) WithdrawFees(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	withdrawn, err := h.registry.WithdrawFees(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Fees withdrawn.",
		"withdrawn": withdrawn,
	})
}
