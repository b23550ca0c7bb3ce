package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/fairtix/fairtix/internal/cache"
	"github.com/fairtix/fairtix/internal/helpers"
	"github.com/fairtix/fairtix/internal/monitoring"
	"github.com/fairtix/fairtix/internal/ticketing"
)

type TicketHandler struct {
	engine *ticketing.Engine
	cache  *cache.SummaryCache
}

func NewTicketHandler(engine *ticketing.Engine, summaryCache *cache.SummaryCache) *TicketHandler {
	return &TicketHandler{engine: engine, cache: summaryCache}
}

// outcome labels an operation result for metrics: "ok" or the reason code.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var tErr *ticketing.Error
	if errors.As(err, &tErr) {
		return tErr.Code
	}
	return "internal_error"
}

func (h *TicketHandler) params(c *gin.Context) (collectionID uuid.UUID, serial int, ok bool) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid collection ID.")
		return uuid.Nil, 0, false
	}
	serial, err = helpers.StringToInt(c.Param("serial"))
	if err != nil || serial < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket serial.")
		return uuid.Nil, 0, false
	}
	return collectionID, serial, true
}

type MintRequest struct {
	// Payment must equal the collection's face value exactly; overpayment
	// is rejected, not refunded.
	Payment int64 `json:"payment" binding:"required"`
}

func (h *TicketHandler) Mint(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid collection ID.")
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ticket, err := h.engine.Mint(c.Request.Context(), collectionID, userID, req.Payment)
	monitoring.TrackOperation("mint", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	monitoring.TrackFundMovement("mint", req.Payment)
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Ticket minted successfully.",
		"serial":  ticket.Serial,
	})
}

type ResaleRequest struct {
	Price   int64 `json:"price" binding:"required"`
	Payment int64 `json:"payment" binding:"required"`
}

func (h *TicketHandler) Resale(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req ResaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	err := h.engine.Resale(c.Request.Context(), collectionID, serial, userID, req.Price, req.Payment)
	monitoring.TrackOperation("resale", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	monitoring.TrackFundMovement("resale", req.Price)
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusOK, gin.H{"message": "Ticket purchased successfully."})
}

func (h *TicketHandler) Refund(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	err := h.engine.Refund(c.Request.Context(), collectionID, serial, userID)
	monitoring.TrackOperation("refund", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusOK, gin.H{"message": "Ticket refunded at face value."})
}

func (h *TicketHandler) CancelRefund(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	err := h.engine.CancelRefund(c.Request.Context(), collectionID, serial, userID)
	monitoring.TrackOperation("cancel_refund", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusOK, gin.H{"message": "Cancellation refund paid at face value."})
}

func (h *TicketHandler) CheckIn(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	err := h.engine.CheckIn(c.Request.Context(), collectionID, serial, userID)
	monitoring.TrackOperation("check_in", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket checked in."})
}

type CancelEventRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *TicketHandler) CancelEvent(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid collection ID.")
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A cancellation reason is required.")
		return
	}

	err = h.engine.CancelEvent(c.Request.Context(), collectionID, userID, req.Reason)
	monitoring.TrackOperation("cancel_event", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusOK, gin.H{"message": "Event cancelled. Holders can claim refunds individually."})
}

type MetadataLocatorRequest struct {
	Locator string `json:"locator" binding:"required"`
}

func (h *TicketHandler) SetMetadataLocator(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid collection ID.")
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req MetadataLocatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A locator value is required.")
		return
	}

	err = h.engine.SetMetadataLocator(c.Request.Context(), collectionID, userID, req.Locator)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), collectionID)

	c.JSON(http.StatusOK, gin.H{"message": "Metadata locator updated."})
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	info, err := h.engine.TicketInfo(c.Request.Context(), collectionID, serial)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *TicketHandler) GetTicketMetadata(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	uri, err := h.engine.TicketMetadataURI(c.Request.Context(), collectionID, serial)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metadata_uri": uri})
}

// GetTicketPass renders the owner's scannable entry pass as a QR image.
func (h *TicketHandler) GetTicketPass(c *gin.Context) {
	collectionID, serial, ok := h.params(c)
	if !ok {
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	info, err := h.engine.TicketInfo(c.Request.Context(), collectionID, serial)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	if info.OwnerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't own this ticket.")
		return
	}
	if info.CheckedIn {
		helpers.RespondWithError(c, http.StatusForbidden, "Ticket already used.")
		return
	}

	passData := helpers.GenerateTicketPassData(collectionID, serial, userID, os.Getenv("JWT_SECRET"))
	qrImage, err := qrcode.Encode(passData, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate ticket pass.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

type ScanRequest struct {
	PassData string `json:"pass_data" binding:"required"`
}

// CheckInScanned validates a scanned pass and checks the ticket in. The
// caller must be the collection's organizer; the engine enforces that.
func (h *TicketHandler) CheckInScanned(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	if !helpers.ValidateTicketPassSignature(req.PassData, os.Getenv("JWT_SECRET")) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid ticket pass signature.")
		return
	}

	collectionID, serial, passOwner, err := helpers.ParseTicketPassData(req.PassData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket pass format.")
		return
	}

	info, err := h.engine.TicketInfo(c.Request.Context(), collectionID, serial)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	if info.OwnerID != passOwner {
		helpers.RespondWithError(c, http.StatusForbidden, "Pass no longer matches the ticket owner.")
		return
	}

	err = h.engine.CheckIn(c.Request.Context(), collectionID, serial, userID)
	monitoring.TrackOperation("check_in", outcome(err))
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket validated successfully.",
		"serial":  serial,
	})
}
