package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairtix/fairtix/internal/cache"
	"github.com/fairtix/fairtix/internal/helpers"
	"github.com/fairtix/fairtix/internal/monitoring"
	"github.com/fairtix/fairtix/internal/ticketing"
)

type CollectionHandler struct {
	registry *ticketing.Registry
	engine   *ticketing.Engine
	cache    *cache.SummaryCache
}

func NewCollectionHandler(registry *ticketing.Registry, engine *ticketing.Engine, summaryCache *cache.SummaryCache) *CollectionHandler {
	return &CollectionHandler{registry: registry, engine: engine, cache: summaryCache}
}

type CreateCollectionRequest struct {
	Name                string `json:"name" binding:"required"`
	Symbol              string `json:"symbol" binding:"required"`
	MaxSupply           int    `json:"max_supply" binding:"required"`
	FaceValue           int64  `json:"face_value" binding:"required"`
	MetadataBaseLocator string `json:"metadata_base_locator" binding:"required"`
	MaxResalePercent    int    `json:"max_resale_percent" binding:"required"`
	OrganizerFeePercent int    `json:"organizer_fee_percent"`
	MaxMintPerUser      int    `json:"max_mint_per_user"`
	MinResalePercent    int    `json:"min_resale_percent"`
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	collection, err := h.registry.Create(c.Request.Context(), ticketing.CreateParams{
		Name:                req.Name,
		Symbol:              req.Symbol,
		MaxSupply:           req.MaxSupply,
		FaceValue:           req.FaceValue,
		OrganizerID:         userID,
		MetadataBaseLocator: req.MetadataBaseLocator,
		MaxResalePercent:    req.MaxResalePercent,
		OrganizerFeePercent: req.OrganizerFeePercent,
		MaxMintPerUser:      req.MaxMintPerUser,
		MinResalePercent:    req.MinResalePercent,
	})
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Collection created successfully.",
		"collection_id": collection.ID,
	})
}

func (h *CollectionHandler) ListCollections(c *gin.Context) {
	page, err := helpers.StringToInt(c.DefaultQuery("page", "1"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}
	limit, err := helpers.StringToInt(c.DefaultQuery("limit", "10"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	var organizerID *uuid.UUID
	if organizerStr := c.Query("organizer"); organizerStr != "" {
		parsed, err := uuid.Parse(organizerStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid organizer ID.")
			return
		}
		organizerID = &parsed
	}

	collections, total, err := h.registry.List(c.Request.Context(), organizerID, page, limit)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	})
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid collection ID.")
		return
	}

	ctx := c.Request.Context()

	var cached ticketing.Summary
	if hit, err := h.cache.Get(ctx, collectionID, &cached); err == nil && hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	summary, err := h.engine.Summary(ctx, collectionID)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}
	_ = h.cache.Set(ctx, collectionID, summary)
	monitoring.SetRetainedBalance(collectionID.String(), summary.Collection.RetainedBalance)

	c.JSON(http.StatusOK, summary)
}
