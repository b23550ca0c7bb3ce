package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairtix/fairtix/internal/helpers"
	"github.com/fairtix/fairtix/internal/ticketing"
)

type WalletHandler struct {
	wallet *ticketing.Wallet
}

func NewWalletHandler(wallet *ticketing.Wallet) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	balance, err := h.wallet.Balance(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if err := h.wallet.Deposit(c.Request.Context(), userID, req.Amount); err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deposit completed."})
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if err := h.wallet.Withdraw(c.Request.Context(), userID, req.Amount); err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal completed."})
}

func (h *WalletHandler) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := helpers.StringToInt(limitStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
			return
		}
		limit = parsed
	}

	transfers, err := h.wallet.History(c.Request.Context(), userID, limit)
	if err != nil {
		helpers.RespondWithTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}
