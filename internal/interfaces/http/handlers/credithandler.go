package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/credit/usecases"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/utils"
)

type CreditHandler struct {
	getBalanceUC    *usecases.GetBalanceUseCase
	applyPurchaseUC *usecases.ApplyPurchaseUseCase
	logger          logger.Interface
}

func NewCreditHandler(
	getBalanceUC *usecases.GetBalanceUseCase,
	applyPurchaseUC *usecases.ApplyPurchaseUseCase,
) *CreditHandler {
	return &CreditHandler{
		getBalanceUC:    getBalanceUC,
		applyPurchaseUC: applyPurchaseUC,
		logger:          logger.NewLogger(),
	}
}

type ApplyPurchaseRequest struct {
	DeviceID          string `json:"deviceId" binding:"required"`
	ProductID         string `json:"productId"`
	SignedTransaction string `json:"signedTransaction" binding:"required"`
	TransactionID     string `json:"transactionId"`
}

// GetBalance handles GET /api/v1/credits/balance?deviceId=...
func (h *CreditHandler) GetBalance(c *gin.Context) {
	deviceID := c.Query("deviceId")

	result, err := h.getBalanceUC.Execute(c.Request.Context(), usecases.GetBalanceQuery{DeviceID: deviceID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "balance retrieved", result)
}

// ApplyPurchase handles POST /api/v1/credits/purchase.
func (h *CreditHandler) ApplyPurchase(c *gin.Context) {
	var req ApplyPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for purchase", "error", err)
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	cmd := usecases.ApplyPurchaseCommand{
		DeviceID:          req.DeviceID,
		ProductID:         req.ProductID,
		SignedTransaction: req.SignedTransaction,
		TransactionID:     req.TransactionID,
	}

	result, err := h.applyPurchaseUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "purchase applied", result)
}
