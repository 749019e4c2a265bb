package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/analysis/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/application/analysis/usecases"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/utils"
)

type AnalysisHandler struct {
	requestAnalysisUC *usecases.RequestAnalysisUseCase
	logger            logger.Interface
}

func NewAnalysisHandler(requestAnalysisUC *usecases.RequestAnalysisUseCase) *AnalysisHandler {
	return &AnalysisHandler{
		requestAnalysisUC: requestAnalysisUC,
		logger:            logger.NewLogger(),
	}
}

type RequestAnalysisRequest struct {
	DeviceID         string                 `json:"deviceId" binding:"required"`
	TankID           string                 `json:"tankId"`
	AttestationToken string                 `json:"attestationToken"`
	Parameters       dto.WaterParametersDTO `json:"parameters" binding:"required"`
}

// RequestAnalysis handles POST /api/v1/analyze.
func (h *AnalysisHandler) RequestAnalysis(c *gin.Context) {
	var req RequestAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for analysis", "error", err)
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	cmd := usecases.RequestAnalysisCommand{
		DeviceID:         req.DeviceID,
		TankID:           req.TankID,
		AttestationToken: req.AttestationToken,
		Parameters:       req.Parameters,
	}

	result, err := h.requestAnalysisUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "analysis completed", result)
}
