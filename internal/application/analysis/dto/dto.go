// Package dto contains data transfer objects for the analysis flow.
package dto

import (
	creditdto "github.com/fredylg/ReefBuddy-sub001/internal/application/credit/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/analysis"
)

// WaterParametersDTO carries the submitted readings. PH, salinity and tank
// volume are required; the rest are validated only when present.
type WaterParametersDTO struct {
	PH               float64  `json:"ph" binding:"required"`
	Salinity         float64  `json:"salinity" binding:"required"`
	TankVolumeLiters float64  `json:"tankVolumeLiters" binding:"required"`
	TemperatureC     *float64 `json:"temperatureC,omitempty"`
	AlkalinityDKH    *float64 `json:"alkalinityDkh,omitempty"`
	Calcium          *float64 `json:"calcium,omitempty"`
	Magnesium        *float64 `json:"magnesium,omitempty"`
	Nitrate          *float64 `json:"nitrate,omitempty"`
	Phosphate        *float64 `json:"phosphate,omitempty"`
}

// ToDomain maps the DTO to the domain value object.
func (p WaterParametersDTO) ToDomain() analysis.WaterParameters {
	return analysis.WaterParameters{
		PH:               p.PH,
		Salinity:         p.Salinity,
		TankVolumeLiters: p.TankVolumeLiters,
		TemperatureC:     p.TemperatureC,
		AlkalinityDKH:    p.AlkalinityDKH,
		Calcium:          p.Calcium,
		Magnesium:        p.Magnesium,
		Nitrate:          p.Nitrate,
		Phosphate:        p.Phosphate,
	}
}

// AnalysisDTO is the recommendation payload produced by the advisor.
type AnalysisDTO struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisResultDTO is the successful analysis response. The balance fields
// reflect the ledger after the consumed credit was settled.
type AnalysisResultDTO struct {
	Analysis         AnalysisDTO          `json:"analysis"`
	CreditsRemaining int                  `json:"creditsRemaining"`
	FreeRemaining    int                  `json:"freeRemaining"`
	PaidCredits      int                  `json:"paidCredits"`
	Balance          creditdto.BalanceDTO `json:"balance"`
}
