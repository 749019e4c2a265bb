// Package analysis contains the HTTP client for the external
// analysis-generation service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/fredylg/ReefBuddy-sub001/internal/domain/analysis"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/config"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

const (
	defaultTimeout = 30 * time.Second
	// Maximum response body size for the analysis endpoint (256KB)
	maxAnalysisResponseSize = 256 << 10
)

type analyzeRequest struct {
	TankID           string   `json:"tank_id"`
	PH               float64  `json:"ph"`
	Salinity         float64  `json:"salinity"`
	TankVolumeLiters float64  `json:"tank_volume_liters"`
	TemperatureC     *float64 `json:"temperature_c,omitempty"`
	AlkalinityDKH    *float64 `json:"alkalinity_dkh,omitempty"`
	Calcium          *float64 `json:"calcium,omitempty"`
	Magnesium        *float64 `json:"magnesium,omitempty"`
	Nitrate          *float64 `json:"nitrate,omitempty"`
	Phosphate        *float64 `json:"phosphate,omitempty"`
}

type analyzeResponse struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// ReefAdvisorClient calls the external analysis service. The service is a
// black box behind a bounded timeout; every failure maps to
// ErrUpstreamUnavailable so the orchestrator releases the credit hold.
type ReefAdvisorClient struct {
	cfg        config.AnalysisConfig
	httpClient *http.Client
	logger     logger.Interface
}

// NewReefAdvisorClient creates a new analysis service client
func NewReefAdvisorClient(cfg config.AnalysisConfig, logger logger.Interface) *ReefAdvisorClient {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &ReefAdvisorClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ domain.Service = (*ReefAdvisorClient)(nil)

// Analyze submits validated parameters and returns the structured recommendation.
func (c *ReefAdvisorClient) Analyze(ctx context.Context, tankID string, params domain.WaterParameters) (*domain.Result, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("%w: analysis service URL not configured", domain.ErrUpstreamUnavailable)
	}

	body, err := json.Marshal(analyzeRequest{
		TankID:           tankID,
		PH:               params.PH,
		Salinity:         params.Salinity,
		TankVolumeLiters: params.TankVolumeLiters,
		TemperatureC:     params.TemperatureC,
		AlkalinityDKH:    params.AlkalinityDKH,
		Calcium:          params.Calcium,
		Magnesium:        params.Magnesium,
		Nitrate:          params.Nitrate,
		Phosphate:        params.Phosphate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("analysis service request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warnw("analysis service returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var result analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAnalysisResponseSize)).Decode(&result); err != nil {
		c.logger.Warnw("malformed analysis service response", "error", err)
		return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("%w: empty analysis", domain.ErrUpstreamUnavailable)
	}

	return &domain.Result{
		Summary:         result.Summary,
		Recommendations: result.Recommendations,
	}, nil
}
