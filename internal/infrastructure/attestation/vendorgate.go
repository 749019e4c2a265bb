// Package attestation implements the device attestation gate against the
// vendor verification service.
package attestation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fredylg/ReefBuddy-sub001/internal/domain/attestation"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/config"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

const (
	defaultTimeout = 10 * time.Second
	// Maximum response body size for the vendor verify endpoint (64KB)
	maxVerifyResponseSize = 64 << 10
)

type verifyRequest struct {
	DeviceToken string `json:"device_token"`
	DeviceID    string `json:"device_id"`
	BundleID    string `json:"bundle_id,omitempty"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VendorGate verifies device attestation tokens against the vendor service
// over HTTP. When credentials are absent the gate fails closed in production
// and is skipped in development.
type VendorGate struct {
	cfg        config.AttestationConfig
	production bool
	httpClient *http.Client
	logger     logger.Interface
}

// NewVendorGate creates a new vendor-backed attestation gate
func NewVendorGate(cfg config.AttestationConfig, production bool, logger logger.Interface) *VendorGate {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &VendorGate{
		cfg:        cfg,
		production: production,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ attestation.Gate = (*VendorGate)(nil)

// Verify checks the attestation token for the device.
func (g *VendorGate) Verify(ctx context.Context, token, deviceID string) (attestation.Verification, error) {
	if !g.cfg.IsConfigured() {
		if g.production {
			g.logger.Errorw("attestation credentials missing in production, refusing request",
				"device_id", deviceID)
			return attestation.Verification{}, attestation.ErrNotConfigured
		}
		g.logger.Debugw("attestation not configured, proceeding without verification",
			"device_id", deviceID)
		return attestation.Verification{Outcome: attestation.OutcomeNotConfigured}, nil
	}

	if token == "" {
		// Distinct reason so old clients can be told to update rather than
		// told the device is untrusted.
		return attestation.Verification{
			Outcome: attestation.OutcomeRejected,
			Reason:  attestation.ReasonTokenMissing,
		}, nil
	}

	body, err := json.Marshal(verifyRequest{
		DeviceToken: token,
		DeviceID:    deviceID,
		BundleID:    g.cfg.BundleID,
	})
	if err != nil {
		return attestation.Verification{}, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return attestation.Verification{}, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warnw("attestation vendor request failed", "error", err)
		return attestation.Verification{}, fmt.Errorf("%w: %v", attestation.ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warnw("attestation rejected by vendor",
			"device_id", deviceID,
			"status", resp.StatusCode)
		return attestation.Verification{
			Outcome: attestation.OutcomeRejected,
			Reason:  attestation.ReasonTokenInvalid,
		}, nil
	}

	var result verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerifyResponseSize)).Decode(&result); err != nil {
		g.logger.Warnw("malformed attestation vendor response", "error", err)
		return attestation.Verification{}, fmt.Errorf("%w: malformed response: %v", attestation.ErrVendorUnavailable, err)
	}

	if !result.Valid {
		g.logger.Infow("attestation token rejected",
			"device_id", deviceID,
			"vendor_reason", result.Reason)
		return attestation.Verification{
			Outcome: attestation.OutcomeRejected,
			Reason:  attestation.ReasonTokenInvalid,
		}, nil
	}

	return attestation.Verification{Outcome: attestation.OutcomeVerified}, nil
}
