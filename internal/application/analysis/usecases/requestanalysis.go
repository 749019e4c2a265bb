package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/analysis/dto"
	creditdto "github.com/fredylg/ReefBuddy-sub001/internal/application/credit/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/analysis"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/attestation"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/ratelimit"
	apperrors "github.com/fredylg/ReefBuddy-sub001/internal/shared/errors"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

// settleTimeout bounds the post-analysis settle write, which runs detached
// from the request context so a client disconnect cannot orphan the hold.
const settleTimeout = 10 * time.Second

type RequestAnalysisCommand struct {
	DeviceID         string
	TankID           string
	AttestationToken string
	Parameters       dto.WaterParametersDTO
}

// RequestAnalysisUseCase runs the full paid-analysis flow: input validation,
// abuse counter, attestation, credit reservation, the upstream analysis call,
// and settlement. A reserved credit is consumed only when the analysis
// succeeds; every failure after the reservation releases the hold.
type RequestAnalysisUseCase struct {
	accounts credit.Repository
	gate     attestation.Gate
	analyzer analysis.Service
	counter  ratelimit.UsageCounter
	limits   ratelimit.Config
	holdFor  time.Duration
	logger   logger.Interface
}

func NewRequestAnalysisUseCase(
	accounts credit.Repository,
	gate attestation.Gate,
	analyzer analysis.Service,
	counter ratelimit.UsageCounter,
	limits ratelimit.Config,
	holdFor time.Duration,
	logger logger.Interface,
) *RequestAnalysisUseCase {
	return &RequestAnalysisUseCase{
		accounts: accounts,
		gate:     gate,
		analyzer: analyzer,
		counter:  counter,
		limits:   limits,
		holdFor:  holdFor,
		logger:   logger,
	}
}

func (uc *RequestAnalysisUseCase) Execute(ctx context.Context, cmd RequestAnalysisCommand) (*dto.AnalysisResultDTO, error) {
	if err := credit.ValidateDeviceID(cmd.DeviceID); err != nil {
		return nil, apperrors.NewValidationError("invalid device ID", err.Error())
	}
	params := cmd.Parameters.ToDomain()
	if err := params.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid water parameters", err.Error())
	}

	if err := uc.checkUsage(ctx, cmd.DeviceID); err != nil {
		return nil, err
	}

	if err := uc.attest(ctx, cmd.AttestationToken, cmd.DeviceID); err != nil {
		return nil, err
	}

	reservation, err := uc.accounts.AuthorizeAndReserve(ctx, cmd.DeviceID, uc.holdFor)
	if err != nil {
		if errors.Is(err, credit.ErrInsufficientCredit) {
			return nil, apperrors.NewPaymentRequiredError("no credits remaining")
		}
		uc.logger.Errorw("failed to reserve credit", "error", err, "device_id", cmd.DeviceID)
		return nil, apperrors.NewInternalError("failed to reserve credit")
	}

	result, err := uc.analyzer.Analyze(ctx, cmd.TankID, params)
	if err != nil {
		uc.logger.Warnw("analysis call failed, releasing credit hold",
			"error", err,
			"device_id", cmd.DeviceID,
			"reservation_id", reservation.ID(),
		)
		uc.settle(ctx, reservation.ID(), credit.OutcomeReleased)
		return nil, apperrors.NewUpstreamUnavailableError("analysis service unavailable, no credit was charged")
	}

	uc.settle(ctx, reservation.ID(), credit.OutcomeConsumed)

	balance := uc.freshBalance(ctx, cmd.DeviceID)

	uc.logger.Infow("analysis completed",
		"device_id", cmd.DeviceID,
		"tank_id", cmd.TankID,
		"reservation_id", reservation.ID(),
	)

	return &dto.AnalysisResultDTO{
		Analysis: dto.AnalysisDTO{
			Summary:         result.Summary,
			Recommendations: result.Recommendations,
		},
		CreditsRemaining: balance.TotalCredits,
		FreeRemaining:    balance.FreeRemaining,
		PaidCredits:      balance.PaidCredits,
		Balance:          balance,
	}, nil
}

// checkUsage applies the volumetric abuse counter. Counter backend failures
// fail open: credit enforcement remains the source of truth.
func (uc *RequestAnalysisUseCase) checkUsage(ctx context.Context, deviceID string) error {
	allowed, err := uc.counter.Allow(ctx, deviceID, uc.limits)
	if err != nil {
		uc.logger.Warnw("usage counter unavailable, allowing request", "error", err, "device_id", deviceID)
		return nil
	}
	if !allowed {
		uc.logger.Infow("request over usage ceiling", "device_id", deviceID)
		return apperrors.NewRateLimitedError("too many requests, try again later")
	}
	return nil
}

func (uc *RequestAnalysisUseCase) attest(ctx context.Context, token, deviceID string) error {
	verification, err := uc.gate.Verify(ctx, token, deviceID)
	if err != nil {
		if errors.Is(err, attestation.ErrNotConfigured) {
			uc.logger.Errorw("attestation not configured in production", "device_id", deviceID)
			return apperrors.NewMisconfigurationError("service temporarily unavailable")
		}
		if errors.Is(err, attestation.ErrVendorUnavailable) {
			uc.logger.Warnw("attestation vendor unreachable", "error", err, "device_id", deviceID)
			return apperrors.NewUpstreamUnavailableError("attestation service unavailable, try again")
		}
		uc.logger.Errorw("attestation check failed", "error", err, "device_id", deviceID)
		return apperrors.NewInternalError("attestation check failed")
	}

	switch verification.Outcome {
	case attestation.OutcomeVerified, attestation.OutcomeNotConfigured:
		return nil
	case attestation.OutcomeRejected:
		if verification.Reason == attestation.ReasonTokenMissing {
			return apperrors.NewForbiddenError("attestation token is required, update the app")
		}
		uc.logger.Warnw("attestation token rejected", "device_id", deviceID)
		return apperrors.NewForbiddenError("device attestation failed")
	default:
		return apperrors.NewInternalError("unknown attestation outcome")
	}
}

// settle resolves the reservation on a context detached from the request so
// a cancelled or disconnected client cannot leave the hold pending. Errors
// are logged, not returned: the reconciliation job releases stragglers.
func (uc *RequestAnalysisUseCase) settle(ctx context.Context, reservationID string, outcome credit.SettleOutcome) {
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if err := uc.accounts.Settle(settleCtx, reservationID, outcome); err != nil {
		uc.logger.Errorw("failed to settle reservation",
			"error", err,
			"reservation_id", reservationID,
			"outcome", outcome,
		)
	}
}

// freshBalance rereads the account after settlement. A read failure here must
// not fail an analysis that already succeeded, so it degrades to a zeroed
// snapshot flagged as such.
func (uc *RequestAnalysisUseCase) freshBalance(ctx context.Context, deviceID string) creditdto.BalanceDTO {
	account, err := uc.accounts.GetOrCreate(ctx, deviceID)
	if err != nil {
		uc.logger.Warnw("failed to reload balance after analysis", "error", err, "device_id", deviceID)
		return creditdto.FromBalance(credit.DegradedBalance(0))
	}
	return creditdto.FromBalance(account.Balance())
}
