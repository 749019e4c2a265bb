package usecases

import (
	"context"
	"errors"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/credit/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	apperrors "github.com/fredylg/ReefBuddy-sub001/internal/shared/errors"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

type GetBalanceQuery struct {
	DeviceID string
}

// GetBalanceUseCase returns the authoritative balance for a device, creating
// the account on first contact. When the store is unreachable it degrades to
// the read-only default balance instead of failing the request.
type GetBalanceUseCase struct {
	accounts  credit.Repository
	freeLimit int
	logger    logger.Interface
}

func NewGetBalanceUseCase(
	accounts credit.Repository,
	freeLimit int,
	logger logger.Interface,
) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		accounts:  accounts,
		freeLimit: freeLimit,
		logger:    logger,
	}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, query GetBalanceQuery) (*dto.BalanceDTO, error) {
	if err := credit.ValidateDeviceID(query.DeviceID); err != nil {
		return nil, apperrors.NewValidationError("invalid device ID", err.Error())
	}

	account, err := uc.accounts.GetOrCreate(ctx, query.DeviceID)
	if err != nil {
		if errors.Is(err, credit.ErrStoreUnavailable) {
			uc.logger.Warnw("serving degraded default balance, account store unavailable",
				"error", err,
				"device_id", query.DeviceID,
			)
			degraded := dto.FromBalance(credit.DegradedBalance(uc.freeLimit))
			return &degraded, nil
		}
		uc.logger.Errorw("failed to load device account", "error", err, "device_id", query.DeviceID)
		return nil, apperrors.NewInternalError("failed to load balance")
	}

	balance := dto.FromBalance(account.Balance())
	return &balance, nil
}
