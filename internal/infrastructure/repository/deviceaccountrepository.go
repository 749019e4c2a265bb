package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/purchase"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/persistence/models"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/errors"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/id"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

// DeviceAccountRepositoryImpl implements the credit.Repository interface.
// Every balance mutation is a single conditional UPDATE (or an insert plus
// increment inside one transaction), never a separate read-then-write, so the
// ledger stays correct under concurrent requests and multiple instances.
type DeviceAccountRepositoryImpl struct {
	db        *gorm.DB
	freeLimit int
	logger    logger.Interface
}

// NewDeviceAccountRepository creates a new device account repository instance
func NewDeviceAccountRepository(db *gorm.DB, freeLimit int, logger logger.Interface) credit.Repository {
	if freeLimit <= 0 {
		freeLimit = credit.DefaultFreeLimit
	}
	return &DeviceAccountRepositoryImpl{
		db:        db,
		freeLimit: freeLimit,
		logger:    logger,
	}
}

// GetOrCreate returns the account for a device, creating it lazily with
// default counters.
func (r *DeviceAccountRepositoryImpl) GetOrCreate(ctx context.Context, deviceID string) (*credit.DeviceAccount, error) {
	if err := credit.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	model, err := r.getOrCreateModel(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return r.toDomain(model)
}

func (r *DeviceAccountRepositoryImpl) getOrCreateModel(ctx context.Context, deviceID string) (*models.DeviceAccountModel, error) {
	var model models.DeviceAccountModel
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Attrs(models.DeviceAccountModel{DeviceID: deviceID, FreeLimit: r.freeLimit}).
		FirstOrCreate(&model).Error
	if err != nil {
		// A concurrent request may have created the row between the lookup
		// and the insert; re-read before giving up.
		if errors.IsDuplicateError(err) {
			if retryErr := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&model).Error; retryErr == nil {
				return &model, nil
			}
		}
		r.logger.Errorw("failed to get or create device account", "device_id", deviceID, "error", err)
		return nil, fmt.Errorf("%w: %v", credit.ErrStoreUnavailable, err)
	}
	return &model, nil
}

// AuthorizeAndReserve atomically checks the available balance and marks one
// unit reserved. The check and the reservation mark are one conditional
// UPDATE; two concurrent requests can never both observe the same last unit.
func (r *DeviceAccountRepositoryImpl) AuthorizeAndReserve(ctx context.Context, deviceID string, holdFor time.Duration) (*credit.Reservation, error) {
	if err := credit.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if _, err := r.getOrCreateModel(ctx, deviceID); err != nil {
		return nil, err
	}

	reservationID, err := id.NewReservationID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservation ID: %w", err)
	}

	reservation, err := credit.NewReservation(reservationID, deviceID, holdFor)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE device_accounts
			 SET reserved = reserved + 1, updated_at = ?
			 WHERE device_id = ? AND (free_limit - free_used + paid_credits - reserved) > 0`,
			time.Now().UTC(), deviceID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return credit.ErrInsufficientCredit
		}

		return tx.Create(&models.CreditReservationModel{
			ID:        reservation.ID(),
			DeviceID:  deviceID,
			Status:    string(credit.ReservationStatusPending),
			ExpiresAt: reservation.ExpiresAt(),
		}).Error
	})
	if err != nil {
		if err == credit.ErrInsufficientCredit {
			return nil, err
		}
		r.logger.Errorw("failed to reserve credit", "device_id", deviceID, "error", err)
		return nil, fmt.Errorf("failed to reserve credit: %w", err)
	}

	r.logger.Debugw("credit reserved",
		"device_id", deviceID,
		"reservation_id", reservation.ID())
	return reservation, nil
}

// Settle resolves a reservation. The pending-to-terminal transition is a
// conditional UPDATE whose affected-row count decides whether the balance
// mutation runs, which makes repeated Settle calls a no-op.
func (r *DeviceAccountRepositoryImpl) Settle(ctx context.Context, reservationID string, outcome credit.SettleOutcome) error {
	if !outcome.IsValid() {
		return fmt.Errorf("invalid settle outcome: %s", outcome)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.settleTx(tx, reservationID, outcome)
	})
}

func (r *DeviceAccountRepositoryImpl) settleTx(tx *gorm.DB, reservationID string, outcome credit.SettleOutcome) error {
	var model models.CreditReservationModel
	if err := tx.Where("id = ?", reservationID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return credit.ErrReservationNotFound
		}
		return fmt.Errorf("failed to load reservation: %w", err)
	}

	reservation, err := credit.ReconstructReservation(
		model.ID,
		model.DeviceID,
		credit.ReservationStatus(model.Status),
		model.CreatedAt,
		model.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to reconstruct reservation: %w", err)
	}

	result := tx.Exec(
		`UPDATE credit_reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(outcome.ToStatus()), time.Now().UTC(), reservationID, string(credit.ReservationStatusPending),
	)
	if result.Error != nil {
		return fmt.Errorf("failed to settle reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already settled; idempotent no-op.
		r.logger.Debugw("reservation already settled", "reservation_id", reservationID)
		return nil
	}

	switch outcome {
	case credit.OutcomeConsumed:
		// Free before paid. Both CASE conditions read the pre-update
		// free_used, so the assignment order matters on MySQL.
		result = tx.Exec(
			`UPDATE device_accounts
			 SET paid_credits   = CASE WHEN free_used < free_limit THEN paid_credits ELSE paid_credits - 1 END,
			     free_used      = CASE WHEN free_used < free_limit THEN free_used + 1 ELSE free_used END,
			     reserved       = reserved - 1,
			     total_analyses = total_analyses + 1,
			     updated_at     = ?
			 WHERE device_id = ? AND reserved > 0 AND (free_limit - free_used + paid_credits) > 0`,
			time.Now().UTC(), reservation.DeviceID(),
		)
	case credit.OutcomeReleased:
		result = tx.Exec(
			`UPDATE device_accounts SET reserved = reserved - 1, updated_at = ?
			 WHERE device_id = ? AND reserved > 0`,
			time.Now().UTC(), reservation.DeviceID(),
		)
	}
	if result.Error != nil {
		return fmt.Errorf("failed to apply settlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// A pending reservation always holds one reserved unit, so this
		// means the ledger no longer matches its reservations.
		r.logger.Errorw("settlement found no matching reserved unit",
			"reservation_id", reservationID,
			"device_id", reservation.DeviceID(),
			"outcome", outcome)
		return fmt.Errorf("reservation %s has no matching reserved unit", reservationID)
	}

	r.logger.Debugw("reservation settled",
		"reservation_id", reservationID,
		"device_id", reservation.DeviceID(),
		"outcome", outcome)
	return nil
}

// ReleaseExpired releases pending reservations past their hold deadline.
func (r *DeviceAccountRepositoryImpl) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	var stale []models.CreditReservationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(credit.ReservationStatusPending), now).
		Limit(100).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list expired reservations: %w", err)
	}

	released := 0
	for _, reservation := range stale {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.settleTx(tx, reservation.ID, credit.OutcomeReleased)
		})
		if err != nil {
			r.logger.Errorw("failed to release expired reservation",
				"reservation_id", reservation.ID,
				"error", err)
			continue
		}
		released++
	}

	if released > 0 {
		r.logger.Infow("released expired reservations", "count", released)
	}
	return released, nil
}

// ApplyPurchase inserts the transaction row and increments the paid pool as
// one unit. The unique index on transaction_id is the sole defense against
// duplicate crediting from client retries or replayed transaction updates.
func (r *DeviceAccountRepositoryImpl) ApplyPurchase(ctx context.Context, deviceID, transactionID, originalTransactionID, productID string, credits int, encryptedReceipt []byte) error {
	entry, err := purchase.NewTransaction(transactionID, originalTransactionID, productID, deviceID, credits, encryptedReceipt)
	if err != nil {
		return err
	}
	if _, err := r.getOrCreateModel(ctx, deviceID); err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.PurchaseTransactionModel{
			TransactionID:         entry.TransactionID(),
			OriginalTransactionID: entry.OriginalTransactionID(),
			ProductID:             entry.ProductID(),
			DeviceID:              entry.DeviceID(),
			CreditsGranted:        entry.CreditsGranted(),
			EncryptedReceipt:      entry.EncryptedReceipt(),
			AppliedAt:             entry.AppliedAt(),
		}
		if err := tx.Create(model).Error; err != nil {
			if errors.IsDuplicateError(err) {
				return purchase.ErrAlreadyApplied
			}
			return err
		}

		return tx.Exec(
			`UPDATE device_accounts SET paid_credits = paid_credits + ?, updated_at = ? WHERE device_id = ?`,
			credits, time.Now().UTC(), deviceID,
		).Error
	})
	if err != nil {
		if err == purchase.ErrAlreadyApplied {
			return err
		}
		r.logger.Errorw("failed to apply purchase",
			"device_id", deviceID,
			"transaction_id", transactionID,
			"error", err)
		return fmt.Errorf("failed to apply purchase: %w", err)
	}

	r.logger.Infow("purchase applied",
		"device_id", deviceID,
		"transaction_id", transactionID,
		"product_id", productID,
		"credits", credits)
	return nil
}

func (r *DeviceAccountRepositoryImpl) toDomain(model *models.DeviceAccountModel) (*credit.DeviceAccount, error) {
	account, err := credit.ReconstructDeviceAccount(
		model.ID,
		model.DeviceID,
		model.FreeLimit,
		model.FreeUsed,
		model.PaidCredits,
		model.Reserved,
		model.TotalAnalyses,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct device account", "device_id", model.DeviceID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct device account: %w", err)
	}
	return account, nil
}
