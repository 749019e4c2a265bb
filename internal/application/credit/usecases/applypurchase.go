package usecases

import (
	"context"
	"errors"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/credit/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/purchase"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/crypto"
	apperrors "github.com/fredylg/ReefBuddy-sub001/internal/shared/errors"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

type ApplyPurchaseCommand struct {
	DeviceID          string
	ProductID         string
	SignedTransaction string
	TransactionID     string
}

// ApplyPurchaseUseCase verifies a signed store transaction and credits the
// device's paid pool exactly once per transaction ID. The raw signed payload
// is encrypted before it touches the ledger; if the receipt key is not
// configured the purchase is refused before any verification or mutation.
type ApplyPurchaseUseCase struct {
	accounts credit.Repository
	verifier purchase.Verifier
	cipher   *crypto.ReceiptCipher
	products map[string]int
	logger   logger.Interface
}

func NewApplyPurchaseUseCase(
	accounts credit.Repository,
	verifier purchase.Verifier,
	cipher *crypto.ReceiptCipher,
	products map[string]int,
	logger logger.Interface,
) *ApplyPurchaseUseCase {
	return &ApplyPurchaseUseCase{
		accounts: accounts,
		verifier: verifier,
		cipher:   cipher,
		products: products,
		logger:   logger,
	}
}

func (uc *ApplyPurchaseUseCase) Execute(ctx context.Context, cmd ApplyPurchaseCommand) (*dto.PurchaseResultDTO, error) {
	if err := credit.ValidateDeviceID(cmd.DeviceID); err != nil {
		return nil, apperrors.NewValidationError("invalid device ID", err.Error())
	}
	if cmd.SignedTransaction == "" {
		return nil, apperrors.NewValidationError("signed transaction is required")
	}

	// Purchases are refused outright when receipt encryption is not
	// configured. Accepting the payment and dropping the receipt would
	// leave the ledger without its audit record.
	if uc.cipher == nil {
		uc.logger.Errorw("purchase refused, receipt encryption key not configured",
			"device_id", cmd.DeviceID,
			"product_id", cmd.ProductID,
		)
		return nil, apperrors.NewMisconfigurationError("purchases are temporarily unavailable")
	}

	verified, err := uc.verifier.Verify(ctx, cmd.SignedTransaction)
	if err != nil {
		uc.logger.Warnw("purchase verification failed",
			"error", err,
			"device_id", cmd.DeviceID,
			"product_id", cmd.ProductID,
		)
		return nil, apperrors.NewValidationError("transaction verification failed")
	}

	if cmd.ProductID != "" && verified.ProductID != cmd.ProductID {
		uc.logger.Warnw("purchase product mismatch",
			"device_id", cmd.DeviceID,
			"claimed_product_id", cmd.ProductID,
			"signed_product_id", verified.ProductID,
		)
		return nil, apperrors.NewValidationError("product does not match signed transaction")
	}

	credits, ok := uc.products[verified.ProductID]
	if !ok || credits <= 0 {
		uc.logger.Warnw("purchase for unmapped product",
			"device_id", cmd.DeviceID,
			"product_id", verified.ProductID,
		)
		return nil, apperrors.NewValidationError("unknown product")
	}

	// The signed envelope is the only trusted source of the transaction
	// identity. A client-claimed ID is checked against it, never substituted.
	if cmd.TransactionID != "" && verified.TransactionID != cmd.TransactionID {
		uc.logger.Warnw("purchase transaction ID mismatch",
			"device_id", cmd.DeviceID,
			"claimed_transaction_id", cmd.TransactionID,
			"signed_transaction_id", verified.TransactionID,
		)
		return nil, apperrors.NewValidationError("transaction ID does not match signed transaction")
	}
	transactionID := verified.TransactionID

	encrypted, err := uc.cipher.Seal(transactionID, []byte(cmd.SignedTransaction))
	if err != nil {
		uc.logger.Errorw("failed to encrypt receipt", "error", err, "transaction_id", transactionID)
		return nil, apperrors.NewInternalError("failed to record purchase")
	}

	applyErr := uc.accounts.ApplyPurchase(
		ctx,
		cmd.DeviceID,
		transactionID,
		verified.OriginalTransactionID,
		verified.ProductID,
		credits,
		encrypted,
	)

	creditsAdded := credits
	switch {
	case applyErr == nil:
		uc.logger.Infow("purchase applied",
			"device_id", cmd.DeviceID,
			"transaction_id", transactionID,
			"product_id", verified.ProductID,
			"credits", credits,
		)
	case errors.Is(applyErr, purchase.ErrAlreadyApplied):
		// Retried receipt of a transaction already credited. The client
		// retried because it never saw the success; report success again.
		uc.logger.Infow("purchase already applied, idempotent retry",
			"device_id", cmd.DeviceID,
			"transaction_id", transactionID,
		)
		creditsAdded = 0
	default:
		uc.logger.Errorw("failed to apply purchase",
			"error", applyErr,
			"device_id", cmd.DeviceID,
			"transaction_id", transactionID,
		)
		return nil, apperrors.NewInternalError("failed to record purchase")
	}

	account, err := uc.accounts.GetOrCreate(ctx, cmd.DeviceID)
	if err != nil {
		uc.logger.Errorw("failed to reload balance after purchase", "error", err, "device_id", cmd.DeviceID)
		return nil, apperrors.NewInternalError("purchase recorded but balance unavailable")
	}

	return &dto.PurchaseResultDTO{
		CreditsAdded: creditsAdded,
		NewBalance:   dto.FromBalance(account.Balance()),
	}, nil
}
