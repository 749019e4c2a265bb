package migration

import (
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.DeviceAccountModel{},
		&models.CreditReservationModel{},
		&models.PurchaseTransactionModel{},
	}
}
