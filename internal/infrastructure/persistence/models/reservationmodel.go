package models

import "time"

type CreditReservationModel struct {
	ID        string    `gorm:"primaryKey;size:32"`
	DeviceID  string    `gorm:"index;size:128;not null"`
	Status    string    `gorm:"size:16;not null;index"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CreditReservationModel) TableName() string {
	return "credit_reservations"
}
