package models

import "time"

type DeviceAccountModel struct {
	ID            uint   `gorm:"primaryKey"`
	DeviceID      string `gorm:"uniqueIndex;size:128;not null"`
	FreeLimit     int    `gorm:"not null;default:3"`
	FreeUsed      int    `gorm:"not null;default:0"`
	PaidCredits   int    `gorm:"not null;default:0"`
	Reserved      int    `gorm:"not null;default:0"`
	TotalAnalyses int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (DeviceAccountModel) TableName() string {
	return "device_accounts"
}
