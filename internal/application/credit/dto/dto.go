// Package dto contains data transfer objects for credit operations.
package dto

import "github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"

// BalanceDTO is the authoritative credit balance returned to clients.
type BalanceDTO struct {
	FreeLimit     int  `json:"freeLimit"`
	FreeUsed      int  `json:"freeUsed"`
	FreeRemaining int  `json:"freeRemaining"`
	PaidCredits   int  `json:"paidCredits"`
	TotalCredits  int  `json:"totalCredits"`
	TotalAnalyses int  `json:"totalAnalyses"`
	Degraded      bool `json:"degraded,omitempty"`
}

// FromBalance maps a domain balance snapshot to its DTO.
func FromBalance(b credit.Balance) BalanceDTO {
	return BalanceDTO{
		FreeLimit:     b.FreeLimit,
		FreeUsed:      b.FreeUsed,
		FreeRemaining: b.FreeRemaining(),
		PaidCredits:   b.PaidCredits,
		TotalCredits:  b.TotalCredits(),
		TotalAnalyses: b.TotalAnalyses,
		Degraded:      b.Degraded,
	}
}

// PurchaseResultDTO is the response of a purchase application.
// CreditsAdded is zero when the transaction had already been applied; the
// retry is reported as success, not as an error.
type PurchaseResultDTO struct {
	CreditsAdded int        `json:"creditsAdded"`
	NewBalance   BalanceDTO `json:"newBalance"`
}
