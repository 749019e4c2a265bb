package scheduler

import (
	"context"

	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/biztime"
)

// ReservationReconciler releases credit reservations left pending past their
// hold deadline, e.g. when the process died between Authorizing and Settling.
type ReservationReconciler struct {
	accounts credit.Repository
}

// NewReservationReconciler creates the stale-reservation release job
func NewReservationReconciler(accounts credit.Repository) *ReservationReconciler {
	return &ReservationReconciler{accounts: accounts}
}

var _ BatchJob = (*ReservationReconciler)(nil)

// Execute releases one batch of expired reservations.
func (j *ReservationReconciler) Execute(ctx context.Context) (int, error) {
	return j.accounts.ReleaseExpired(ctx, biztime.NowUTC())
}
