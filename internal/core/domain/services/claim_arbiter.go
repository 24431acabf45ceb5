package services

import (
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/pkg/errs"
)

// ClaimOutcome tells the caller whether Arbitrate changed the task.
type ClaimOutcome int

const (
	// ClaimGranted means the task moved from Pending to Assigned and must be
	// written back.
	ClaimGranted ClaimOutcome = iota + 1
	// ClaimAlreadyHeld means the courier already holds the task and nothing
	// needs to be written.
	ClaimAlreadyHeld
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimGranted:
		return "granted"
	case ClaimAlreadyHeld:
		return "already_held"
	default:
		return "unknown"
	}
}

// ClaimArbiter applies the claim policy to a task read from storage.
//
// Business rules:
//   - the customer of a task can never claim it (Unauthorized, whatever the status)
//   - a Pending task is granted to the first courier whose write lands
//   - the courier already holding an Assigned or Paused task may claim it again
//     without effect
//   - every other claim is an InvalidTransition
//
// Example usage:
//
//	outcome, err := services.NewClaimArbiter().Arbitrate(t, courier)
//	if err != nil {
//	    return err
//	}
//	if outcome == services.ClaimGranted {
//	    err = repo.Update(ctx, t) // conditional on t.Version()
//	}
type ClaimArbiter struct{}

func NewClaimArbiter() ClaimArbiter {
	return ClaimArbiter{}
}

// Arbitrate mutates t only when it returns ClaimGranted.
func (a ClaimArbiter) Arbitrate(t *task.Task, courier task.Participant) (ClaimOutcome, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if err := courier.ID().Validate(); err != nil {
		return 0, err
	}

	if t.IsOwnedBy(courier.ID()) {
		return 0, errs.NewUnauthorizedError(courier.ID().String(), "cannot claim their own task")
	}

	if t.IsAssignedTo(courier.ID()) && (t.Status() == task.Assigned || t.Status() == task.Paused) {
		return ClaimAlreadyHeld, nil
	}

	if err := t.Claim(courier); err != nil {
		return 0, err
	}
	return ClaimGranted, nil
}
