package task

import (
	"fmt"

	"courierdesk/internal/pkg/errs"
)

// Status is the lifecycle state of a task.
//
// State transitions:
//
//	Pending ──> Assigned ──> InProgress ⇄ Paused
//	               │              │          │
//	               └──────────────┴──────────┴──> Delivered
//
// Cancellation is not a transition: a Pending task is removed instead.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	// Pending tasks wait for a courier to claim them.
	Pending
	// Assigned tasks have a courier who has not started moving yet.
	Assigned
	// InProgress tasks are being delivered and stream courier positions.
	InProgress
	// Paused tasks keep their courier and last known position.
	Paused
	// Delivered is terminal. Only a rating may still be recorded.
	Delivered
)

var statusNames = map[Status]string{
	Pending:    "pending",
	Assigned:   "assigned",
	InProgress: "in_progress",
	Paused:     "paused",
	Delivered:  "delivered",
}

// ParseStatus maps a wire name ("pending", "in_progress", ...) to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name. It is also the representation persisted by
// every storage adapter.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsActive reports whether a courier currently holds the task.
func (s Status) IsActive() bool {
	return s == Assigned || s == InProgress || s == Paused
}

// HasCourier reports whether a task in this status must carry a courier.
func (s Status) HasCourier() bool {
	return s.IsActive() || s == Delivered
}

// ValidateCanHaveCourier checks the status against the presence of a courier.
func (s Status) ValidateCanHaveCourier(hasCourier bool) error {
	if hasCourier && !s.HasCourier() {
		return errs.NewValueIsInvalidErrorWithCause("courier", fmt.Errorf("a %s task cannot have a courier", s))
	}
	if !hasCourier && s.HasCourier() {
		return errs.NewValueIsInvalidErrorWithCause("courier", fmt.Errorf("a %s task must have a courier", s))
	}
	return nil
}

// Claim moves Pending to Assigned.
func (s Status) Claim() (Status, error) {
	if s != Pending {
		return Unknown, errs.NewInvalidTransitionError("claim", s.String())
	}
	return Assigned, nil
}

// Start moves Assigned or Paused to InProgress.
func (s Status) Start() (Status, error) {
	if s != Assigned && s != Paused {
		return Unknown, errs.NewInvalidTransitionError("start", s.String())
	}
	return InProgress, nil
}

// Pause moves InProgress to Paused.
func (s Status) Pause() (Status, error) {
	if s != InProgress {
		return Unknown, errs.NewInvalidTransitionError("pause", s.String())
	}
	return Paused, nil
}

// Complete moves any active status to Delivered.
func (s Status) Complete() (Status, error) {
	if !s.IsActive() {
		return Unknown, errs.NewInvalidTransitionError("complete", s.String())
	}
	return Delivered, nil
}

// ValidateCancel allows cancellation of Pending tasks only.
func (s Status) ValidateCancel() error {
	if s != Pending {
		return errs.NewInvalidTransitionError("cancel", s.String())
	}
	return nil
}

// ValidateDiscard allows removal of Delivered tasks only.
func (s Status) ValidateDiscard() error {
	if s != Delivered {
		return errs.NewInvalidTransitionError("discard", s.String())
	}
	return nil
}
