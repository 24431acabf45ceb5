// Package ports declares what the application core needs from the outside
// world: persistence, change notification, reverse geocoding and a source of
// courier positions. Adapters under internal/adapters implement them.
package ports

import (
	"context"
	"slices"
	"sort"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
)

// TaskRepository defines the persistence contract for Task aggregates.
//
// Store I/O failures are returned as errs.StoreUnavailableError and are
// never retried by the implementation.
type TaskRepository interface {
	// Add persists a new task. Its version becomes 1.
	Add(ctx context.Context, aggregate *task.Task) error

	// Update writes every mutable field of the task, provided the stored
	// version still equals aggregate.Version(). On success the aggregate's
	// version is advanced. A mismatch yields errs.StaleObjectError, a missing
	// task errs.ObjectNotFoundError.
	Update(ctx context.Context, aggregate *task.Task) error

	// UpdateLocation writes only the current location. The write is
	// conditioned on the task being InProgress and assigned to courierID, so
	// a sample racing with Pause or Complete is dropped with
	// errs.InvalidTransitionError and a sample from another user with
	// errs.UnauthorizedError. The version is not changed.
	UpdateLocation(ctx context.Context, id kernel.UUID, courierID kernel.UserID, sample task.LocationSample) error

	// Delete removes the task if its stored version equals
	// aggregate.Version().
	Delete(ctx context.Context, aggregate *task.Task) error

	// Get returns errs.ObjectNotFoundError when the task does not exist.
	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// Find returns the tasks matching filter, ordered as filter.Order asks.
	Find(ctx context.Context, filter TaskFilter) ([]*task.Task, error)
}

// TaskOrder selects the sort order of Find results.
type TaskOrder int

const (
	// OrderByCreatedDesc lists the newest tasks first.
	OrderByCreatedDesc TaskOrder = iota
	// OrderByDeliveredDesc lists the most recently delivered tasks first.
	// Tasks without a delivery time sort last.
	OrderByDeliveredDesc
)

// TaskFilter is a conjunction of optional predicates. Zero fields match
// everything.
type TaskFilter struct {
	CustomerID        kernel.UserID
	CourierID         kernel.UserID
	ExcludeCustomerID kernel.UserID
	Statuses          []task.Status
	Order             TaskOrder
}

// Matches evaluates the filter against one task. Adapters that cannot push
// every predicate down to the store use it to post-filter.
func (f TaskFilter) Matches(t *task.Task) bool {
	if f.CustomerID != "" && !t.IsOwnedBy(f.CustomerID) {
		return false
	}
	if f.CourierID != "" && !t.IsAssignedTo(f.CourierID) {
		return false
	}
	if f.ExcludeCustomerID != "" && t.IsOwnedBy(f.ExcludeCustomerID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status()) {
		return false
	}
	return true
}

// Sort orders tasks in place according to f.Order. Ties are broken by id so
// that repeated reads produce the same sequence.
func (f TaskFilter) Sort(tasks []*task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if f.Order == OrderByDeliveredDesc {
			da, db := a.DeliveredAt(), b.DeliveredAt()
			switch {
			case da != nil && db != nil && !da.Equal(*db):
				return da.After(*db)
			case da != nil && db == nil:
				return true
			case da == nil && db != nil:
				return false
			}
		}
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID().String() < b.ID().String()
	})
}
