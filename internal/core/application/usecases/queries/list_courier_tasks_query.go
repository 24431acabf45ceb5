package queries

import (
	"errors"
	"fmt"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/guard"
)

var ErrListCourierTasksQueryIsNotConstructed = errors.New(
	"ListCourierTasksQuery must be created via NewListCourierTasksQuery constructor",
)

// CourierView selects one of the three lists a courier works with.
type CourierView string

const (
	// ViewActive lists tasks the courier holds and has not delivered yet.
	ViewActive CourierView = "active"
	// ViewAvailable lists Pending tasks of other users, ready to be claimed.
	ViewAvailable CourierView = "available"
	// ViewCompleted lists the courier's delivered tasks, most recent first.
	ViewCompleted CourierView = "completed"
)

func ParseCourierView(s string) (CourierView, error) {
	switch v := CourierView(s); v {
	case ViewActive, ViewAvailable, ViewCompleted:
		return v, nil
	case "":
		return ViewActive, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("view", fmt.Errorf("%q is not one of active, available, completed", s))
	}
}

type ListCourierTasksQuery struct {
	courierID kernel.UserID
	view      CourierView

	guard guard.ConstructorGuard
}

func NewListCourierTasksQuery(courierID kernel.UserID, view CourierView) (ListCourierTasksQuery, error) {
	if err := courierID.Validate(); err != nil {
		return ListCourierTasksQuery{}, err
	}
	if _, err := ParseCourierView(string(view)); err != nil {
		return ListCourierTasksQuery{}, err
	}
	if view == "" {
		view = ViewActive
	}
	return ListCourierTasksQuery{courierID: courierID, view: view, guard: guard.NewConstructorGuard()}, nil
}

func (q ListCourierTasksQuery) Validate() error {
	return q.guard.Validate(ErrListCourierTasksQueryIsNotConstructed)
}

func (q ListCourierTasksQuery) CourierID() kernel.UserID {
	return q.courierID
}

func (q ListCourierTasksQuery) View() CourierView {
	return q.view
}

// Filter translates the view into a repository filter. A courier never sees
// their own customer tasks in the available list.
func (q ListCourierTasksQuery) Filter() ports.TaskFilter {
	switch q.view {
	case ViewAvailable:
		return ports.TaskFilter{
			ExcludeCustomerID: q.courierID,
			Statuses:          []task.Status{task.Pending},
			Order:             ports.OrderByCreatedDesc,
		}
	case ViewCompleted:
		return ports.TaskFilter{
			CourierID: q.courierID,
			Statuses:  []task.Status{task.Delivered},
			Order:     ports.OrderByDeliveredDesc,
		}
	default:
		return ports.TaskFilter{
			CourierID: q.courierID,
			Statuses:  []task.Status{task.Assigned, task.InProgress, task.Paused},
			Order:     ports.OrderByCreatedDesc,
		}
	}
}
