package queries

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/guard"
)

var ErrListCustomerTasksQueryIsNotConstructed = errors.New(
	"ListCustomerTasksQuery must be created via NewListCustomerTasksQuery constructor",
)

// ListCustomerTasksQuery lists every task a customer created, newest first.
type ListCustomerTasksQuery struct {
	customerID kernel.UserID

	guard guard.ConstructorGuard
}

func NewListCustomerTasksQuery(customerID kernel.UserID) (ListCustomerTasksQuery, error) {
	if err := customerID.Validate(); err != nil {
		return ListCustomerTasksQuery{}, err
	}
	return ListCustomerTasksQuery{customerID: customerID, guard: guard.NewConstructorGuard()}, nil
}

func (q ListCustomerTasksQuery) Validate() error {
	return q.guard.Validate(ErrListCustomerTasksQueryIsNotConstructed)
}

func (q ListCustomerTasksQuery) CustomerID() kernel.UserID {
	return q.customerID
}

// Filter is the repository filter selecting the customer's tasks.
func (q ListCustomerTasksQuery) Filter() ports.TaskFilter {
	return ports.TaskFilter{CustomerID: q.customerID, Order: ports.OrderByCreatedDesc}
}
