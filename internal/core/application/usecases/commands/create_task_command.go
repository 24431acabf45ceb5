package commands

import (
	"errors"
	"strings"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/guard"
)

var ErrCreateTaskCommandIsNotConstructed = errors.New(
	"CreateTaskCommand must be created via NewCreateTaskCommand constructor",
)

// CreateTaskCommand asks for a new delivery to destination on behalf of a
// customer. The task id is chosen by the caller so it can be returned before
// the handler runs.
//
// Example:
//
//	dest, _ := kernel.NewGeoPoint(41.0082, 28.9784)
//	cmd, err := NewCreateTaskCommand(kernel.NewUUID(), "uid-1", "ada@example.com", dest, "", "ring twice")
type CreateTaskCommand struct { //nolint:recvcheck //using for validation
	taskID        kernel.UUID
	customerID    kernel.UserID
	customerEmail string
	destination   kernel.GeoPoint
	address       string
	notes         string

	guard guard.ConstructorGuard
}

// NewCreateTaskCommand validates identifiers and the destination. A blank
// address is resolved by the handler through the geocoder.
func NewCreateTaskCommand(
	taskID kernel.UUID,
	customerID kernel.UserID,
	customerEmail string,
	destination kernel.GeoPoint,
	address string,
	notes string,
) (CreateTaskCommand, error) {
	cmd := CreateTaskCommand{
		customerEmail: strings.TrimSpace(customerEmail),
		address:       strings.TrimSpace(address),
		notes:         notes,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setTaskID(taskID),
		cmd.setCustomerID(customerID),
		cmd.setDestination(destination),
	); err != nil {
		return CreateTaskCommand{}, err
	}

	return cmd, nil
}

func (c CreateTaskCommand) Validate() error {
	return c.guard.Validate(ErrCreateTaskCommandIsNotConstructed)
}

func (c CreateTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c CreateTaskCommand) CustomerID() kernel.UserID {
	return c.customerID
}

func (c CreateTaskCommand) CustomerEmail() string {
	return c.customerEmail
}

func (c CreateTaskCommand) Destination() kernel.GeoPoint {
	return c.destination
}

func (c CreateTaskCommand) Address() string {
	return c.address
}

func (c CreateTaskCommand) Notes() string {
	return c.notes
}

func (c *CreateTaskCommand) setTaskID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.taskID = id
	return nil
}

func (c *CreateTaskCommand) setCustomerID(id kernel.UserID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.customerID = id
	return nil
}

func (c *CreateTaskCommand) setDestination(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.destination = p
	return nil
}
