package commands

import (
	"errors"
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/pkg/guard"
)

var ErrRecordLocationCommandIsNotConstructed = errors.New(
	"RecordLocationCommand must be created via NewRecordLocationCommand constructor",
)

// RecordLocationCommand carries one courier position sample.
type RecordLocationCommand struct {
	taskAction
	sample task.LocationSample

	guard guard.ConstructorGuard
}

func NewRecordLocationCommand(
	taskID kernel.UUID,
	courierID kernel.UserID,
	point kernel.GeoPoint,
	at time.Time,
) (RecordLocationCommand, error) {
	action, actionErr := newTaskAction(taskID, courierID)
	sample, sampleErr := task.NewLocationSample(point, at)
	if err := errors.Join(actionErr, sampleErr); err != nil {
		return RecordLocationCommand{}, err
	}

	return RecordLocationCommand{
		taskAction: action,
		sample:     sample,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c RecordLocationCommand) Validate() error {
	return c.guard.Validate(ErrRecordLocationCommandIsNotConstructed)
}

func (c RecordLocationCommand) Sample() task.LocationSample {
	return c.sample
}
