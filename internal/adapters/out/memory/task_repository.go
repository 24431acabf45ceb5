package memory

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

var _ ports.TaskRepository = (*TaskRepository)(nil)

type TaskRepository struct {
	uow *UnitOfWork
}

func (r *TaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.uow.store.mu.RLock()
	_, exists := r.uow.store.tasks[aggregate.ID()]
	r.uow.store.mu.RUnlock()
	if exists {
		return errs.NewValueIsInvalidError("task " + aggregate.ID().String() + " already exists")
	}

	aggregate.AdvanceVersion()
	state := aggregate.Snapshot()
	return r.uow.apply(ctx, func(s *Store) {
		// The location belongs to UpdateLocation until delivery clears it.
		if current, ok := s.tasks[state.ID]; ok && state.Status != task.Delivered {
			state.CurrentLocation = current.CurrentLocation
		}
		s.tasks[state.ID] = state
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: state.ID})
}

func (r *TaskRepository) Update(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := r.checkVersion(aggregate); err != nil {
		return err
	}

	aggregate.AdvanceVersion()
	state := aggregate.Snapshot()
	return r.uow.apply(ctx, func(s *Store) {
		s.tasks[state.ID] = state
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: state.ID})
}

func (r *TaskRepository) UpdateLocation(
	ctx context.Context,
	id kernel.UUID,
	courierID kernel.UserID,
	sample task.LocationSample,
) error {
	r.uow.store.mu.RLock()
	stored, ok := r.uow.store.tasks[id]
	r.uow.store.mu.RUnlock()

	if !ok {
		return errs.NewObjectNotFoundError("taskID", id.String())
	}
	if err := checkLocationWrite(stored, courierID); err != nil {
		return err
	}

	return r.uow.apply(ctx, func(s *Store) {
		current, ok := s.tasks[id]
		if !ok || checkLocationWrite(current, courierID) != nil {
			return
		}
		current.CurrentLocation = &sample
		s.tasks[id] = current
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: id})
}

func (r *TaskRepository) Delete(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := r.checkVersion(aggregate); err != nil {
		return err
	}

	id := aggregate.ID()
	return r.uow.apply(ctx, func(s *Store) {
		delete(s.tasks, id)
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: id, Deleted: true})
}

func (r *TaskRepository) Get(_ context.Context, id kernel.UUID) (*task.Task, error) {
	r.uow.store.mu.RLock()
	state, ok := r.uow.store.tasks[id]
	r.uow.store.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("taskID", id.String())
	}
	return task.RestoreTask(state)
}

func (r *TaskRepository) Find(_ context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	r.uow.store.mu.RLock()
	states := make([]task.State, 0, len(r.uow.store.tasks))
	for _, state := range r.uow.store.tasks {
		states = append(states, state)
	}
	r.uow.store.mu.RUnlock()

	result := make([]*task.Task, 0)
	for _, state := range states {
		t, err := task.RestoreTask(state)
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	filter.Sort(result)
	return result, nil
}

func (r *TaskRepository) checkVersion(aggregate *task.Task) error {
	r.uow.store.mu.RLock()
	stored, ok := r.uow.store.tasks[aggregate.ID()]
	r.uow.store.mu.RUnlock()

	if !ok {
		return errs.NewObjectNotFoundError("taskID", aggregate.ID().String())
	}
	if stored.Version != aggregate.Version() {
		return errs.NewStaleObjectError("task", aggregate.ID().String(), aggregate.Version())
	}
	return nil
}

func checkLocationWrite(stored task.State, courierID kernel.UserID) error {
	if stored.Status != task.InProgress {
		return errs.NewInvalidTransitionError("record location", stored.Status.String())
	}
	if stored.Courier == nil || !stored.Courier.Is(courierID) {
		return errs.NewUnauthorizedError(courierID.String(), "is not the courier assigned to task "+stored.ID.String())
	}
	return nil
}
