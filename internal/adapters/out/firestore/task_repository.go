package firestore

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	fs "cloud.google.com/go/firestore"
)

var _ ports.TaskRepository = (*TaskRepository)(nil)

type TaskRepository struct {
	uow *UnitOfWork
}

func (r *TaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	aggregate.AdvanceVersion()
	ref := r.uow.store.deliveries().Doc(aggregate.ID().String())
	doc := taskToDoc(aggregate)

	return r.uow.apply(ctx, operation{
		name: "deliveries.add",
		write: func(tx *fs.Transaction) error {
			return tx.Create(ref, doc)
		},
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: aggregate.ID()})
}

func (r *TaskRepository) Update(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	expected := aggregate.Version()
	if err := r.checkVersion(ctx, aggregate.ID(), expected); err != nil {
		return err
	}

	aggregate.AdvanceVersion()
	ref := r.uow.store.deliveries().Doc(aggregate.ID().String())
	doc := taskToDoc(aggregate)
	id := aggregate.ID()

	return r.uow.apply(ctx, operation{
		name: "deliveries.update",
		check: func(tx *fs.Transaction) error {
			return checkVersionTx(tx, ref, id, expected)
		},
		write: func(tx *fs.Transaction) error {
			if aggregate.Status() == task.Delivered {
				return tx.Set(ref, doc)
			}
			return tx.Set(ref, doc, fs.Merge(taskFieldsWithoutLocation...))
		},
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: id})
}

// UpdateLocation only touches the currentLocation field.
func (r *TaskRepository) UpdateLocation(
	ctx context.Context,
	id kernel.UUID,
	courierID kernel.UserID,
	sample task.LocationSample,
) error {
	ref := r.uow.store.deliveries().Doc(id.String())

	return r.uow.apply(ctx, operation{
		name: "deliveries.update_location",
		check: func(tx *fs.Transaction) error {
			snap, err := tx.Get(ref)
			if err != nil {
				if isNotFound(err) {
					return errs.NewObjectNotFoundError("taskID", id.String())
				}
				return err
			}
			var doc taskDoc
			if err = snap.DataTo(&doc); err != nil {
				return err
			}
			if doc.Status != task.InProgress.String() {
				return errs.NewInvalidTransitionError("record location", doc.Status)
			}
			if doc.CourierID == nil || *doc.CourierID != courierID.String() {
				return errs.NewUnauthorizedError(courierID.String(), "is not the courier assigned to task "+id.String())
			}
			return nil
		},
		write: func(tx *fs.Transaction) error {
			return tx.Update(ref, []fs.Update{{Path: "currentLocation", Value: newLocationDoc(sample)}})
		},
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: id})
}

func (r *TaskRepository) Delete(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	expected := aggregate.Version()
	if err := r.checkVersion(ctx, id, expected); err != nil {
		return err
	}
	ref := r.uow.store.deliveries().Doc(id.String())

	return r.uow.apply(ctx, operation{
		name: "deliveries.delete",
		check: func(tx *fs.Transaction) error {
			return checkVersionTx(tx, ref, id, expected)
		},
		write: func(tx *fs.Transaction) error {
			return tx.Delete(ref)
		},
	}, &ports.Change{Kind: ports.TaskChanged, TaskID: id, Deleted: true})
}

func (r *TaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	snap, err := r.uow.store.deliveries().Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NewObjectNotFoundError("taskID", id.String())
		}
		return nil, errs.NewStoreUnavailableError("deliveries.get", err)
	}

	var doc taskDoc
	if err = snap.DataTo(&doc); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("task document "+id.String(), err)
	}
	return taskFromDoc(snap.Ref.ID, doc)
}

// Find pushes the equality predicates to Firestore. The exclusion and the
// ordering are applied in memory, which avoids composite indexes.
func (r *TaskRepository) Find(ctx context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	q := r.uow.store.deliveries().Query
	if filter.CustomerID != "" {
		q = q.Where("customerId", "==", filter.CustomerID.String())
	}
	if filter.CourierID != "" {
		q = q.Where("courierId", "==", filter.CourierID.String())
	}
	if len(filter.Statuses) > 0 {
		names := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			names = append(names, s.String())
		}
		q = q.Where("status", "in", names)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewStoreUnavailableError("deliveries.find", err)
	}

	tasks := make([]*task.Task, 0, len(snaps))
	for _, snap := range snaps {
		var doc taskDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("task document "+snap.Ref.ID, err)
		}
		t, err := taskFromDoc(snap.Ref.ID, doc)
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	filter.Sort(tasks)

	return tasks, nil
}

// checkVersion rejects a write early, before it is staged.
func (r *TaskRepository) checkVersion(ctx context.Context, id kernel.UUID, expected int64) error {
	stored, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if stored.Version() != expected {
		return errs.NewStaleObjectError("task", id.String(), expected)
	}
	return nil
}

func checkVersionTx(tx *fs.Transaction, ref *fs.DocumentRef, id kernel.UUID, expected int64) error {
	snap, err := tx.Get(ref)
	if err != nil {
		if isNotFound(err) {
			return errs.NewObjectNotFoundError("taskID", id.String())
		}
		return err
	}
	version, err := snap.DataAt("version")
	if err != nil {
		return err
	}
	if v, ok := version.(int64); !ok || v != expected {
		return errs.NewStaleObjectError("task", id.String(), expected)
	}
	return nil
}
