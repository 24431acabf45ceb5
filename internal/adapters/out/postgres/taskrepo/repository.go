package taskrepo

import (
	"context"
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.TaskRepository = (*GormTaskRepository)(nil)

// GormTaskRepository implements TaskRepository using GORM.
type GormTaskRepository struct {
	db      *gorm.DB
	tracker changeTracker
}

// changeTracker receives the changes produced by successful writes.
type changeTracker interface {
	TrackChange(ctx context.Context, change ports.Change) error
}

func NewGormTaskRepository(db *gorm.DB, tracker changeTracker) *GormTaskRepository {
	return &GormTaskRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a new task at version 1.
func (r *GormTaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewValueIsInvalidError("task " + aggregate.ID().String() + " already exists")
		}
		return errs.NewStoreUnavailableError("tasks.add", err)
	}

	aggregate.AdvanceVersion()
	return r.tracker.TrackChange(ctx, ports.Change{Kind: ports.TaskChanged, TaskID: aggregate.ID()})
}

// locationColumns belong to UpdateLocation, which does not advance the
// version. Update writes them only to clear them on delivery.
var locationColumns = []string{"location_lat", "location_lng", "location_at"}

// Update rewrites the row only if it is still at the aggregate's version.
func (r *GormTaskRepository) Update(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	omit := []string{"id", "created_at"}
	if aggregate.Status() != task.Delivered {
		omit = append(omit, locationColumns...)
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	result := r.db.WithContext(ctx).
		Model(&TaskDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Select("*").
		Omit(omit...).
		Updates(&dto)
	if result.Error != nil {
		return errs.NewStoreUnavailableError("tasks.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.conflict(ctx, aggregate)
	}

	aggregate.AdvanceVersion()
	return r.tracker.TrackChange(ctx, ports.Change{Kind: ports.TaskChanged, TaskID: aggregate.ID()})
}

// UpdateLocation writes the location columns only while the task is
// InProgress and assigned to courierID. The version stays as it is.
func (r *GormTaskRepository) UpdateLocation(
	ctx context.Context,
	id kernel.UUID,
	courierID kernel.UserID,
	sample task.LocationSample,
) error {
	result := r.db.WithContext(ctx).
		Model(&TaskDTO{}).
		Where("id = ? AND status = ? AND courier_id = ?", id.Bytes(), task.InProgress.String(), courierID.String()).
		Updates(map[string]any{
			"location_lat": sample.Point().Lat(),
			"location_lng": sample.Point().Lng(),
			"location_at":  sample.At(),
		})
	if result.Error != nil {
		return errs.NewStoreUnavailableError("tasks.update_location", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status() != task.InProgress {
			return errs.NewInvalidTransitionError("record location", current.Status().String())
		}
		return errs.NewUnauthorizedError(courierID.String(), "is not the courier assigned to task "+id.String())
	}

	return r.tracker.TrackChange(ctx, ports.Change{Kind: ports.TaskChanged, TaskID: id})
}

// Delete removes the row only if it is still at the aggregate's version.
func (r *GormTaskRepository) Delete(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", aggregate.ID().Bytes(), aggregate.Version()).
		Delete(&TaskDTO{})
	if result.Error != nil {
		return errs.NewStoreUnavailableError("tasks.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.conflict(ctx, aggregate)
	}

	return r.tracker.TrackChange(ctx, ports.Change{Kind: ports.TaskChanged, TaskID: aggregate.ID(), Deleted: true})
}

// Get retrieves a task by ID.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("taskID", id.String())
		}
		return nil, errs.NewStoreUnavailableError("tasks.get", err)
	}

	return toDomain(dto)
}

// Find pushes every predicate of filter down to SQL.
func (r *GormTaskRepository) Find(ctx context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	q := r.db.WithContext(ctx).Model(&TaskDTO{})
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID.String())
	}
	if filter.CourierID != "" {
		q = q.Where("courier_id = ?", filter.CourierID.String())
	}
	if filter.ExcludeCustomerID != "" {
		q = q.Where("customer_id <> ?", filter.ExcludeCustomerID.String())
	}
	if len(filter.Statuses) > 0 {
		names := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			names = append(names, s.String())
		}
		q = q.Where("status IN ?", names)
	}
	if filter.Order == ports.OrderByDeliveredDesc {
		q = q.Order("delivered_at DESC NULLS LAST")
	}
	q = q.Order("created_at DESC").Order("id")

	var dtos []TaskDTO
	if err := q.Find(&dtos).Error; err != nil {
		return nil, errs.NewStoreUnavailableError("tasks.find", err)
	}

	tasks := make([]*task.Task, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	filter.Sort(tasks)

	return tasks, nil
}

// conflict explains why a versioned write touched no row.
func (r *GormTaskRepository) conflict(ctx context.Context, aggregate *task.Task) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&TaskDTO{}).Where("id = ?", aggregate.ID().Bytes()).Count(&count).Error
	if err != nil {
		return errs.NewStoreUnavailableError("tasks.get", err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("taskID", aggregate.ID().String())
	}
	return errs.NewStaleObjectError("task", aggregate.ID().String(), aggregate.Version())
}
