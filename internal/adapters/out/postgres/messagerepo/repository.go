package messagerepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.MessageRepository = (*GormMessageRepository)(nil)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db      *gorm.DB
	tracker changeTracker
}

type changeTracker interface {
	TrackChange(ctx context.Context, change ports.Change) error
}

func NewGormMessageRepository(db *gorm.DB, tracker changeTracker) *GormMessageRepository {
	return &GormMessageRepository{
		db:      db,
		tracker: tracker,
	}
}

// Append locks the parent task row so that concurrent senders settle their
// timestamps one after another.
func (r *GormMessageRepository) Append(ctx context.Context, m *chat.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var parent struct {
		ID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", m.TaskID().Bytes()).
		Take(&parent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("taskID", m.TaskID().String())
		}
		return errs.NewStoreUnavailableError("messages.lock_task", err)
	}

	var last sql.NullTime
	err = r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Select("MAX(sent_at)").
		Where("task_id = ?", m.TaskID().Bytes()).
		Row().
		Scan(&last)
	if err != nil {
		return errs.NewStoreUnavailableError("messages.last_sent_at", err)
	}
	if last.Valid {
		m.SettleAfter(last.Time)
	}

	dto := fromDomain(m)
	if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewValueIsInvalidError("message " + m.ID().String() + " already exists")
		}
		return errs.NewStoreUnavailableError("messages.append", err)
	}

	return r.tracker.TrackChange(ctx, ports.Change{Kind: ports.MessageAppended, TaskID: m.TaskID()})
}

// ListByTask returns messages sent at or after since, oldest first.
func (r *GormMessageRepository) ListByTask(
	ctx context.Context,
	taskID kernel.UUID,
	since time.Time,
) ([]*chat.Message, error) {
	q := r.db.WithContext(ctx).Where("task_id = ?", taskID.Bytes())
	if !since.IsZero() {
		q = q.Where("sent_at >= ?", since)
	}

	var dtos []MessageDTO
	if err := q.Order("sent_at").Order("id").Find(&dtos).Error; err != nil {
		return nil, errs.NewStoreUnavailableError("messages.list", err)
	}

	messages := make([]*chat.Message, 0, len(dtos))
	for _, dto := range dtos {
		m, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, nil
}

func (r *GormMessageRepository) DeleteByTask(ctx context.Context, taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("taskID", err)
	}

	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID.Bytes()).Delete(&MessageDTO{}).Error; err != nil {
		return errs.NewStoreUnavailableError("messages.delete", err)
	}
	return nil
}
