package memory

import (
	"context"
	"slices"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

var _ ports.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	uow *UnitOfWork
}

func (r *MessageRepository) Append(ctx context.Context, m *chat.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.uow.store.mu.RLock()
	log := r.uow.store.messages[m.TaskID()]
	if n := len(log); n > 0 {
		m.SettleAfter(log[n-1].SentAt)
	}
	r.uow.store.mu.RUnlock()

	state := m.Snapshot()
	return r.uow.apply(ctx, func(s *Store) {
		s.messages[state.TaskID] = append(s.messages[state.TaskID], state)
	}, &ports.Change{Kind: ports.MessageAppended, TaskID: state.TaskID})
}

func (r *MessageRepository) ListByTask(_ context.Context, taskID kernel.UUID, since time.Time) ([]*chat.Message, error) {
	r.uow.store.mu.RLock()
	states := slices.Clone(r.uow.store.messages[taskID])
	r.uow.store.mu.RUnlock()

	result := make([]*chat.Message, 0, len(states))
	for _, state := range states {
		if !since.IsZero() && state.SentAt.Before(since) {
			continue
		}
		m, err := chat.RestoreMessage(state)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	slices.SortStableFunc(result, func(a, b *chat.Message) int {
		switch {
		case chat.Less(a, b):
			return -1
		case chat.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return result, nil
}

func (r *MessageRepository) DeleteByTask(ctx context.Context, taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("taskID", err)
	}
	return r.uow.apply(ctx, func(s *Store) {
		delete(s.messages, taskID)
	}, nil)
}
