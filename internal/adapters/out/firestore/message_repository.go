package firestore

import (
	"context"
	"slices"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	fs "cloud.google.com/go/firestore"
)

var _ ports.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	uow *UnitOfWork
}

// Append reads the parent delivery and the newest message in the same
// transaction as the insert, so the timestamps of one log never go back.
func (r *MessageRepository) Append(ctx context.Context, m *chat.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	taskID := m.TaskID().String()
	parent := r.uow.store.deliveries().Doc(taskID)
	log := r.uow.store.messages(taskID)
	ref := log.Doc(m.ID().String())

	return r.uow.apply(ctx, operation{
		name: "messages.append",
		check: func(tx *fs.Transaction) error {
			if _, err := tx.Get(parent); err != nil {
				if isNotFound(err) {
					return errs.NewObjectNotFoundError("taskID", taskID)
				}
				return err
			}
			latest, err := tx.Documents(log.OrderBy("timestamp", fs.Desc).Limit(1)).GetAll()
			if err != nil {
				return err
			}
			if len(latest) == 1 {
				var last messageDoc
				if err = latest[0].DataTo(&last); err != nil {
					return err
				}
				m.SettleAfter(last.Timestamp)
			}
			return nil
		},
		write: func(tx *fs.Transaction) error {
			return tx.Create(ref, messageToDoc(m))
		},
	}, &ports.Change{Kind: ports.MessageAppended, TaskID: m.TaskID()})
}

func (r *MessageRepository) ListByTask(ctx context.Context, taskID kernel.UUID, since time.Time) ([]*chat.Message, error) {
	q := r.uow.store.messages(taskID.String()).OrderBy("timestamp", fs.Asc)
	if !since.IsZero() {
		q = q.Where("timestamp", ">=", since)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewStoreUnavailableError("messages.list", err)
	}

	messages := make([]*chat.Message, 0, len(snaps))
	for _, snap := range snaps {
		var doc messageDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("message document "+snap.Ref.ID, err)
		}
		m, err := messageFromDoc(taskID, snap.Ref.ID, doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	sortMessages(messages)

	return messages, nil
}

func (r *MessageRepository) DeleteByTask(ctx context.Context, taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("taskID", err)
	}

	log := r.uow.store.messages(taskID.String())
	var refs []*fs.DocumentRef

	return r.uow.apply(ctx, operation{
		name: "messages.delete",
		check: func(tx *fs.Transaction) error {
			snaps, err := tx.Documents(log).GetAll()
			if err != nil {
				return err
			}
			refs = refs[:0]
			for _, snap := range snaps {
				refs = append(refs, snap.Ref)
			}
			return nil
		},
		write: func(tx *fs.Transaction) error {
			for _, ref := range refs {
				if err := tx.Delete(ref); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil)
}

// sortMessages breaks timestamp ties by id, which the timestamp index
// alone does not order.
func sortMessages(messages []*chat.Message) {
	slices.SortStableFunc(messages, func(a, b *chat.Message) int {
		switch {
		case chat.Less(a, b):
			return -1
		case chat.Less(b, a):
			return 1
		default:
			return 0
		}
	})
}
