package firestore

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	fs "cloud.google.com/go/firestore"
)

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

type ProfileRepository struct {
	uow *UnitOfWork
}

func (r *ProfileRepository) Save(ctx context.Context, profile *user.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	ref := r.uow.store.users().Doc(profile.UID().String())
	doc := profileToDoc(profile)
	return r.uow.apply(ctx, operation{
		name: "users.save",
		write: func(tx *fs.Transaction) error {
			return tx.Set(ref, doc)
		},
	}, nil)
}

func (r *ProfileRepository) Get(ctx context.Context, uid kernel.UserID) (*user.Profile, error) {
	if err := uid.Validate(); err != nil {
		return nil, err
	}

	snap, err := r.uow.store.users().Doc(uid.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NewObjectNotFoundError("uid", uid.String())
		}
		return nil, errs.NewStoreUnavailableError("users.get", err)
	}

	var doc userDoc
	if err = snap.DataTo(&doc); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("user document "+uid.String(), err)
	}
	if doc.UID == "" {
		doc.UID = uid.String()
	}
	return profileFromDoc(doc)
}
