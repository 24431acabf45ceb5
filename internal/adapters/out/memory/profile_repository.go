package memory

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

type ProfileRepository struct {
	uow *UnitOfWork
}

func (r *ProfileRepository) Save(ctx context.Context, profile *user.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return r.uow.apply(ctx, func(s *Store) {
		s.profiles[profile.UID()] = profile
	}, nil)
}

func (r *ProfileRepository) Get(_ context.Context, uid kernel.UserID) (*user.Profile, error) {
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	profile, ok := r.uow.store.profiles[uid]
	if !ok {
		return nil, errs.NewObjectNotFoundError("uid", uid.String())
	}
	return profile, nil
}
