package queries

import (
	"context"
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/guard"
)

var ErrGetProfileQueryIsNotConstructed = errors.New(
	"GetProfileQuery must be created via NewGetProfileQuery constructor",
)

type GetProfileQuery struct {
	uid kernel.UserID

	guard guard.ConstructorGuard
}

func NewGetProfileQuery(uid kernel.UserID) (GetProfileQuery, error) {
	if err := uid.Validate(); err != nil {
		return GetProfileQuery{}, err
	}
	return GetProfileQuery{uid: uid, guard: guard.NewConstructorGuard()}, nil
}

func (q GetProfileQuery) Validate() error {
	return q.guard.Validate(ErrGetProfileQueryIsNotConstructed)
}

func (q GetProfileQuery) UID() kernel.UserID {
	return q.uid
}

type GetProfileQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetProfileQueryHandler(uowFactory ports.UnitOfWorkFactory) GetProfileQueryHandler {
	return GetProfileQueryHandler{uowFactory: uowFactory}
}

// Handle returns errs.ObjectNotFoundError for users who never saved a
// profile.
func (h GetProfileQueryHandler) Handle(ctx context.Context, query GetProfileQuery) (ProfileView, error) {
	if err := query.Validate(); err != nil {
		return ProfileView{}, err
	}

	profile, err := h.uowFactory.Create().ProfileRepository().Get(ctx, query.UID())
	if err != nil {
		return ProfileView{}, err
	}

	return NewProfileView(profile), nil
}
