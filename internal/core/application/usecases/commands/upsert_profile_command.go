package commands

import (
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/pkg/guard"
)

var ErrUpsertProfileCommandIsNotConstructed = errors.New(
	"UpsertProfileCommand must be created via NewUpsertProfileCommand constructor",
)

// UpsertProfileCommand registers or updates the caller's profile.
type UpsertProfileCommand struct {
	profile *user.Profile

	guard guard.ConstructorGuard
}

func NewUpsertProfileCommand(uid kernel.UserID, fullName, email string, role kernel.Role) (UpsertProfileCommand, error) {
	profile, err := user.NewProfile(uid, fullName, email, role)
	if err != nil {
		return UpsertProfileCommand{}, err
	}
	return UpsertProfileCommand{profile: profile, guard: guard.NewConstructorGuard()}, nil
}

func (c UpsertProfileCommand) Validate() error {
	return c.guard.Validate(ErrUpsertProfileCommandIsNotConstructed)
}

func (c UpsertProfileCommand) Profile() *user.Profile {
	return c.profile
}
