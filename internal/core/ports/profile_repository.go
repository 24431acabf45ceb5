package ports

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/user"
)

// ProfileRepository stores user profiles keyed by uid.
type ProfileRepository interface {
	// Save inserts or replaces the profile.
	Save(ctx context.Context, profile *user.Profile) error

	// Get returns errs.ObjectNotFoundError for unknown users.
	Get(ctx context.Context, uid kernel.UserID) (*user.Profile, error)
}
