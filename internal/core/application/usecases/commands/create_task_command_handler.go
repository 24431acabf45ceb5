package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
)

// CreateTaskCommandHandler registers a new Pending task.
//
// When the command carries no address the destination is reverse geocoded
// before the transaction starts. A geocoding failure is logged and the
// coordinates are used as the address.
type CreateTaskCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	geocoder   ports.Geocoder
	logger     *slog.Logger
}

// NewCreateTaskCommandHandler accepts a nil geocoder, in which case blank
// addresses always fall back to coordinates.
func NewCreateTaskCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	geocoder ports.Geocoder,
	logger *slog.Logger,
) CreateTaskCommandHandler {
	return CreateTaskCommandHandler{
		uowFactory: uowFactory,
		geocoder:   geocoder,
		logger:     logger.With("component", "CreateTaskCommandHandler"),
	}
}

func (h CreateTaskCommandHandler) Handle(ctx context.Context, cmd CreateTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	address := cmd.Address()
	if address == "" && h.geocoder != nil {
		resolved, err := h.geocoder.ReverseGeocode(ctx, cmd.Destination())
		if err != nil {
			h.logger.WarnContext(ctx, "reverse geocoding failed, using coordinates",
				"taskID", cmd.TaskID().String(), "error", err)
		} else {
			address = resolved
		}
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	customer, err := participantFor(ctx, uow.ProfileRepository(), cmd.CustomerID(), cmd.CustomerEmail(), kernel.RoleCustomer)
	if err != nil {
		return err
	}

	t, err := task.NewTask(cmd.TaskID(), customer, cmd.Destination(), address, cmd.Notes(), time.Now())
	if err != nil {
		return err
	}

	if err = uow.TaskRepository().Add(ctx, t); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// participantFor builds the task participant for id. A registered profile
// provides the display name and must act in role; without a profile the
// email stands in for the name.
func participantFor(
	ctx context.Context,
	profiles ports.ProfileRepository,
	id kernel.UserID,
	email string,
	role kernel.Role,
) (task.Participant, error) {
	profile, err := profiles.Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return task.NewParticipant(id, "", email)
	}
	if err != nil {
		return task.Participant{}, err
	}
	return participantFromProfile(profile, email, role)
}

func participantFromProfile(profile *user.Profile, email string, role kernel.Role) (task.Participant, error) {
	if err := profile.EnsureRole(role); err != nil {
		return task.Participant{}, err
	}
	if profile.Email() != "" {
		email = profile.Email()
	}
	return task.NewParticipant(profile.UID(), profile.FullName(), email)
}
