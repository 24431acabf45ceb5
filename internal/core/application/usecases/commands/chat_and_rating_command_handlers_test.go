package commands_test

import (
	"testing"
	"time"

	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewSendMessageCommand_BlankTextIsRejected(t *testing.T) {
	_, err := commands.NewSendMessageCommand(kernel.NewUUID(), kernel.NewUUID(), customerID, " \n\t ")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestSendMessageCommandHandler_Handle_RoleIsDerivedFromTask(t *testing.T) {
	tests := []struct {
		name     string
		sender   kernel.UserID
		wantRole kernel.Role
		wantName string
	}{
		{"customer", customerID, kernel.RoleCustomer, "customer-1 name"},
		{"courier", courierID, kernel.RoleCourier, "courier-1 name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := t.Context()
			tk := assignedTask(t)
			msgID := kernel.NewUUID()
			cmd, err := commands.NewSendMessageCommand(msgID, tk.ID(), tc.sender, "  on my way  ")
			require.NoError(t, err)

			f := newFixture()
			var appended *chat.Message
			mock.InOrder(
				f.uow.On("Begin", ctx).Return(nil).Once(),
				f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
				f.messages.On("Append", ctx, mock.AnythingOfType("*chat.Message")).
					Run(func(args mock.Arguments) { appended = args.Get(1).(*chat.Message) }).
					Return(nil).Once(),
				f.uow.On("Commit", ctx).Return(nil).Once(),
				f.uow.On("Rollback", ctx).Return(nil).Once(),
			)

			handler := commands.NewSendMessageCommandHandler(f.factory)
			require.NoError(t, handler.Handle(ctx, cmd))

			require.NotNil(t, appended)
			assert.Equal(t, msgID, appended.ID())
			assert.Equal(t, tk.ID(), appended.TaskID())
			assert.Equal(t, "on my way", appended.Text())
			assert.Equal(t, tc.sender, appended.SenderID())
			assert.Equal(t, tc.wantRole, appended.SenderRole())
			assert.Equal(t, tc.wantName, appended.SenderName())
			f.assertExpectations(t)
		})
	}
}

func TestSendMessageCommandHandler_Handle_OutsiderIsRejected(t *testing.T) {
	ctx := t.Context()
	tk := assignedTask(t)
	cmd, err := commands.NewSendMessageCommand(kernel.NewUUID(), tk.ID(), rivalID, "hello")
	require.NoError(t, err)

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewSendMessageCommandHandler(f.factory)
	require.ErrorIs(t, handler.Handle(ctx, cmd), errs.ErrUnauthorized)
	f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestNewSubmitRatingCommand_KeepsScoreForHandler(t *testing.T) {
	cmd, err := commands.NewSubmitRatingCommand(kernel.NewUUID(), customerID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, cmd.Score())

	_, err = commands.NewSubmitRatingCommand(kernel.NewUUID(), "", 3)
	require.Error(t, err)
}

func TestSubmitRatingCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	tk := deliveredTask(t)
	cmd, err := commands.NewSubmitRatingCommand(tk.ID(), customerID, 4)
	require.NoError(t, err)

	f := newFixture()
	var updated *task.Task
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.tasks.On("Update", ctx, mock.AnythingOfType("*task.Task")).
			Run(func(args mock.Arguments) { updated = args.Get(1).(*task.Task) }).
			Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewSubmitRatingCommandHandler(f.factory)
	require.NoError(t, handler.Handle(ctx, cmd))

	require.NotNil(t, updated)
	require.NotNil(t, updated.Rating())
	assert.Equal(t, 4, updated.Rating().Score())
	f.assertExpectations(t)
}

func TestSubmitRatingCommandHandler_Handle_ConcurrentRatingLosesToFirst(t *testing.T) {
	ctx := t.Context()
	tk := deliveredTask(t)
	cmd, err := commands.NewSubmitRatingCommand(tk.ID(), customerID, 2)
	require.NoError(t, err)

	first, err := task.NewRating(5, time.Now())
	require.NoError(t, err)
	rated := stored(t, tk)
	require.NoError(t, rated.Rate(customerID, first))

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.tasks.On("Update", ctx, mock.AnythingOfType("*task.Task")).
			Return(errs.NewStaleObjectError("task", tk.ID(), tk.Version())).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(rated, nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewSubmitRatingCommandHandler(f.factory)
	require.ErrorIs(t, handler.Handle(ctx, cmd), task.ErrAlreadyRated)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.assertExpectations(t)
}

func TestSubmitRatingCommandHandler_Handle_Rejections(t *testing.T) {
	alreadyRated := func(t *testing.T) *task.Task {
		tk := deliveredTask(t)
		r, err := task.NewRating(3, time.Now())
		require.NoError(t, err)
		require.NoError(t, tk.Rate(customerID, r))
		return tk
	}

	tests := []struct {
		name    string
		build   func(t *testing.T) *task.Task
		actor   kernel.UserID
		score   int
		wantErr error
	}{
		{"not_delivered", inProgressTask, customerID, 5, errs.ErrInvalidTransition},
		{"courier_cannot_rate", deliveredTask, courierID, 5, errs.ErrUnauthorized},
		{"already_rated", alreadyRated, customerID, 5, task.ErrAlreadyRated},
		{"score_out_of_range", deliveredTask, customerID, 9, errs.ErrValueIsOutOfRange},
		{"not_delivered_before_score", inProgressTask, customerID, 9, errs.ErrInvalidTransition},
		{"courier_before_score", deliveredTask, courierID, 9, errs.ErrUnauthorized},
		{"already_rated_before_score", alreadyRated, customerID, 0, task.ErrAlreadyRated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := t.Context()
			tk := tc.build(t)
			cmd, err := commands.NewSubmitRatingCommand(tk.ID(), tc.actor, tc.score)
			require.NoError(t, err)

			f := newFixture()
			mock.InOrder(
				f.uow.On("Begin", ctx).Return(nil).Once(),
				f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
				f.uow.On("Rollback", ctx).Return(nil).Once(),
			)

			handler := commands.NewSubmitRatingCommandHandler(f.factory)
			require.ErrorIs(t, handler.Handle(ctx, cmd), tc.wantErr)
			f.tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestRecordLocationCommandHandler_Handle_WritesSampleOnly(t *testing.T) {
	ctx := t.Context()
	tk := inProgressTask(t)
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	point, err := destination.Offset(0.0001, 0.00005)
	require.NoError(t, err)
	cmd, err := commands.NewRecordLocationCommand(tk.ID(), courierID, point, at)
	require.NoError(t, err)

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.tasks.On("UpdateLocation", ctx, tk.ID(), courierID, cmd.Sample()).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewRecordLocationCommandHandler(f.factory)
	require.NoError(t, handler.Handle(ctx, cmd))

	f.tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestRecordLocationCommandHandler_Handle_PausedTaskDropsSample(t *testing.T) {
	ctx := t.Context()
	tk := inProgressTask(t)
	require.NoError(t, tk.Pause(courierID))
	cmd, err := commands.NewRecordLocationCommand(tk.ID(), courierID, destination, time.Now())
	require.NoError(t, err)

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewRecordLocationCommandHandler(f.factory)
	require.ErrorIs(t, handler.Handle(ctx, cmd), errs.ErrInvalidTransition)
	f.tasks.AssertNotCalled(t, "UpdateLocation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestRecordLocationCommandHandler_Handle_ConditionalWriteRejection(t *testing.T) {
	ctx := t.Context()
	tk := inProgressTask(t)
	cmd, err := commands.NewRecordLocationCommand(tk.ID(), courierID, destination, time.Now())
	require.NoError(t, err)

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.tasks.On("Get", ctx, tk.ID()).Return(stored(t, tk), nil).Once(),
		f.tasks.On("UpdateLocation", ctx, tk.ID(), courierID, cmd.Sample()).
			Return(errs.NewInvalidTransitionError("record location", task.Delivered.String())).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewRecordLocationCommandHandler(f.factory)
	require.ErrorIs(t, handler.Handle(ctx, cmd), errs.ErrInvalidTransition)
	f.assertExpectations(t)
}

func TestUpsertProfileCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewUpsertProfileCommand(courierID, "Carl Courier", "carl@example.com", kernel.RoleCourier)
	require.NoError(t, err)

	f := newFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.profiles.On("Save", ctx, mock.MatchedBy(func(p *user.Profile) bool {
			return p.UID() == courierID && p.Role() == kernel.RoleCourier && p.FullName() == "Carl Courier"
		})).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewUpsertProfileCommandHandler(f.factory)
	require.NoError(t, handler.Handle(ctx, cmd))
	f.assertExpectations(t)
}

func TestNewUpsertProfileCommand_InvalidEmail(t *testing.T) {
	_, err := commands.NewUpsertProfileCommand(customerID, "Ada", "not an email", kernel.RoleCustomer)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
