package commands_test

import (
	"context"
	"testing"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Add(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateLocation(
	ctx context.Context,
	id kernel.UUID,
	courierID kernel.UserID,
	sample task.LocationSample,
) error {
	args := m.Called(ctx, id, courierID, sample)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Find(ctx context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

type MockMessageRepository struct{ mock.Mock }

func (m *MockMessageRepository) Append(ctx context.Context, msg *chat.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByTask(
	ctx context.Context,
	taskID kernel.UUID,
	since time.Time,
) ([]*chat.Message, error) {
	args := m.Called(ctx, taskID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Message), args.Error(1)
}

func (m *MockMessageRepository) DeleteByTask(ctx context.Context, taskID kernel.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

type MockProfileRepository struct{ mock.Mock }

func (m *MockProfileRepository) Save(ctx context.Context, p *user.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) Get(ctx context.Context, uid kernel.UserID) (*user.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) TaskRepository() ports.TaskRepository {
	args := m.Called()
	return args.Get(0).(ports.TaskRepository)
}

func (m *MockUoW) MessageRepository() ports.MessageRepository {
	args := m.Called()
	return args.Get(0).(ports.MessageRepository)
}

func (m *MockUoW) ProfileRepository() ports.ProfileRepository {
	args := m.Called()
	return args.Get(0).(ports.ProfileRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

type MockTracker struct{ mock.Mock }

func (m *MockTracker) Begin(ctx context.Context, t *task.Task) {
	m.Called(ctx, t)
}

func (m *MockTracker) Halt(taskID kernel.UUID, version int64) {
	m.Called(taskID, version)
}

type MockGeocoder struct{ mock.Mock }

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, point kernel.GeoPoint) (string, error) {
	args := m.Called(ctx, point)
	return args.String(0), args.Error(1)
}

// fixture bundles a unit of work whose repository accessors may be called
// any number of times. Tests script the interesting calls with mock.InOrder.
type fixture struct {
	tasks    *MockTaskRepository
	messages *MockMessageRepository
	profiles *MockProfileRepository
	uow      *MockUoW
	factory  *MockUoWFactory
}

func newFixture() *fixture {
	f := &fixture{
		tasks:    new(MockTaskRepository),
		messages: new(MockMessageRepository),
		profiles: new(MockProfileRepository),
		uow:      new(MockUoW),
		factory:  new(MockUoWFactory),
	}
	f.uow.On("TaskRepository").Return(f.tasks).Maybe()
	f.uow.On("MessageRepository").Return(f.messages).Maybe()
	f.uow.On("ProfileRepository").Return(f.profiles).Maybe()
	f.factory.On("Create").Return(f.uow).Once()
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.factory.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.tasks.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
}

const (
	customerID kernel.UserID = "customer-1"
	courierID  kernel.UserID = "courier-1"
	rivalID    kernel.UserID = "courier-2"
)

var destination = kernel.MustGeoPoint(52.2297, 21.0122)

func participant(t *testing.T, id kernel.UserID) task.Participant {
	t.Helper()
	p, err := task.NewParticipant(id, string(id)+" name", string(id)+"@example.com")
	require.NoError(t, err)
	return p
}

func pendingTask(t *testing.T) *task.Task {
	t.Helper()
	tk, err := task.NewTask(kernel.NewUUID(), participant(t, customerID), destination, "Main St 1", "", time.Now())
	require.NoError(t, err)
	return tk
}

func assignedTask(t *testing.T) *task.Task {
	t.Helper()
	tk := pendingTask(t)
	require.NoError(t, tk.Claim(participant(t, courierID)))
	return tk
}

func inProgressTask(t *testing.T) *task.Task {
	t.Helper()
	tk := assignedTask(t)
	require.NoError(t, tk.Start(courierID))
	return tk
}

func deliveredTask(t *testing.T) *task.Task {
	t.Helper()
	tk := inProgressTask(t)
	require.NoError(t, tk.Complete(courierID, time.Now()))
	return tk
}

// stored returns an independent copy, the way a repository hands out a fresh
// aggregate on every read.
func stored(t *testing.T, tk *task.Task) *task.Task {
	t.Helper()
	cp, err := task.RestoreTask(tk.Snapshot())
	require.NoError(t, err)
	return cp
}
