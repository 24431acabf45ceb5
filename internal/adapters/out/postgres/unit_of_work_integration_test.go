package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courierdesk/internal/adapters/out/changefeed"
	postgres_adapter "courierdesk/internal/adapters/out/postgres"
	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/logging"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	customerID kernel.UserID = "customer-1"
	courierID  kernel.UserID = "courier-1"
	waitFor                  = 5 * time.Second
)

// UnitOfWorkIntegrationTestSuite runs the repositories against a real
// PostgreSQL server.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	dsn       string
	db        *gorm.DB
	hub       *changefeed.Hub
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)
	suite.dsn = dsn

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE tasks, messages, users").Error)

	suite.hub = changefeed.NewHub()
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(suite.db, suite.hub)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownTest() {
	suite.hub.Close()
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) newTask(dest kernel.GeoPoint) *task.Task {
	customer, err := task.NewParticipant(customerID, "Ada", "ada@example.com")
	suite.Require().NoError(err)
	t, err := task.NewTask(kernel.NewUUID(), customer, dest, "", "leave at the door", time.Now())
	suite.Require().NoError(err)
	return t
}

func (suite *UnitOfWorkIntegrationTestSuite) addTask(t *task.Task) {
	suite.Require().NoError(suite.factory.Create().TaskRepository().Add(suite.T().Context(), t))
}

func (suite *UnitOfWorkIntegrationTestSuite) courier(id kernel.UserID) task.Participant {
	p, err := task.NewParticipant(id, string(id), "")
	suite.Require().NoError(err)
	return p
}

func (suite *UnitOfWorkIntegrationTestSuite) receive(ch <-chan ports.Change) ports.Change {
	select {
	case c := <-ch:
		return c
	case <-time.After(waitFor):
		suite.FailNow("no change received")
		return ports.Change{}
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().Error(uow.Commit(ctx), "Should error when committing without active transaction")
	suite.Require().Error(uow.Rollback(ctx), "Should error when rolling back without active transaction")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTaskRoundTrip() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(39.9255, 32.8663))
	suite.addTask(t)
	suite.Equal(int64(1), t.Version())

	suite.Require().NoError(t.Claim(suite.courier(courierID)))
	suite.Require().NoError(t.Start(courierID))
	suite.Require().NoError(suite.factory.Create().TaskRepository().Update(ctx, t))
	suite.Equal(int64(2), t.Version())

	stored, err := suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.InProgress, stored.Status())
	suite.Equal(customerID, stored.Customer().ID())
	suite.Equal("Ada", stored.Customer().Name())
	suite.Require().NotNil(stored.Courier())
	suite.Equal(courierID, stored.Courier().ID())
	suite.True(stored.Destination().IsEqual(t.Destination()))
	suite.Equal("39.925500, 32.866300", stored.Address())
	suite.Equal("leave at the door", stored.Notes())
	suite.Nil(stored.CurrentLocation())
	suite.Equal(int64(2), stored.Version())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollbackDiscardsWritesAndChanges() {
	ctx := suite.T().Context()
	changes, err := suite.hub.Subscribe(ctx)
	suite.Require().NoError(err)

	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.TaskRepository().Add(ctx, t))
	suite.Require().NoError(uow.Rollback(ctx))

	_, err = suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	select {
	case c := <-changes:
		suite.Failf("unexpected change", "%+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommitPublishesChanges() {
	ctx := suite.T().Context()
	changes, err := suite.hub.Subscribe(ctx)
	suite.Require().NoError(err)

	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.TaskRepository().Add(ctx, t))
	suite.Require().NoError(uow.Commit(ctx))

	c := suite.receive(changes)
	suite.Equal(ports.TaskChanged, c.Kind)
	suite.True(c.TaskID.IsEqual(t.ID()))
	suite.False(c.Deleted)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUpdateWithStaleVersionFails() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)

	first, err := suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)
	second, err := suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(first.Claim(suite.courier("courier-a")))
	suite.Require().NoError(suite.factory.Create().TaskRepository().Update(ctx, first))

	suite.Require().NoError(second.Claim(suite.courier("courier-b")))
	err = suite.factory.Create().TaskRepository().Update(ctx, second)
	suite.Require().ErrorIs(err, errs.ErrStaleObject)

	stored, err := suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(kernel.UserID("courier-a"), stored.Courier().ID())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUpdateAndDeleteMissingTask() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))

	err := suite.factory.Create().TaskRepository().Update(ctx, t)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	err = suite.factory.Create().TaskRepository().Delete(ctx, t)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestAddDuplicateIsInvalid() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)

	again, err := task.RestoreTask(t.Snapshot())
	suite.Require().NoError(err)
	err = suite.factory.Create().TaskRepository().Add(ctx, again)
	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUpdateLocationIsConditional() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)
	repo := suite.factory.Create().TaskRepository()

	sample, err := task.NewLocationSample(kernel.MustGeoPoint(1.0001, 1.00005), time.Now())
	suite.Require().NoError(err)

	err = repo.UpdateLocation(ctx, t.ID(), courierID, sample)
	suite.Require().ErrorIs(err, errs.ErrInvalidTransition)

	suite.Require().NoError(t.Claim(suite.courier(courierID)))
	suite.Require().NoError(t.Start(courierID))
	suite.Require().NoError(repo.Update(ctx, t))

	err = repo.UpdateLocation(ctx, t.ID(), "someone-else", sample)
	suite.Require().ErrorIs(err, errs.ErrUnauthorized)

	suite.Require().NoError(repo.UpdateLocation(ctx, t.ID(), courierID, sample))

	stored, err := repo.Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(stored.CurrentLocation())
	suite.InDelta(1.0001, stored.CurrentLocation().Point().Lat(), 1e-9)
	suite.Equal(t.Version(), stored.Version(), "location writes keep the version")

	err = repo.UpdateLocation(ctx, kernel.NewUUID(), courierID, sample)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransitionKeepsLocationWrittenAfterRead() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)
	repo := suite.factory.Create().TaskRepository()

	suite.Require().NoError(t.Claim(suite.courier(courierID)))
	suite.Require().NoError(t.Start(courierID))
	suite.Require().NoError(repo.Update(ctx, t))

	first, err := task.NewLocationSample(kernel.MustGeoPoint(1.0001, 1.00005), time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(repo.UpdateLocation(ctx, t.ID(), courierID, first))

	read, err := repo.Get(ctx, t.ID())
	suite.Require().NoError(err)

	second, err := task.NewLocationSample(kernel.MustGeoPoint(1.0002, 1.0001), time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(repo.UpdateLocation(ctx, t.ID(), courierID, second))

	suite.Require().NoError(read.Pause(courierID))
	suite.Require().NoError(repo.Update(ctx, read))

	stored, err := repo.Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.Paused, stored.Status())
	suite.Require().NotNil(stored.CurrentLocation())
	suite.InDelta(1.0002, stored.CurrentLocation().Point().Lat(), 1e-9)

	suite.Require().NoError(stored.Start(courierID))
	suite.Require().NoError(repo.Update(ctx, stored))
	suite.Require().NoError(repo.UpdateLocation(ctx, t.ID(), courierID, first))
	suite.Require().NoError(stored.Complete(courierID, time.Now()))
	suite.Require().NoError(repo.Update(ctx, stored))

	delivered, err := repo.Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.Delivered, delivered.Status())
	suite.Nil(delivered.CurrentLocation())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDeliveredTaskKeepsRating() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)
	repo := suite.factory.Create().TaskRepository()

	suite.Require().NoError(t.Claim(suite.courier(courierID)))
	suite.Require().NoError(t.Complete(courierID, time.Now()))
	rating, err := task.NewRating(4, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(t.Rate(customerID, rating))
	suite.Require().NoError(repo.Update(ctx, t))

	stored, err := repo.Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.Delivered, stored.Status())
	suite.Require().NotNil(stored.DeliveredAt())
	suite.Require().NotNil(stored.Rating())
	suite.Equal(4, stored.Rating().Score())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestFindFiltersAndOrders() {
	ctx := suite.T().Context()
	older := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(older)
	time.Sleep(5 * time.Millisecond)
	newer := suite.newTask(kernel.MustGeoPoint(2, 2))
	suite.addTask(newer)
	time.Sleep(5 * time.Millisecond)
	claimed := suite.newTask(kernel.MustGeoPoint(3, 3))
	suite.Require().NoError(claimed.Claim(suite.courier(courierID)))
	suite.addTask(claimed)

	repo := suite.factory.Create().TaskRepository()

	pending, err := repo.Find(ctx, ports.TaskFilter{
		ExcludeCustomerID: courierID,
		Statuses:          []task.Status{task.Pending},
	})
	suite.Require().NoError(err)
	suite.Require().Len(pending, 2)
	suite.True(pending[0].ID().IsEqual(newer.ID()))
	suite.True(pending[1].ID().IsEqual(older.ID()))

	own, err := repo.Find(ctx, ports.TaskFilter{ExcludeCustomerID: customerID, Statuses: []task.Status{task.Pending}})
	suite.Require().NoError(err)
	suite.Empty(own)

	active, err := repo.Find(ctx, ports.TaskFilter{
		CourierID: courierID,
		Statuses:  []task.Status{task.Assigned, task.InProgress, task.Paused},
	})
	suite.Require().NoError(err)
	suite.Require().Len(active, 1)
	suite.True(active[0].ID().IsEqual(claimed.ID()))

	all, err := repo.Find(ctx, ports.TaskFilter{CustomerID: customerID})
	suite.Require().NoError(err)
	suite.Len(all, 3)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDeleteIsVersioned() {
	ctx := suite.T().Context()
	changes, err := suite.hub.Subscribe(ctx)
	suite.Require().NoError(err)

	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)
	suite.receive(changes)

	stale, err := task.RestoreTask(t.Snapshot())
	suite.Require().NoError(err)
	suite.Require().NoError(t.Claim(suite.courier(courierID)))
	suite.Require().NoError(suite.factory.Create().TaskRepository().Update(ctx, t))
	suite.receive(changes)

	err = suite.factory.Create().TaskRepository().Delete(ctx, stale)
	suite.Require().ErrorIs(err, errs.ErrStaleObject)

	suite.Require().NoError(suite.factory.Create().TaskRepository().Delete(ctx, t))
	c := suite.receive(changes)
	suite.True(c.Deleted)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestMessagesAreOrderedAndSettled() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first, err := chat.NewMessage(kernel.NewUUID(), t.ID(), customerID, "Ada", kernel.RoleCustomer, "hello", now)
	suite.Require().NoError(err)
	skewed, err := chat.NewMessage(kernel.NewUUID(), t.ID(), customerID, "Ada", kernel.RoleCustomer, "again", now.Add(-time.Minute))
	suite.Require().NoError(err)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.MessageRepository().Append(ctx, first))
	suite.Require().NoError(uow.Commit(ctx))

	uow = suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.MessageRepository().Append(ctx, skewed))
	suite.Require().NoError(uow.Commit(ctx))

	messages, err := suite.factory.Create().MessageRepository().ListByTask(ctx, t.ID(), time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(messages, 2)
	suite.Equal("hello", messages[0].Text())
	suite.Equal("again", messages[1].Text())
	suite.False(messages[1].SentAt().Before(messages[0].SentAt()))
	suite.Equal(kernel.RoleCustomer, messages[1].SenderRole())

	since, err := suite.factory.Create().MessageRepository().ListByTask(ctx, t.ID(), now.Add(time.Hour))
	suite.Require().NoError(err)
	suite.Empty(since)

	suite.Require().NoError(suite.factory.Create().MessageRepository().DeleteByTask(ctx, t.ID()))
	messages, err = suite.factory.Create().MessageRepository().ListByTask(ctx, t.ID(), time.Time{})
	suite.Require().NoError(err)
	suite.Empty(messages)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestAppendToMissingTask() {
	ctx := suite.T().Context()
	m, err := chat.NewMessage(kernel.NewUUID(), kernel.NewUUID(), customerID, "", kernel.RoleCustomer, "hi", time.Now())
	suite.Require().NoError(err)

	err = suite.factory.Create().MessageRepository().Append(ctx, m)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestProfileUpsert() {
	ctx := suite.T().Context()
	repo := suite.factory.Create().ProfileRepository()

	_, err := repo.Get(ctx, courierID)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	profile, err := user.NewProfile(courierID, "Bo", "bo@example.com", kernel.RoleCourier)
	suite.Require().NoError(err)
	suite.Require().NoError(repo.Save(ctx, profile))

	renamed, err := user.NewProfile(courierID, "Bo Rider", "bo@example.com", kernel.RoleCourier)
	suite.Require().NoError(err)
	suite.Require().NoError(repo.Save(ctx, renamed))

	stored, err := repo.Get(ctx, courierID)
	suite.Require().NoError(err)
	suite.Equal("Bo Rider", stored.FullName())
	suite.Equal(kernel.RoleCourier, stored.Role())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestConcurrentClaimsHaveOneWinner() {
	ctx := suite.T().Context()
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	suite.addTask(t)
	handler := commands.NewClaimTaskCommandHandler(suite.factory)

	couriers := []kernel.UserID{"courier-a", "courier-b", "courier-c", "courier-d"}
	results := make([]error, len(couriers))

	var wg sync.WaitGroup
	for i, c := range couriers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewClaimTaskCommand(t.ID(), c, "")
			if err != nil {
				results[i] = err
				return
			}
			results[i] = handler.Handle(ctx, cmd)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		suite.True(
			errors.Is(err, errs.ErrInvalidTransition) || errors.Is(err, errs.ErrStaleObject),
			"unexpected error: %v", err,
		)
	}
	suite.Equal(1, winners)

	stored, err := suite.factory.Create().TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.Assigned, stored.Status())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestPostgresFeedRelaysNotifications() {
	ctx := suite.T().Context()
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)

	feed, err := changefeed.NewPostgresFeed(sqlDB, suite.dsn, "test_changes", logging.Discard())
	suite.Require().NoError(err)
	defer func() {
		suite.Require().NoError(feed.Close())
	}()

	changes, err := feed.Subscribe(ctx)
	suite.Require().NoError(err)

	factory := postgres_adapter.NewGormUnitOfWorkFactory(suite.db, feed)
	t := suite.newTask(kernel.MustGeoPoint(1, 1))
	uow := factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.TaskRepository().Add(ctx, t))
	suite.Require().NoError(uow.Commit(ctx))

	c := suite.receive(changes)
	suite.Equal(ports.TaskChanged, c.Kind)
	suite.True(c.TaskID.IsEqual(t.ID()))
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
