package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "courierdesk/internal/adapters/in/http"
	"courierdesk/internal/adapters/out/changefeed"
	fsstore "courierdesk/internal/adapters/out/firestore"
	"courierdesk/internal/adapters/out/geocoding"
	"courierdesk/internal/adapters/out/memory"
	"courierdesk/internal/adapters/out/positioning"
	"courierdesk/internal/adapters/out/postgres"
	"courierdesk/internal/core/application/subscriptions"
	"courierdesk/internal/core/application/usecases/commands"
	"courierdesk/internal/core/application/usecases/queries"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/jobs"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	redisChannel    = "courierdesk:changes"
	postgresChannel = "courierdesk_changes"
)

// CompositionRoot owns every process-wide resource: the store handle, the
// change feed and the background jobs. Close releases them in reverse
// order of creation.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB      *gorm.DB
	firebaseApp *firebase.App
	fsClient    *firestore.Client

	feed       ports.ChangeFeed
	uowFactory ports.UnitOfWorkFactory
	verifier   httpin.TokenVerifier
	geocoder   ports.Geocoder
	stream     *jobs.LocationStreamJob
	jobManager *jobs.JobManager

	closers []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &CompositionRoot{cfg: cfg, logger: logger}

	steps := []func(context.Context) error{
		c.openBackends,
		c.openFeed,
		c.openStore,
		c.openVerifier,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.geocoder = geocoding.NewNominatim(geocoding.Options{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
	}, logger)

	if cfg.TrackingSimulation {
		c.stream = jobs.NewLocationStreamJob(
			commands.NewRecordLocationCommandHandler(c.uowFactory),
			positioning.NewSimulatedSource(),
			cfg.TrackingInterval,
			logger,
		)
	}
	c.jobManager = jobs.NewJobManager(c.stream, c.uowFactory, logger)

	return c, nil
}

func (c *CompositionRoot) openBackends(ctx context.Context) error {
	if c.cfg.StoreDriver == DriverPostgres {
		db, err := gorm.Open(gormpostgres.Open(c.cfg.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		c.closers = append(c.closers, sqlDB.Close)

		if err = postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate postgres schema: %w", err)
		}
		c.gormDB = db
	}

	if c.cfg.usesFirebase() {
		var opts []option.ClientOption
		if c.cfg.FirebaseCredentialsPath != "" {
			opts = append(opts, option.WithCredentialsFile(c.cfg.FirebaseCredentialsPath))
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: c.cfg.FirebaseProjectID}, opts...)
		if err != nil {
			return fmt.Errorf("initialize firebase app: %w", err)
		}
		c.firebaseApp = app
	}

	if c.cfg.StoreDriver == DriverFirestore {
		client, err := c.firebaseApp.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("connect to firestore: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		c.fsClient = client
	}

	return nil
}

func (c *CompositionRoot) openFeed(ctx context.Context) error {
	switch c.cfg.FeedDriver {
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.cfg.RedisAddr,
			Password: c.cfg.RedisPassword,
			DB:       c.cfg.RedisDB,
		})
		c.closers = append(c.closers, client.Close)

		feed, err := changefeed.NewRedisFeed(ctx, client, redisChannel, c.logger)
		if err != nil {
			return fmt.Errorf("subscribe to redis: %w", err)
		}
		c.closers = append(c.closers, feed.Close)
		c.feed = feed

	case DriverPostgres:
		sqlDB, err := c.gormDB.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		feed, err := changefeed.NewPostgresFeed(sqlDB, c.cfg.DSN(), postgresChannel, c.logger)
		if err != nil {
			return fmt.Errorf("listen on postgres: %w", err)
		}
		c.closers = append(c.closers, feed.Close)
		c.feed = feed

	case DriverFirestore:
		feed := fsstore.NewSnapshotFeed(c.fsClient, c.logger)
		c.closers = append(c.closers, feed.Close)
		c.feed = feed

	default:
		hub := changefeed.NewHub()
		c.closers = append(c.closers, func() error {
			hub.Close()
			return nil
		})
		c.feed = hub
	}
	return nil
}

func (c *CompositionRoot) openStore(_ context.Context) error {
	switch c.cfg.StoreDriver {
	case DriverPostgres:
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(c.gormDB, c.feed)
	case DriverFirestore:
		c.uowFactory = fsstore.NewStore(c.fsClient, c.feed)
	default:
		c.uowFactory = memory.NewStore(c.feed)
	}
	return nil
}

func (c *CompositionRoot) openVerifier(ctx context.Context) error {
	if c.cfg.AuthDriver == AuthFirebase {
		client, err := c.firebaseApp.Auth(ctx)
		if err != nil {
			return fmt.Errorf("initialize firebase auth: %w", err)
		}
		c.verifier = httpin.NewFirebaseVerifier(client)
		return nil
	}

	verifier, err := httpin.NewJWTVerifier(c.cfg.JWTSecret)
	if err != nil {
		return err
	}
	c.verifier = verifier
	return nil
}

// tracker is nil unless positions are simulated, so that the handlers never
// hold a typed nil.
func (c *CompositionRoot) tracker() commands.Tracker {
	if c.stream == nil {
		return nil
	}
	return c.stream
}

func (c *CompositionRoot) Handlers() httpin.Handlers {
	return httpin.Handlers{
		CreateTask:     commands.NewCreateTaskCommandHandler(c.uowFactory, c.geocoder, c.logger),
		CancelTask:     commands.NewCancelTaskCommandHandler(c.uowFactory),
		DiscardTask:    commands.NewDiscardTaskCommandHandler(c.uowFactory),
		ClaimTask:      commands.NewClaimTaskCommandHandler(c.uowFactory),
		StartTracking:  commands.NewStartTrackingCommandHandler(c.uowFactory, c.tracker()),
		PauseTracking:  commands.NewPauseTrackingCommandHandler(c.uowFactory, c.tracker()),
		CompleteTask:   commands.NewCompleteTaskCommandHandler(c.uowFactory, c.tracker()),
		RecordLocation: commands.NewRecordLocationCommandHandler(c.uowFactory),
		SendMessage:    commands.NewSendMessageCommandHandler(c.uowFactory),
		SubmitRating:   commands.NewSubmitRatingCommandHandler(c.uowFactory),
		UpsertProfile:  commands.NewUpsertProfileCommandHandler(c.uowFactory),

		GetTask:      queries.NewGetTaskQueryHandler(c.uowFactory),
		ListTasks:    queries.NewListTasksQueryHandler(c.uowFactory),
		ListMessages: queries.NewListMessagesQueryHandler(c.uowFactory),
		GetProfile:   queries.NewGetProfileQueryHandler(c.uowFactory),
	}
}

func (c *CompositionRoot) NewServer() *httpin.Server {
	return httpin.NewServer(c.Handlers(), subscriptions.NewService(c.feed, c.uowFactory, c.logger), c.logger)
}

func (c *CompositionRoot) Logger() *slog.Logger {
	return c.logger
}

func (c *CompositionRoot) Verifier() httpin.TokenVerifier {
	return c.verifier
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return c.jobManager
}

// Close releases resources in reverse order and reports every failure.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
