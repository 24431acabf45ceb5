package changefeed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"github.com/lib/pq"
)

// DefaultPostgresChannel is the LISTEN/NOTIFY channel name.
const DefaultPostgresChannel = "courierdesk_changes"

const (
	minReconnectInterval = 5 * time.Second
	maxReconnectInterval = time.Minute
)

var _ ports.ChangeFeed = (*PostgresFeed)(nil)

// PostgresFeed uses LISTEN/NOTIFY of the database that stores the tasks. It
// needs no extra infrastructure when the postgres store is in use.
type PostgresFeed struct {
	db       *sql.DB
	listener *pq.Listener
	channel  string
	hub      *Hub
	logger   *slog.Logger
	done     chan struct{}
}

// NewPostgresFeed opens a dedicated listener connection to dsn. Publishing
// goes through db.
func NewPostgresFeed(db *sql.DB, dsn, channel string, logger *slog.Logger) (*PostgresFeed, error) {
	if channel == "" {
		channel = DefaultPostgresChannel
	}
	logger = logger.With("component", "PostgresFeed")

	listener := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("listener event", "event", int(ev), "error", err)
			}
		})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, errs.NewStoreUnavailableError("listen "+channel, err)
	}

	f := &PostgresFeed{
		db:       db,
		listener: listener,
		channel:  channel,
		hub:      NewHub(),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go f.relay()

	return f, nil
}

func (f *PostgresFeed) Publish(ctx context.Context, changes ...ports.Change) error {
	for _, c := range changes {
		payload, err := encodeChange(c)
		if err != nil {
			return err
		}
		if _, err = f.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", f.channel, string(payload)); err != nil {
			return errs.NewStoreUnavailableError(fmt.Sprintf("notify %s", f.channel), err)
		}
	}
	return nil
}

func (f *PostgresFeed) Subscribe(ctx context.Context) (<-chan ports.Change, error) {
	return f.hub.Subscribe(ctx)
}

func (f *PostgresFeed) Close() error {
	err := f.listener.Close()
	<-f.done
	f.hub.Close()
	return err
}

func (f *PostgresFeed) relay() {
	defer close(f.done)

	for n := range f.listener.Notify {
		// A nil notification signals a re-established connection.
		// Notifications sent while disconnected are lost.
		if n == nil {
			f.logger.Info("listener reconnected")
			continue
		}
		c, err := decodeChange([]byte(n.Extra))
		if err != nil {
			f.logger.Warn("dropping malformed change", "channel", n.Channel, "error", err)
			continue
		}
		_ = f.hub.Publish(context.Background(), c)
	}
}
