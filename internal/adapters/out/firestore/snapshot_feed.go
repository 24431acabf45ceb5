package firestore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"courierdesk/internal/adapters/out/changefeed"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const listenRetryDelay = 2 * time.Second

var _ ports.ChangeFeed = (*SnapshotFeed)(nil)

// SnapshotFeed turns Firestore snapshot listeners into a change feed. Every
// instance sharing the database sees every write, including writes made by
// other instances and by the original web client.
type SnapshotFeed struct {
	hub    *changefeed.Hub
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewSnapshotFeed(client *fs.Client, logger *slog.Logger) *SnapshotFeed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &SnapshotFeed{
		hub:    changefeed.NewHub(),
		cancel: cancel,
		logger: logger.With("component", "firestore_snapshot_feed"),
	}

	f.wg.Add(2)
	go f.listen(ctx, "deliveries", client.Collection(DeliveriesCollection).Query, f.deliveryChanges)
	go f.listen(ctx, "messages", client.CollectionGroup(MessagesCollection).Query, f.messageChanges)

	return f
}

// Publish is a no-op: committed documents reach the listeners on their own.
func (f *SnapshotFeed) Publish(_ context.Context, _ ...ports.Change) error {
	return nil
}

func (f *SnapshotFeed) Subscribe(ctx context.Context) (<-chan ports.Change, error) {
	return f.hub.Subscribe(ctx)
}

func (f *SnapshotFeed) Close() error {
	f.cancel()
	f.wg.Wait()
	f.hub.Close()
	return nil
}

func (f *SnapshotFeed) listen(
	ctx context.Context,
	name string,
	q fs.Query,
	convert func(*fs.QuerySnapshot) []ports.Change,
) {
	defer f.wg.Done()

	for {
		err := f.consume(ctx, q, convert)
		if ctx.Err() != nil {
			return
		}
		f.logger.WarnContext(ctx, "Snapshot listener stopped, restarting", "listener", name, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryDelay):
		}
	}
}

// consume skips the first snapshot, which lists every existing document
// rather than a change.
func (f *SnapshotFeed) consume(ctx context.Context, q fs.Query, convert func(*fs.QuerySnapshot) []ports.Change) error {
	it := q.Snapshots(ctx)
	defer it.Stop()

	first := true
	for {
		snap, err := it.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		if first {
			first = false
			continue
		}
		if changes := convert(snap); len(changes) > 0 {
			_ = f.hub.Publish(ctx, changes...)
		}
	}
}

func (f *SnapshotFeed) deliveryChanges(snap *fs.QuerySnapshot) []ports.Change {
	changes := make([]ports.Change, 0, len(snap.Changes))
	for _, dc := range snap.Changes {
		id, err := kernel.UUIDFromString(dc.Doc.Ref.ID)
		if err != nil {
			f.logger.Debug("Ignoring delivery with foreign id", "id", dc.Doc.Ref.ID)
			continue
		}
		changes = append(changes, ports.Change{
			Kind:    ports.TaskChanged,
			TaskID:  id,
			Deleted: dc.Kind == fs.DocumentRemoved,
		})
	}
	return changes
}

func (f *SnapshotFeed) messageChanges(snap *fs.QuerySnapshot) []ports.Change {
	changes := make([]ports.Change, 0, len(snap.Changes))
	for _, dc := range snap.Changes {
		if dc.Kind != fs.DocumentAdded {
			continue
		}
		parent := dc.Doc.Ref.Parent.Parent
		if parent == nil {
			continue
		}
		id, err := kernel.UUIDFromString(parent.ID)
		if err != nil {
			continue
		}
		changes = append(changes, ports.Change{Kind: ports.MessageAppended, TaskID: id})
	}
	return changes
}
