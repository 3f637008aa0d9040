package nats

import (
	"chat-wall/contract"
	"chat-wall/domain/document"
	"chat-wall/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subscriber is the part of *nats.Conn the feed needs.
type Subscriber interface {
	ChanSubscribe(subject string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// ChangeFeed is a document store whose Listen reads the changes from NATS
// instead of the store. Everything else goes to the wrapped store.
type ChangeFeed struct {
	contract.DocumentStore
	subscriber Subscriber
	project    string
	bufferSize int
	log        *slog.Logger
}

func NewChangeFeed(store contract.DocumentStore, subscriber Subscriber, project string, bufferSize int, log *slog.Logger) *ChangeFeed {
	return &ChangeFeed{DocumentStore: store, subscriber: subscriber, project: project, bufferSize: bufferSize, log: log}
}

// Listen subscribes first, then lists the collection as the snapshot, so no
// change committed in between is lost. Changes already in the snapshot may be
// delivered again.
// A resync marker from the relay is answered with a fresh snapshot.
// If NATS drops messages for this subscriber Listen returns ErrSubscriptionClosed.
func (f *ChangeFeed) Listen(ctx context.Context, collection string, listener document.Listener) error {
	subject := Subject(f.project, collection)
	msgs := make(chan *nats.Msg, f.bufferSize)
	sub, err := f.subscriber.ChanSubscribe(subject, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject '%s': %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err = f.snapshot(ctx, collection, listener); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			if dropped, _ := sub.Dropped(); dropped > 0 {
				f.log.Warn("NATS dropped changes", "subject", subject, "count", dropped)
				return errors.ErrSubscriptionClosed
			}
			batch, err := decodeBatch(msg.Data)
			if err != nil {
				f.log.Warn("Batch skipped", "subject", subject, "error", err)
				continue
			}
			if batch.Snapshot {
				f.log.Info("Relay restarted, resyncing", "subject", subject)
				err = f.snapshot(ctx, collection, listener)
			} else {
				err = listener(batch)
			}
			if err != nil {
				return err
			}
		}
	}
}

func (f *ChangeFeed) snapshot(ctx context.Context, collection string, listener document.Listener) error {
	docs, err := f.DocumentStore.List(ctx, collection)
	if err != nil {
		return err
	}
	return listener(snapshotOf(collection, docs))
}

func snapshotOf(collection string, docs []document.Document) document.Batch {
	batch := document.Batch{Collection: collection, Snapshot: true}
	for _, doc := range docs {
		batch.Changes = append(batch.Changes, document.Change{Type: document.Added, Document: doc})
	}
	return batch
}
