package nats

import (
	"chat-wall/contract"
	"chat-wall/domain/document"
	"context"
	"fmt"
	"log/slog"
)

// Publisher is the part of *nats.Conn the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ChangeRelay listens on a store collection and republishes every change
// batch on the collection subject. Snapshots are not relayed as such: each
// (re)start publishes a resync marker instead, since changes committed while
// the relay was down were never published, and feeds re-list the store.
// It is a worker: a broken listen ends Run with an error and the supervisor restarts it.
type ChangeRelay struct {
	store      contract.DocumentStore
	publisher  Publisher
	project    string
	collection string
	log        *slog.Logger
}

func NewChangeRelay(store contract.DocumentStore, publisher Publisher, project, collection string, log *slog.Logger) ChangeRelay {
	return ChangeRelay{store: store, publisher: publisher, project: project, collection: collection, log: log}
}

func (r ChangeRelay) Run(ctx context.Context) error {
	subject := Subject(r.project, r.collection)
	r.log.Info("Relaying changes", "subject", subject)

	return r.store.Listen(ctx, r.collection, func(batch document.Batch) error {
		if batch.Snapshot {
			batch = resyncMarker(r.collection)
		}
		data, err := encodeBatch(batch)
		if err != nil {
			return err
		}
		if err = r.publisher.Publish(subject, data); err != nil {
			return fmt.Errorf("failed to publish batch to subject '%s': %w", subject, err)
		}
		return nil
	})
}
