package storage

import (
	"chat-wall/domain/document"
	"chat-wall/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// BadgerStore is the document store behind the widget.
// It owns ids and timestamps and pushes every committed change to the
// open listens of the collection.
//
// Keys:
//   - "doc:{project}:{collection}:{createNanos}:{id}" holds the record, the
//     19-digit zero padded creation time keeps a prefix scan in creation order.
//   - "idx:{project}:{collection}:{id}" points to the record key.
type BadgerStore struct {
	mu        sync.Mutex // serializes commits so listeners see them in commit order
	db        *badger.DB
	log       *slog.Logger
	project   string
	listeners *ListenerRegistry
	now       func() time.Time
	last      time.Time
}

func NewBadgerStore(db *badger.DB, log *slog.Logger, project string, listenerBufferSize int) *BadgerStore {
	return &BadgerStore{
		db:        db,
		log:       log,
		project:   project,
		listeners: NewListenerRegistry(listenerBufferSize),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *BadgerStore) Project() string { return s.project }

// Insert stores a new document under a fresh id.
func (s *BadgerStore) Insert(_ context.Context, collection string, fields document.Fields) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.stamp()
	doc := document.Document{
		ID:         uuid.NewString(),
		Fields:     copyFields(fields),
		CreateTime: at,
		UpdateTime: at,
	}
	value, err := encodeRecord(doc)
	if err != nil {
		return document.Document{}, err
	}
	key := s.docKey(collection, doc)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(s.indexKey(collection, doc.ID), key)
	})
	if err != nil {
		return document.Document{}, err
	}
	s.publish(collection, document.Change{Type: document.Added, Document: doc})
	return doc, nil
}

// List returns every document of the collection, oldest first.
func (s *BadgerStore) List(_ context.Context, collection string) ([]document.Document, error) {
	return s.list(collection)
}

// Merge overwrites the given fields of an existing document and stamps its update time.
func (s *BadgerStore) Merge(_ context.Context, collection, id string, fields document.Fields) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged document.Document
	err := s.db.Update(func(txn *badger.Txn) error {
		key, err := s.lookup(txn, collection, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		current, err := decodeRecord(value)
		if err != nil {
			return err
		}
		if current.Fields == nil {
			current.Fields = document.Fields{}
		}
		for name, v := range fields {
			current.Fields[name] = v
		}
		current.UpdateTime = s.stamp()
		updated, err := encodeRecord(current)
		if err != nil {
			return err
		}
		merged = current
		return txn.Set(key, updated)
	})
	if err != nil {
		return document.Document{}, err
	}
	s.publish(collection, document.Change{Type: document.Modified, Document: merged})
	return merged, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *BadgerStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key, err := s.lookup(txn, collection, id)
		if stderrors.Is(err, errors.ErrDocumentNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		removed = true
		return txn.Delete(s.indexKey(collection, id))
	})
	if err != nil {
		return err
	}
	if removed {
		s.publish(collection, document.Change{Type: document.Removed, Document: document.Document{ID: id}})
	} else {
		s.log.Debug("Delete of a missing document ignored", "collection", collection, "id", id)
	}
	return nil
}

// Listen delivers a snapshot of the collection, then every committed change,
// until ctx is done. If the listener falls behind it is evicted and Listen
// returns ErrSubscriptionClosed.
func (s *BadgerStore) Listen(ctx context.Context, collection string, listener document.Listener) error {
	// Snapshot and registration happen under the commit lock:
	// no change can slip between them.
	s.mu.Lock()
	docs, err := s.list(collection)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	feed := s.listeners.Subscribe(collection)
	s.mu.Unlock()
	defer s.listeners.Unsubscribe(feed)

	snapshot := document.Batch{
		Collection: collection,
		Snapshot:   true,
		Changes: lo.Map(docs, func(doc document.Document, _ int) document.Change {
			return document.Change{Type: document.Added, Document: doc}
		}),
	}
	if err = listener(snapshot); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-feed.Batches():
			if !ok {
				return errors.ErrSubscriptionClosed
			}
			if err = listener(batch); err != nil {
				return err
			}
		}
	}
}

// ListenerCount returns the number of open listens on a collection.
func (s *BadgerStore) ListenerCount(collection string) int {
	return s.listeners.Count(collection)
}

func (s *BadgerStore) list(collection string) ([]document.Document, error) {
	var docs []document.Document
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := s.docPrefix(collection)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				doc, err := decodeRecord(value)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return docs, err
}

func (s *BadgerStore) lookup(txn *badger.Txn, collection, id string) ([]byte, error) {
	item, err := txn.Get(s.indexKey(collection, id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", errors.ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *BadgerStore) publish(collection string, change document.Change) {
	batch := document.Batch{Collection: collection, Changes: []document.Change{change}}
	if evicted := s.listeners.Publish(batch); evicted > 0 {
		s.log.Warn("Slow listeners evicted", "collection", collection, "count", evicted)
	}
}

// stamp returns the commit time, strictly after the previous one
// so that creation order and key order never disagree.
func (s *BadgerStore) stamp() time.Time {
	at := s.now()
	if !at.After(s.last) {
		at = s.last.Add(time.Nanosecond)
	}
	s.last = at
	return at
}

func (s *BadgerStore) docPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("doc:%s:%s:", s.project, collection))
}

func (s *BadgerStore) docKey(collection string, doc document.Document) []byte {
	return []byte(fmt.Sprintf("doc:%s:%s:%019d:%s", s.project, collection, doc.CreateTime.UnixNano(), doc.ID))
}

func (s *BadgerStore) indexKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("idx:%s:%s:%s", s.project, collection, id))
}

func copyFields(fields document.Fields) document.Fields {
	res := make(document.Fields, len(fields))
	for k, v := range fields {
		res[k] = v
	}
	return res
}
