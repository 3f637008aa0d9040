package repositories

import (
	"chat-wall/contract"
	"chat-wall/domain"
	"chat-wall/domain/document"
	"chat-wall/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	MessagesCollection = "messages"

	fieldText   = "text"
	fieldAuthor = "author"
)

// MessageGateway translates message operations into document store requests.
// It is the only component talking to the store.
type MessageGateway struct {
	store        contract.DocumentStore
	log          *slog.Logger
	writeTimeout time.Duration
}

// NewMessageGateway builds a gateway on the "messages" collection.
// A zero writeTimeout leaves mutations without deadline.
func NewMessageGateway(store contract.DocumentStore, log *slog.Logger, writeTimeout time.Duration) *MessageGateway {
	return &MessageGateway{store: store, log: log, writeTimeout: writeTimeout}
}

// Create inserts the draft. The store assigns the id and the creation timestamp.
func (g *MessageGateway) Create(ctx context.Context, draft domain.Draft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	doc, err := g.store.Insert(ctx, MessagesCollection, document.Fields{
		fieldText:   draft.Text,
		fieldAuthor: draft.Author,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create message: %w", errors.ErrStoreWrite, err)
	}
	g.log.Debug("Document written", "id", doc.ID)
	return doc.ID, nil
}

// ListAll returns every message, oldest first. Used for the initial load only.
func (g *MessageGateway) ListAll(ctx context.Context) ([]domain.Message, error) {
	docs, err := g.store.List(ctx, MessagesCollection)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", errors.ErrStoreRead, err)
	}
	return lo.Map(docs, func(doc document.Document, _ int) domain.Message {
		return toMessage(doc)
	}), nil
}

// Update merges the patch into the message. The store stamps updatedAt.
func (g *MessageGateway) Update(ctx context.Context, id string, patch domain.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if _, err := g.store.Merge(ctx, MessagesCollection, id, document.Fields{fieldText: patch.Text}); err != nil {
		return fmt.Errorf("%w: update message %s: %w", errors.ErrStoreWrite, id, err)
	}
	g.log.Debug("Document updated", "id", id)
	return nil
}

func (g *MessageGateway) Delete(ctx context.Context, id string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err := g.store.Delete(ctx, MessagesCollection, id); err != nil {
		return fmt.Errorf("%w: delete message %s: %w", errors.ErrStoreWrite, id, err)
	}
	g.log.Debug("Document deleted", "id", id)
	return nil
}

// Subscribe opens the long-lived change feed of the collection.
// onChange is called from a single goroutine, in the order the store delivers.
// The feed stays open until Unsubscribe, ctx cancellation or a store failure.
func (g *MessageGateway) Subscribe(ctx context.Context, onChange func(batch domain.ChangeBatch)) (contract.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		err := g.store.Listen(subCtx, MessagesCollection, func(batch document.Batch) error {
			onChange(g.toChangeBatch(batch))
			return nil
		})
		switch {
		case subCtx.Err() != nil:
			// Unsubscribed, not a failure
		case err != nil:
			sub.setErr(fmt.Errorf("%w: listen messages: %w", errors.ErrStoreRead, err))
		default:
			sub.setErr(errors.ErrSubscriptionClosed)
		}
	}()
	return sub, nil
}

func (g *MessageGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.writeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.writeTimeout)
}

func (g *MessageGateway) toChangeBatch(batch document.Batch) domain.ChangeBatch {
	res := domain.ChangeBatch{Snapshot: batch.Snapshot}
	for _, change := range batch.Changes {
		c, err := toChange(change)
		if err != nil {
			g.log.Warn("Change skipped", "id", change.Document.ID, "error", err)
			continue
		}
		res.Changes = append(res.Changes, c)
	}
	return res
}

func toChange(change document.Change) (domain.Change, error) {
	switch change.Type {
	case document.Added:
		return domain.Change{Type: domain.Added, Message: toMessage(change.Document)}, nil
	case document.Modified:
		return domain.Change{Type: domain.Modified, Message: toMessage(change.Document)}, nil
	case document.Removed:
		return domain.Change{Type: domain.Removed, Message: domain.Message{ID: change.Document.ID}}, nil
	default:
		return domain.Change{}, fmt.Errorf("%w: %q", errors.ErrUnknownChange, change.Type)
	}
}

func toMessage(doc document.Document) domain.Message {
	message := domain.Message{
		ID:        doc.ID,
		Text:      doc.String(fieldText),
		Author:    doc.String(fieldAuthor),
		CreatedAt: doc.CreateTime,
	}
	if doc.Merged() {
		message.UpdatedAt = lo.ToPtr(doc.UpdateTime)
	}
	return message
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
	err    error
}

// Unsubscribe closes the feed and waits for the listen to return.
func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

func (s *subscription) Done() <-chan struct{} { return s.done }

// Err explains why the feed ended. nil while open or after Unsubscribe.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
