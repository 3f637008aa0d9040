package workers

import (
	"chat-wall/contract"
	"chat-wall/domain"
	"chat-wall/errors"
	"chat-wall/projection"
	"context"
	"log/slog"
)

// ChangeListener keeps the view in sync with the store change feed.
// It returns an error when the feed breaks so the supervisor reopens it;
// the snapshot of the new feed resyncs the view.
type ChangeListener struct {
	gateway contract.IMessageGateway
	view    *projection.Reconciler
	log     *slog.Logger
	applied func()
}

// NewChangeListener builds the worker. applied is called after every batch
// that changed the view, it may be nil.
func NewChangeListener(gateway contract.IMessageGateway, view *projection.Reconciler, log *slog.Logger, applied func()) ChangeListener {
	return ChangeListener{gateway: gateway, view: view, log: log, applied: applied}
}

func (w ChangeListener) Run(ctx context.Context) error {
	sub, err := w.gateway.Subscribe(ctx, func(batch domain.ChangeBatch) {
		if w.view.Apply(batch) && w.applied != nil {
			w.applied()
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		sub.Unsubscribe()
		w.log.Debug("Change feed closed")
		return nil
	case <-sub.Done():
		if ctx.Err() != nil {
			return nil
		}
		if err = sub.Err(); err != nil {
			return err
		}
		return errors.ErrSubscriptionClosed
	}
}
