package services

import (
	"chat-wall/contract"
	"chat-wall/domain"
	"chat-wall/projection"
	"chat-wall/runtime/workers"
	"context"
	"log/slog"
	"time"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type IInputController interface {
	Send(text, author string) bool
	Delete(id string) bool
	BeginEdit(id string) bool
	EditDraft(id, text string) bool
	SubmitEdit(id string) bool
	CancelEdit(id string) bool
	Failures() <-chan domain.WriteFailure
}

// InputController turns user input into gateway calls.
// Mutations run on the task boundary, the caller never waits for the store.
type InputController struct {
	gateway  contract.IMessageGateway
	view     *projection.Reconciler
	tasks    *workers.Tasks
	failures chan domain.WriteFailure
	log      *slog.Logger
	now      func() time.Time
}

func NewInputController(gateway contract.IMessageGateway, view *projection.Reconciler,
	tasks *workers.Tasks, log *slog.Logger, failureBufferSize int) *InputController {
	return &InputController{
		gateway:  gateway,
		view:     view,
		tasks:    tasks,
		failures: make(chan domain.WriteFailure, failureBufferSize),
		log:      log,
		now:      time.Now,
	}
}

// Send posts a new message. The send button and the Enter key both land here.
// An empty text or author is ignored without feedback.
// It returns true when the create was dispatched: the caller clears the text field.
func (c *InputController) Send(text, author string) bool {
	draft := domain.Draft{Text: text, Author: author}
	if draft.Validate() != nil {
		return false
	}
	c.tasks.Go(OpCreate, func(ctx context.Context) error {
		id, err := c.gateway.Create(ctx, draft)
		if err != nil {
			return err
		}
		c.log.Debug("Message sent", "id", id, "author", author)
		return nil
	}, c.reportFailure(OpCreate, ""))
	return true
}

// Delete removes the node right away, then asks the store.
// If the store refuses, the node comes back at its position.
func (c *InputController) Delete(id string) bool {
	if !c.view.RemoveLocal(id) {
		return false
	}
	report := c.reportFailure(OpDelete, id)
	c.tasks.Go(OpDelete, func(ctx context.Context) error {
		return c.gateway.Delete(ctx, id)
	}, func(err error) {
		if c.view.RestoreRemoved(id) {
			c.log.Info("Local delete rolled back", "id", id)
		}
		report(err)
	})
	return true
}

func (c *InputController) BeginEdit(id string) bool {
	return c.view.BeginEdit(id)
}

func (c *InputController) EditDraft(id, text string) bool {
	return c.view.EditDraft(id, text)
}

// SubmitEdit sends the draft of an Editing node.
// The node goes back to Viewing when the modified event arrives.
func (c *InputController) SubmitEdit(id string) bool {
	text, ok := c.view.SubmitEdit(id)
	if !ok {
		return false
	}
	report := c.reportFailure(OpUpdate, id)
	c.tasks.Go(OpUpdate, func(ctx context.Context) error {
		return c.gateway.Update(ctx, id, domain.Patch{Text: text})
	}, func(err error) {
		c.view.AbandonSubmit(id)
		report(err)
	})
	return true
}

func (c *InputController) CancelEdit(id string) bool {
	return c.view.CancelEdit(id)
}

// Failures streams the abandoned writes. Notices are dropped when nobody reads.
func (c *InputController) Failures() <-chan domain.WriteFailure {
	return c.failures
}

func (c *InputController) reportFailure(op, id string) func(err error) {
	return func(err error) {
		failure := domain.WriteFailure{Op: op, MessageID: id, Err: err, At: c.now()}
		select {
		case c.failures <- failure:
		default:
			c.log.Warn("Failure notice dropped", "op", op, "id", id)
		}
	}
}
