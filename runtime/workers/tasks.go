package workers

import (
	"chat-wall/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Tasks runs store mutations off the caller's goroutine.
// Every outcome is observed: a failure or a panic is logged and handed to
// the task's failure callback, never dropped.
type Tasks struct {
	ctx context.Context
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewTasks(ctx context.Context, log *slog.Logger) *Tasks {
	return &Tasks{ctx: ctx, log: log}
}

// Go starts fn in its own goroutine. onFailure may be nil.
func (t *Tasks) Go(name string, fn func(ctx context.Context) error, onFailure func(err error)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", errors.ErrTaskPanic, r)
				}
			}()
			return fn(t.ctx)
		}()
		if err == nil {
			return
		}
		t.log.Error("Task failed", "task", name, "error", err)
		if onFailure != nil {
			onFailure(err)
		}
	}()
}

// Wait blocks until every started task returned.
func (t *Tasks) Wait() {
	t.wg.Wait()
}
