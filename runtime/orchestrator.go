// Package runtime wires the widget: initial load, live change feed, and the
// task boundary behind the input controller.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"chat-wall/contract"
	"chat-wall/projection"
	"chat-wall/runtime/workers"
	"chat-wall/services"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	gateway    contract.IMessageGateway
	supervisor contract.ISupervisor
	view       *projection.Reconciler
	tasks      *workers.Tasks
	controller *services.InputController
	cancel     context.CancelFunc
	onChange   []func()

	// drainTimeout bounds how long Stop waits for in-flight writes
	drainTimeout time.Duration
}

func NewOrchestrator(ctx context.Context, log *slog.Logger, gateway contract.IMessageGateway,
	supervisor contract.ISupervisor, failureBufferSize int, drainTimeout time.Duration) *Orchestrator {
	tasksCtx, cancel := context.WithCancel(ctx)
	view := projection.NewReconciler(log)
	tasks := workers.NewTasks(tasksCtx, log)
	return &Orchestrator{
		log:        log,
		gateway:    gateway,
		supervisor: supervisor,
		view:       view,
		tasks:      tasks,
		controller: services.NewInputController(gateway, view, tasks, log, failureBufferSize),
		cancel:     cancel,

		drainTimeout: drainTimeout,
	}
}

// OnChange registers a hook called every time the view changed.
// Hooks run on the change feed goroutine and must not block.
func (o *Orchestrator) OnChange(hook func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = append(o.onChange, hook)
}

func (o *Orchestrator) View() *projection.Reconciler {
	return o.view
}

func (o *Orchestrator) Controller() services.IInputController {
	return o.controller
}

// Start loads the collection once, then runs the change feed under
// supervision until ctx is canceled or Stop is called.
// A failed initial load leaves the view empty: the feed snapshot fills it.
func (o *Orchestrator) Start(ctx context.Context) {
	start := time.Now()
	messages, err := o.gateway.ListAll(ctx)
	if err != nil {
		o.log.Error("Initial load failed, starting with an empty list", "error", err)
	} else {
		o.view.Load(messages)
		o.log.Info(fmt.Sprintf("%d messages loaded", len(messages)), "in", time.Since(start))
	}
	o.notify()

	o.supervisor.Add(workers.NewChangeListener(o.gateway, o.view, o.log, o.notify))
	o.log.Info("Starting orchestrator and the change feed")
	o.supervisor.Run(ctx)
}

// Stop closes the change feed and waits for in-flight writes.
// Writes still running after drainTimeout are canceled and reported as failures.
func (o *Orchestrator) Stop() {
	o.supervisor.Stop()

	drained := make(chan struct{})
	go func() {
		o.tasks.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(o.drainTimeout):
		o.log.Warn("Pending writes canceled", "after", o.drainTimeout)
		o.cancel()
		<-drained
	}
	o.cancel()
	o.log.Info("Orchestrator stopped")
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	hooks := append([]func(){}, o.onChange...)
	o.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}
