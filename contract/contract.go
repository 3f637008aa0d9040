//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-wall/domain"
	"chat-wall/domain/document"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, so workers don't need to carry a name.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// DocumentStore is the document-store service holding the collections.
// Implemented in-process on Badger and remotely over gRPC.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, fields document.Fields) (document.Document, error)
	List(ctx context.Context, collection string) ([]document.Document, error)
	Merge(ctx context.Context, collection, id string, fields document.Fields) (document.Document, error)
	Delete(ctx context.Context, collection, id string) error
	// Listen blocks until ctx is done or the feed breaks.
	// The first batch is a snapshot of the collection.
	Listen(ctx context.Context, collection string, listener document.Listener) error
}

// Subscription is a live change feed.
type Subscription interface {
	Unsubscribe()
	Done() <-chan struct{}
	Err() error
}

// IMessageGateway is the typed access to the "messages" collection.
// It is the only component doing store I/O.
type IMessageGateway interface {
	Create(ctx context.Context, draft domain.Draft) (string, error)
	ListAll(ctx context.Context) ([]domain.Message, error)
	Update(ctx context.Context, id string, patch domain.Patch) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onChange func(batch domain.ChangeBatch)) (Subscription, error)
}
