package repositories

import (
	"chat-wall/domain"
	"chat-wall/domain/document"
	"chat-wall/errors"
	"chat-wall/mocks"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageGateway_Create(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)

	// Given the store accepts the insert
	store.EXPECT().
		Insert(gomock.Any(), MessagesCollection, document.Fields{"text": "hi", "author": "bob"}).
		Return(document.Document{ID: "m1"}, nil).
		Times(1)

	// When a draft is created
	id, err := gateway.Create(context.Background(), domain.Draft{Text: "hi", Author: "bob"})

	// Then the store id is returned
	req.NoError(err)
	req.Equal("m1", id)
}

func TestMessageGateway_Create_Invalid_Draft_Never_Reaches_Store(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)

	store.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := gateway.Create(context.Background(), domain.Draft{Text: "hi"})
	req.ErrorIs(err, errors.ErrInvalidDraft)
	_, err = gateway.Create(context.Background(), domain.Draft{Author: "bob"})
	req.ErrorIs(err, errors.ErrInvalidDraft)
}

func TestMessageGateway_Create_Failure_Is_A_Write_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	unavailable := stderrors.New("connection refused")

	store.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(document.Document{}, unavailable).
		Times(1)

	_, err := gateway.Create(context.Background(), domain.Draft{Text: "hi", Author: "bob"})
	req.ErrorIs(err, errors.ErrStoreWrite)
	req.ErrorIs(err, unavailable)
}

func TestMessageGateway_Write_Timeout_Sets_Deadline(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)

	store.EXPECT().Delete(gomock.Any(), MessagesCollection, "m1").
		DoAndReturn(func(ctx context.Context, _, _ string) error {
			_, ok := ctx.Deadline()
			req.True(ok)
			return nil
		}).
		Times(1)

	req.NoError(gateway.Delete(context.Background(), "m1"))
}

func TestMessageGateway_ListAll_Maps_Documents(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	store.EXPECT().List(gomock.Any(), MessagesCollection).
		Return([]document.Document{
			{ID: "m1", Fields: document.Fields{"text": "hello", "author": "ann"}, CreateTime: t1, UpdateTime: t1},
			{ID: "m2", Fields: document.Fields{"text": "edited", "author": "bob"}, CreateTime: t1.Add(time.Second), UpdateTime: t2},
		}, nil).
		Times(1)

	messages, err := gateway.ListAll(context.Background())
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(domain.Message{ID: "m1", Text: "hello", Author: "ann", CreatedAt: t1}, messages[0])
	req.True(messages[1].Edited())
	req.Equal(t2, *messages[1].UpdatedAt)
}

func TestMessageGateway_ListAll_Failure_Is_A_Read_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)

	store.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, stderrors.New("boom")).Times(1)

	messages, err := gateway.ListAll(context.Background())
	req.ErrorIs(err, errors.ErrStoreRead)
	req.Empty(messages)
}

func TestMessageGateway_Update_Merges_Text(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)

	store.EXPECT().Merge(gomock.Any(), MessagesCollection, "m1", document.Fields{"text": "hello!"}).
		Return(document.Document{ID: "m1"}, nil).
		Times(1)
	req.NoError(gateway.Update(context.Background(), "m1", domain.Patch{Text: "hello!"}))

	store.EXPECT().Merge(gomock.Any(), MessagesCollection, "gone", gomock.Any()).
		Return(document.Document{}, errors.ErrDocumentNotFound).
		Times(1)
	err := gateway.Update(context.Background(), "gone", domain.Patch{Text: "x"})
	req.ErrorIs(err, errors.ErrStoreWrite)
	req.ErrorIs(err, errors.ErrDocumentNotFound)
}

func TestMessageGateway_Subscribe_Translates_Batches(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Given the store pushes one batch then waits for cancellation
	store.EXPECT().Listen(gomock.Any(), MessagesCollection, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, listener document.Listener) error {
			err := listener(document.Batch{
				Collection: MessagesCollection,
				Snapshot:   true,
				Changes: []document.Change{
					{Type: document.Added, Document: document.Document{ID: "m1", Fields: document.Fields{"text": "hello", "author": "ann"}, CreateTime: t1, UpdateTime: t1}},
					{Type: "renamed", Document: document.Document{ID: "m9"}},
					{Type: document.Removed, Document: document.Document{ID: "m2"}},
				},
			})
			if err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		}).
		Times(1)

	batches := make(chan domain.ChangeBatch, 1)
	sub, err := gateway.Subscribe(context.Background(), func(batch domain.ChangeBatch) {
		batches <- batch
	})
	req.NoError(err)

	// Then the known changes are delivered, the unknown one is skipped
	select {
	case batch := <-batches:
		req.True(batch.Snapshot)
		req.Len(batch.Changes, 2)
		req.Equal(domain.Added, batch.Changes[0].Type)
		req.Equal("hello", batch.Changes[0].Message.Text)
		req.Equal(domain.Removed, batch.Changes[1].Type)
		req.Equal("m2", batch.Changes[1].Message.ID)
	case <-time.After(time.Second):
		req.Fail("no batch received")
	}

	// When unsubscribing, the feed ends cleanly
	sub.Unsubscribe()
	req.NoError(sub.Err())
	select {
	case <-sub.Done():
	default:
		req.Fail("subscription should be done")
	}
}

func TestMessageGateway_Subscribe_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	gateway := NewMessageGateway(store, logs.GetLoggerFromLevel(slog.LevelDebug), 0)

	store.EXPECT().Listen(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.ErrSubscriptionClosed).
		Times(1)

	sub, err := gateway.Subscribe(context.Background(), func(domain.ChangeBatch) {})
	req.NoError(err)

	select {
	case <-sub.Done():
		req.ErrorIs(sub.Err(), errors.ErrStoreRead)
		req.ErrorIs(sub.Err(), errors.ErrSubscriptionClosed)
	case <-time.After(time.Second):
		req.Fail("subscription should have ended")
	}
}
