package runtime

import (
	"chat-wall/contract"
	"chat-wall/domain"
	"chat-wall/errors"
	"chat-wall/mocks"
	"chat-wall/runtime/workers"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestOrchestrator_Load_Then_Live_Feed(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockIMessageGateway(ctrl)
	sub := mocks.NewMockSubscription(ctrl)

	// Given the store already holds one message
	first := domain.Message{ID: "m1", Text: "hello", Author: "ann", CreatedAt: t0}
	second := domain.Message{ID: "m2", Text: "hi", Author: "bob", CreatedAt: t0.Add(time.Second)}
	gateway.EXPECT().ListAll(gomock.Any()).Return([]domain.Message{first}, nil).Times(1)

	// And the feed snapshot repeats it before a new message arrives
	gateway.EXPECT().
		Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, onChange func(domain.ChangeBatch)) (contract.Subscription, error) {
			onChange(domain.ChangeBatch{Snapshot: true, Changes: []domain.Change{{Type: domain.Added, Message: first}}})
			onChange(domain.ChangeBatch{Changes: []domain.Change{{Type: domain.Added, Message: second}}})
			return sub, nil
		}).
		Times(1)
	sub.EXPECT().Done().Return(make(chan struct{})).AnyTimes()
	sub.EXPECT().Unsubscribe().Times(1)

	o := NewOrchestrator(context.Background(), log, gateway, workers.NewSupervisor(log, 10*time.Millisecond), 10, time.Second)
	var refreshes atomic.Int32
	o.OnChange(func() { refreshes.Add(1) })

	done := make(chan struct{})
	go func() {
		o.Start(context.Background())
		close(done)
	}()

	// Then the view holds both messages once, in creation order
	req.Eventually(func() bool { return o.View().Len() == 2 }, time.Second, 5*time.Millisecond)
	nodes := o.View().Nodes()
	req.Equal("m1", nodes[0].Message.ID)
	req.Equal("m2", nodes[1].Message.ID)
	req.Eventually(func() bool { return refreshes.Load() == 2 }, time.Second, 5*time.Millisecond)

	// When stopping, the feed is unsubscribed and Start returns
	o.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("orchestrator did not stop")
	}
}

func TestOrchestrator_Failed_Load_Starts_Empty(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockIMessageGateway(ctrl)
	sub := mocks.NewMockSubscription(ctrl)

	gateway.EXPECT().ListAll(gomock.Any()).Return(nil, errors.ErrStoreRead).Times(1)
	subscribed := make(chan struct{})
	gateway.EXPECT().
		Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, func(domain.ChangeBatch)) (contract.Subscription, error) {
			close(subscribed)
			return sub, nil
		}).
		Times(1)
	sub.EXPECT().Done().Return(make(chan struct{})).AnyTimes()
	sub.EXPECT().Unsubscribe().Times(1)

	o := NewOrchestrator(context.Background(), log, gateway, workers.NewSupervisor(log, 10*time.Millisecond), 10, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Start(ctx)
		close(done)
	}()

	<-subscribed
	req.Zero(o.View().Len())
	cancel()
	<-done
	o.Stop()
}

func TestOrchestrator_Stop_Cancels_Stalled_Writes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockIMessageGateway(ctrl)

	// Given a create the store never answers
	gateway.EXPECT().
		Create(gomock.Any(), domain.Draft{Text: "hi", Author: "bob"}).
		DoAndReturn(func(ctx context.Context, _ domain.Draft) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).
		Times(1)

	o := NewOrchestrator(context.Background(), log, gateway, workers.NewSupervisor(log, 10*time.Millisecond), 10, 20*time.Millisecond)
	req.True(o.Controller().Send("hi", "bob"))

	// When quitting
	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()

	// Then the write is canceled and reported
	select {
	case <-stopped:
	case <-time.After(time.Second):
		req.FailNow("Stop should not wait for a stalled write")
	}
	failure := <-o.Controller().Failures()
	req.Equal("create", failure.Op)
	req.ErrorIs(failure.Err, context.Canceled)
}

func TestOrchestrator_Stop_During_Initial_Load(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockIMessageGateway(ctrl)

	// Given the initial load is still in flight when the user quits
	loading := make(chan struct{})
	release := make(chan struct{})
	gateway.EXPECT().
		ListAll(gomock.Any()).
		DoAndReturn(func(context.Context) ([]domain.Message, error) {
			close(loading)
			<-release
			return nil, nil
		}).
		Times(1)

	o := NewOrchestrator(context.Background(), log, gateway, workers.NewSupervisor(log, 10*time.Millisecond), 10, time.Second)
	done := make(chan struct{})
	go func() {
		o.Start(context.Background())
		close(done)
	}()
	<-loading

	// When stopping before the feed started, then letting the load finish
	o.Stop()
	close(release)

	// Then Start returns without ever subscribing
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Start should return once stopped")
	}
}
