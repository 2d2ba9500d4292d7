package workers

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const room = domain.ProjectID("507f1f77bcf86cd799439011")

func TestEventFanoutWorker_Fanout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memberSink := mocks.NewMockEventSink(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)
	env := domain.NewEnvelope(room, domain.Assistant{}, "4")

	fanoutWorker := NewEventFanoutWorker(log, nil, time.Second, permanentSink)

	// Given two members and one permanent sink
	memberSink.EXPECT().Consume(gomock.Any(), env).Return(nil).Times(2)
	permanentSink.EXPECT().Consume(gomock.Any(), env).Return(nil).Times(1)

	// When a delivery is handled by the worker
	fanoutWorker.Fanout(context.Background(), contract.Delivery{
		Envelope: env,
		Members: []contract.Member{
			{ConnectionID: "c1", Sink: memberSink},
			{ConnectionID: "c2", Sink: memberSink},
		},
	})

	// Then every sink consumed the envelope exactly once
	req.True(ctrl.Satisfied())
}

func TestEventFanoutWorker_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	slowSink := mocks.NewMockEventSink(ctrl)
	fastSink := mocks.NewMockEventSink(ctrl)
	env := domain.NewEnvelope(room, domain.System{}, "notice")

	fanoutWorker := NewEventFanoutWorker(log, nil, 50*time.Millisecond)

	// Given a sink blocking until its deadline
	slowSink.EXPECT().Consume(gomock.Any(), env).DoAndReturn(
		func(ctx context.Context, _ domain.Envelope) error {
			<-ctx.Done()
			return ctx.Err()
		}).Times(1)
	fastSink.EXPECT().Consume(gomock.Any(), env).Return(nil).Times(1)

	start := time.Now()
	// When the delivery reaches both sinks
	fanoutWorker.Fanout(context.Background(), contract.Delivery{
		Envelope: env,
		Members: []contract.Member{
			{ConnectionID: "slow", Sink: slowSink},
			{ConnectionID: "fast", Sink: fastSink},
		},
	})

	// Then the slow sink is abandoned after the timeout and the next one still receives it
	req.Less(time.Since(start), time.Second)
}

func TestEventFanoutWorker_Run(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockEventSink(ctrl)
	deliveries := make(chan contract.Delivery, 2)
	fanoutWorker := NewEventFanoutWorker(log, deliveries, time.Second)

	first := domain.NewEnvelope(room, domain.System{}, "first")
	second := domain.NewEnvelope(room, domain.System{}, "second")

	var received []string
	done := make(chan struct{})
	// Given a member receiving two broadcasts in order
	gomock.InOrder(
		sink.EXPECT().Consume(gomock.Any(), first).DoAndReturn(func(_ context.Context, e domain.Envelope) error {
			received = append(received, e.Body)
			return nil
		}),
		sink.EXPECT().Consume(gomock.Any(), second).DoAndReturn(func(_ context.Context, e domain.Envelope) error {
			received = append(received, e.Body)
			close(done)
			return nil
		}),
	)
	members := []contract.Member{{ConnectionID: "c1", Sink: sink}}
	deliveries <- contract.Delivery{Envelope: first, Members: members}
	deliveries <- contract.Delivery{Envelope: second, Members: members}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanoutWorker.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Deliveries were not handled in time")
	}
	// Then they arrive in broadcast order
	req.Equal([]string{"first", "second"}, received)
}
