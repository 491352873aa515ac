package gameloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoordinator struct {
	ticks        int32
	lobbyCalls   int32
	webhookCalls int32
}

func (c *fakeCoordinator) Tick(context.Context) error {
	atomic.AddInt32(&c.ticks, 1)
	return nil
}

func (c *fakeCoordinator) BroadcastSkinsAndLobby() {
	atomic.AddInt32(&c.lobbyCalls, 1)
}

func (c *fakeCoordinator) SendPlayerList(context.Context) error {
	atomic.AddInt32(&c.webhookCalls, 1)
	return nil
}

func TestTickAlwaysRunsCoordinatorTick(t *testing.T) {
	coord := &fakeCoordinator{}
	loop := New(coord, false)
	loop.tick(context.Background(), 0)
	loop.tick(context.Background(), 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&coord.ticks))
}

func TestTickRunsSkinsAndLobbyOnCadenceOnly(t *testing.T) {
	coord := &fakeCoordinator{}
	loop := New(coord, false)
	for i := uint64(0); i < skinAndLobbyCadence; i++ {
		loop.tick(context.Background(), i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&coord.lobbyCalls), "expected exactly one lobby broadcast per 30 ticks")
}

func TestTickSkipsWebhookWhenDisabled(t *testing.T) {
	coord := &fakeCoordinator{}
	loop := New(coord, false)
	loop.tick(context.Background(), 0)
	assert.Zero(t, atomic.LoadInt32(&coord.webhookCalls))
}

func TestTickFiresWebhookOnFirstEligibleCadenceWhenEnabled(t *testing.T) {
	coord := &fakeCoordinator{}
	loop := New(coord, true)
	loop.tick(context.Background(), 0)
	assert.EqualValues(t, 1, atomic.LoadInt32(&coord.webhookCalls))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	coord := &fakeCoordinator{}
	loop := New(coord, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&coord.ticks) > 0
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
