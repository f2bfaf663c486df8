package polygon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamAppliesDefaultIntervals(t *testing.T) {
	s := NewStream("key", "ws://localhost:1", 0, 0)

	assert.Equal(t, defaultReconnectDelay, s.reconnectDelay)
	assert.Equal(t, defaultPingInterval, s.pingInterval)

	s = NewStream("key", "ws://localhost:1", time.Second, 2*time.Second)
	assert.Equal(t, time.Second, s.reconnectDelay)
	assert.Equal(t, 2*time.Second, s.pingInterval)
}

func TestStreamUnconnectedState(t *testing.T) {
	s := NewStream("key", "ws://localhost:1", 0, 0)

	assert.False(t, s.IsConnected())
	assert.Nil(t, s.Snapshot())
	assert.NoError(t, s.Close())
	assert.Error(t, s.Subscribe(context.Background()))
}

func TestStreamRunSurvivesZeroPingConfig(t *testing.T) {
	// unset ping_interval with a configured websocket_url must not panic the
	// ping ticker; dial failures surface on the error channel instead
	s := NewStream("key", "ws://127.0.0.1:1", 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, errs)
		close(done)
	}()

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reconnect error")
	}

	cancel()
	_ = s.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop on context cancel")
	}
}
