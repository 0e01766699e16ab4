package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/events"
)

func TestDisabledBusIsInert(t *testing.T) {
	bus, err := events.Start(events.Config{Enabled: false}, nil)
	require.NoError(t, err)
	defer bus.Close()

	bus.PublishBreakerStateChanged("arxiv", "closed", "open")
	bus.PublishFanOutCompleted("search", "quantum computing", 5, 3)

	unsubscribe, err := bus.SubscribeBreakerStateChanged(func(events.BreakerStateChanged) {
		t.Fatal("handler must never be called on a disabled bus")
	})
	require.NoError(t, err)
	unsubscribe()
}

func TestEnabledBusDeliversBreakerStateChanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS integration test")
	}

	cfg := events.Config{Enabled: true, Host: "127.0.0.1", Port: -1, StoreDir: t.TempDir()}
	bus, err := events.Start(cfg, nil)
	require.NoError(t, err)
	defer bus.Close()

	received := make(chan events.BreakerStateChanged, 1)
	unsubscribe, err := bus.SubscribeBreakerStateChanged(func(evt events.BreakerStateChanged) {
		received <- evt
	})
	require.NoError(t, err)
	defer unsubscribe()

	bus.PublishBreakerStateChanged("arxiv", "closed", "open")

	select {
	case evt := <-received:
		assert.Equal(t, "arxiv", evt.Provider)
		assert.Equal(t, "closed", evt.From)
		assert.Equal(t, "open", evt.To)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for breaker state change event")
	}
}
