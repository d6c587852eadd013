package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePublishSync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []Event
	bus.Subscribe(SaveCompleted, func(e Event) {
		got = append(got, e)
	})

	bus.PublishSync(Event{Type: SaveCompleted, Data: SaveCompletedData{Path: "/tmp/deck.pptx", Bytes: 42}})
	bus.PublishSync(Event{Type: SaveFailed, Data: SaveFailedData{Path: "/tmp/deck.pptx"}})

	require.Len(t, got, 1)
	assert.Equal(t, SaveCompleted, got[0].Type)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	bus.SubscribeAll(func(e Event) { count++ })

	bus.PublishSync(Event{Type: SessionOpened})
	bus.PublishSync(Event{Type: SessionClosed})

	assert.Equal(t, 2, count)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	unsub := bus.Subscribe(SessionOpened, func(e Event) { count++ })

	bus.PublishSync(Event{Type: SessionOpened})
	unsub()
	bus.PublishSync(Event{Type: SessionOpened})

	assert.Equal(t, 1, count)
}

func TestPublishAsync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	bus.Subscribe(DocumentChanged, func(e Event) { wg.Done() })
	bus.SubscribeAll(func(e Event) { wg.Done() })

	bus.Publish(Event{Type: DocumentChanged})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async subscribers were not called")
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewBus()

	var count int
	bus.Subscribe(ServerStopped, func(e Event) { count++ })
	require.NoError(t, bus.Close())

	bus.PublishSync(Event{Type: ServerStopped})
	assert.Equal(t, 0, count)

	// Subscribing after close returns a no-op unsubscribe.
	unsub := bus.Subscribe(ServerStopped, func(e Event) {})
	unsub()
}
