package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("comm-1")
	defer cancel()

	hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-1", Plate: "ABC123", Decision: "granted"})

	select {
	case ev := <-ch:
		assert.Equal(t, "ABC123", ev.Plate)
		assert.Equal(t, "granted", ev.Decision)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestHub_CommunityFilter(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("comm-1")
	defer cancel()

	hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-2", Plate: "OTHER"})
	hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-1", Plate: "MINE"})

	ev := <-ch
	assert.Equal(t, "MINE", ev.Plate)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestHub_EmptyCommunitySeesAll(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("")
	defer cancel()

	hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-1", Plate: "A1"})
	hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-2", Plate: "B2"})

	assert.Equal(t, "A1", (<-ch).Plate)
	assert.Equal(t, "B2", (<-ch).Plate)
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("comm-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Overfill the subscriber buffer without a reader.
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(Event{Type: TypeDetection, CommunityID: "comm-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_CancelRemovesSubscription(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("comm-1")
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	// Channel is closed after cancel.
	_, open := <-ch
	assert.False(t, open)

	// Double cancel is safe.
	cancel()
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	ch1, _ := hub.Subscribe("comm-1")
	ch2, _ := hub.Subscribe("")

	hub.Close()
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)
}
