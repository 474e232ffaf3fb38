package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyMatchingSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var alerts, drops []Event
	d.Subscribe(EventAlert, func(_ context.Context, ev Event) {
		alerts = append(alerts, ev)
	})
	d.Subscribe(EventConnectionLost, func(_ context.Context, ev Event) {
		drops = append(drops, ev)
	})

	d.Publish(context.Background(), NewAlert(SeverityInfo, "zdravo"))
	d.Publish(context.Background(), Event{Type: EventConnectionLost})

	require.Len(t, alerts, 1)
	assert.Equal(t, "zdravo", alerts[0].Message)
	assert.Equal(t, SeverityInfo, alerts[0].Severity)
	assert.False(t, alerts[0].Timestamp.IsZero())
	require.Len(t, drops, 1)
	assert.Empty(t, drops[0].Message)
}

func TestCancelRemovesSubscription(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	cancel := d.Subscribe(EventAlert, func(context.Context, Event) { calls++ })

	d.Publish(context.Background(), NewAlert(SeverityInfo, "prvi"))
	cancel()
	d.Publish(context.Background(), NewAlert(SeverityInfo, "drugi"))

	assert.Equal(t, 1, calls)

	// Cancelling twice is harmless.
	cancel()
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	d := NewInMemoryDispatcher()

	received := make([]int, 3)
	for i := range received {
		i := i
		d.Subscribe(EventAlert, func(context.Context, Event) { received[i]++ })
	}

	d.Publish(context.Background(), NewAlert(SeverityWarning, "svi"))

	assert.Equal(t, []int{1, 1, 1}, received)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	d := NewInMemoryDispatcher()
	d.Publish(context.Background(), Event{Type: EventConnectionFailed})
}
