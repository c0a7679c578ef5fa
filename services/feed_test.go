package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/models"
)

func TestFeed(t *testing.T) {
	f := NewFeed(1)
	a, unsubA := f.Subscribe()
	b, unsubB := f.Subscribe()
	defer unsubB()
	require.Equal(t, 2, f.Subscribers())

	o := &models.Order{OrderNumber: "LUX-1"}
	f.Publish(OrderEvent{Type: EventOrderCreated, Order: o})
	ev := <-a
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.Equal(t, "LUX-1", ev.Order.OrderNumber)

	// b never read its first event, so the second one drops it
	f.Publish(OrderEvent{Type: EventOrderStatus, Order: o})
	<-b
	_, open := <-b
	assert.False(t, open)
	assert.Equal(t, 1, f.Subscribers())

	unsubA()
	unsubA()
	assert.Equal(t, 0, f.Subscribers())

	var nilFeed *Feed
	nilFeed.Publish(OrderEvent{})
}

func TestFeedClose(t *testing.T) {
	f := NewFeed(1)
	ch, unsubscribe := f.Subscribe()
	f.Close()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, f.Subscribers())

	late, _ := f.Subscribe()
	_, open = <-late
	assert.False(t, open)
	f.Publish(OrderEvent{Type: EventOrderCreated})
}
