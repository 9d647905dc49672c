package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllHandlers(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(EventUserCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("first failed")
	})
	bus.Subscribe(EventUserCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	bus.Subscribe(EventGroupCreated, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := bus.Publish(context.Background(), Event{Type: EventUserCreated, SubjectID: "u-1"})

	assert.EqualError(t, err, "user_created handler 0: first failed")
	assert.Equal(t, []string{"first:u-1", "second:u-1"}, got)
	assert.Equal(t, 2, bus.Subscribers(EventUserCreated))
}

func TestBusContainsPanickingHandler(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(EventCourseCreated, func(context.Context, Event) error { panic("boom") })
	bus.Subscribe(EventCourseCreated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	var err error
	require.NotPanics(t, func() {
		err = bus.Publish(context.Background(), Event{Type: EventCourseCreated})
	})
	assert.ErrorContains(t, err, "panic: boom")
	assert.True(t, delivered)
}

func TestBusWithoutListeners(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), Event{Type: EventGroupUpdated}))
	assert.Zero(t, bus.Subscribers(EventGroupUpdated))
}
