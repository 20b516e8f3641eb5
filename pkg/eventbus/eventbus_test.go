package eventbus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alextanhongpin/go-fitmate/pkg/eventbus"
)

func TestEventBus_EmitWithoutHandlers(t *testing.T) {
	bus := eventbus.New[string]()

	assert.NoError(t, bus.Emit("nothing", "x"))
}

func TestEventBus_HandlersRunInOrder(t *testing.T) {
	bus := eventbus.New[string]()

	var got []string
	bus.On("added", func(s string) error {
		got = append(got, "first:"+s)
		return nil
	})
	bus.On("added", func(s string) error {
		got = append(got, "second:"+s)
		return nil
	})

	assert.NoError(t, bus.Emit("added", "a"))
	assert.Equal(t, []string{"first:a", "second:a"}, got)
}

func TestEventBus_ErrorsAreJoined(t *testing.T) {
	bus := eventbus.New[int]()

	errA, errB := errors.New("a"), errors.New("b")
	calls := 0
	bus.On("e", func(int) error { calls++; return errA })
	bus.On("e", func(int) error { calls++; return errB })

	err := bus.Emit("e", 1)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
