package eventbus

import (
	"errors"
	"sync"
)

type Engine[T any] interface {
	On(event string, fn Handler[T])
	Emit(event string, in T) error
}

type Handler[T any] func(T) error

// EventBus dispatches synchronously, in registration order, on the
// caller's goroutine.
type EventBus[T any] struct {
	rw       sync.RWMutex
	handlers map[string][]Handler[T]
}

func New[T any]() *EventBus[T] {
	return &EventBus[T]{
		handlers: make(map[string][]Handler[T]),
	}
}

func (e *EventBus[T]) On(event string, fn Handler[T]) {
	e.rw.Lock()
	e.handlers[event] = append(e.handlers[event], fn)
	e.rw.Unlock()
}

// Emit runs every handler for the event, even when an earlier one fails,
// and returns the joined errors.
func (e *EventBus[T]) Emit(event string, in T) error {
	e.rw.RLock()
	handlers := e.handlers[event]
	e.rw.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(in); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
