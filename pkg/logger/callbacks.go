package logger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// EventMessageLogged fires after every item produced by an active logger
const EventMessageLogged = "onMessageLogged"

// Callback receives logger events
type Callback func(event string, item *types.LogItem)

type registeredCallback struct {
	id int
	fn Callback
}

// Callbacks is the host hook. Handlers run synchronously, in registration
// order, on the logging goroutine.
type Callbacks struct {
	mu       sync.RWMutex
	handlers map[string][]registeredCallback
	nextID   int
	onPanic  func(event string, err error)
}

// NewCallbacks creates an empty hook
func NewCallbacks() *Callbacks {
	return &Callbacks{handlers: make(map[string][]registeredCallback)}
}

// Register adds a handler for event and returns its id
func (c *Callbacks) Register(event string, fn Callback) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.handlers[event] = append(c.handlers[event], registeredCallback{id: c.nextID, fn: fn})
	return c.nextID
}

// Unregister removes the handler with the given id
func (c *Callbacks) Unregister(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for event, list := range c.handlers {
		for i, cb := range list {
			if cb.id == id {
				c.handlers[event] = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Notify invokes the handlers of event. A panicking handler is reported
// and the remaining handlers still run.
func (c *Callbacks) Notify(event string, item *types.LogItem) {
	c.mu.RLock()
	list := append([]registeredCallback(nil), c.handlers[event]...)
	c.mu.RUnlock()

	for _, cb := range list {
		c.invoke(event, cb.fn, item)
	}
}

func (c *Callbacks) invoke(event string, fn Callback, item *types.LogItem) {
	defer func() {
		if r := recover(); r != nil && c.onPanic != nil {
			c.onPanic(event, errors.Errorf("callback panic: %v", r))
		}
	}()
	fn(event, item)
}
