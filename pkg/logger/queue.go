package logger

import (
	"fmt"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// QueueEntry is a record waiting for the logger to become active.
type QueueEntry struct {
	Level    types.Level
	Message  string
	Dispatch func(message string)

	seq uint64
}

// StartupQueue holds records produced while a logger has no live node, and
// self-reports produced while dispatching. It is not safe for concurrent
// use; the owning Logger serialises access.
type StartupQueue struct {
	entries  []QueueEntry
	capacity int
	seq      uint64
	flushing bool

	onDrop  func(QueueEntry)
	onPanic func(QueueEntry, interface{})
}

// NewStartupQueue creates a queue holding at most capacity entries
func NewStartupQueue(capacity int) *StartupQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &StartupQueue{capacity: capacity}
}

// Enqueue appends an entry. At capacity the oldest entry is dropped.
func (q *StartupQueue) Enqueue(e QueueEntry) {
	if len(q.entries) >= q.capacity {
		dropped := q.entries[0]
		q.entries = q.entries[1:]
		if q.onDrop != nil {
			q.onDrop(dropped)
		}
	}
	q.seq++
	e.seq = q.seq
	q.entries = append(q.entries, e)
}

// Flush dispatches, in order, the entries present when the call starts.
// Entries added by a dispatch wait for the next flush. Each entry is
// removed before it is dispatched, and a panicking dispatch does not stop
// the pass. A Flush started from inside a dispatch returns immediately.
// It returns the number of entries dispatched.
func (q *StartupQueue) Flush() int {
	if q.flushing || len(q.entries) == 0 {
		return 0
	}
	q.flushing = true
	defer func() { q.flushing = false }()

	last := q.seq
	delivered := 0
	for len(q.entries) > 0 && q.entries[0].seq <= last {
		e := q.entries[0]
		q.entries = q.entries[1:]
		q.dispatch(e)
		delivered++
	}
	return delivered
}

func (q *StartupQueue) dispatch(e QueueEntry) {
	defer func() {
		if r := recover(); r != nil && q.onPanic != nil {
			q.onPanic(e, r)
		}
	}()
	if e.Dispatch != nil {
		e.Dispatch(e.Message)
	}
}

// Len returns the number of waiting entries
func (q *StartupQueue) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the waiting entries, oldest first
func (q *StartupQueue) Entries() []QueueEntry {
	out := make([]QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (e QueueEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Level, e.Message)
}
