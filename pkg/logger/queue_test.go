package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcraftzone/hierlog/pkg/types"
)

func collecting(out *[]string) func(string) {
	return func(m string) { *out = append(*out, m) }
}

func TestStartupQueueFlushOrder(t *testing.T) {
	q := NewStartupQueue(10)
	var got []string
	for _, m := range []string{"a", "b", "c"} {
		q.Enqueue(QueueEntry{Level: types.LevelInfo, Message: m, Dispatch: collecting(&got)})
	}

	assert.Equal(t, 3, q.Flush())
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Flush())
}

func TestStartupQueueEntriesAddedDuringFlushWait(t *testing.T) {
	q := NewStartupQueue(10)
	var got []string
	q.Enqueue(QueueEntry{Message: "first", Dispatch: func(m string) {
		got = append(got, m)
		q.Enqueue(QueueEntry{Message: "late", Dispatch: collecting(&got)})
	}})
	q.Enqueue(QueueEntry{Message: "second", Dispatch: collecting(&got)})

	assert.Equal(t, 2, q.Flush())
	assert.Equal(t, []string{"first", "second"}, got)
	require.Equal(t, 1, q.Len())

	q.Flush()
	assert.Equal(t, []string{"first", "second", "late"}, got)
}

func TestStartupQueueNestedFlushIsSuppressed(t *testing.T) {
	q := NewStartupQueue(10)
	var got []string
	nested := -1
	q.Enqueue(QueueEntry{Message: "outer", Dispatch: func(m string) {
		got = append(got, m)
		nested = q.Flush()
	}})
	q.Enqueue(QueueEntry{Message: "next", Dispatch: collecting(&got)})

	q.Flush()

	assert.Equal(t, 0, nested)
	assert.Equal(t, []string{"outer", "next"}, got)
}

func TestStartupQueuePanicDoesNotStopFlush(t *testing.T) {
	q := NewStartupQueue(10)
	var panics []string
	q.onPanic = func(e QueueEntry, r interface{}) { panics = append(panics, e.Message) }

	var got []string
	q.Enqueue(QueueEntry{Message: "boom", Dispatch: func(string) { panic("dispatch failed") }})
	q.Enqueue(QueueEntry{Message: "after", Dispatch: collecting(&got)})

	assert.NotPanics(t, func() { q.Flush() })
	assert.Equal(t, []string{"boom"}, panics)
	assert.Equal(t, []string{"after"}, got)
	assert.Equal(t, 0, q.Len(), "the panicking entry was removed before dispatch")
}

func TestStartupQueueDropsOldestAtCapacity(t *testing.T) {
	q := NewStartupQueue(2)
	var dropped []string
	q.onDrop = func(e QueueEntry) { dropped = append(dropped, e.Message) }

	q.Enqueue(QueueEntry{Message: "a"})
	q.Enqueue(QueueEntry{Message: "b"})
	q.Enqueue(QueueEntry{Message: "c"})

	assert.Equal(t, []string{"a"}, dropped)
	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "c", entries[1].Message)
}

func TestStartupQueueDefaultCapacity(t *testing.T) {
	q := NewStartupQueue(0)
	assert.Equal(t, DefaultQueueCapacity, q.capacity)
}
