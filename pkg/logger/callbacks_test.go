package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artcraftzone/hierlog/pkg/types"
)

func TestCallbacksRegisterAndUnregister(t *testing.T) {
	c := NewCallbacks()
	var calls []string

	first := c.Register(EventMessageLogged, func(event string, item *types.LogItem) {
		calls = append(calls, "first:"+item.Message)
	})
	c.Register(EventMessageLogged, func(event string, item *types.LogItem) {
		calls = append(calls, "second:"+item.Message)
	})
	c.Register("other", func(string, *types.LogItem) {
		calls = append(calls, "other")
	})

	c.Notify(EventMessageLogged, &types.LogItem{Message: "x"})
	assert.Equal(t, []string{"first:x", "second:x"}, calls)

	assert.True(t, c.Unregister(first))
	assert.False(t, c.Unregister(first))

	calls = nil
	c.Notify(EventMessageLogged, &types.LogItem{Message: "y"})
	assert.Equal(t, []string{"second:y"}, calls)
}

func TestCallbackPanicIsReported(t *testing.T) {
	c := NewCallbacks()
	var reported []error
	c.onPanic = func(event string, err error) { reported = append(reported, err) }

	ran := false
	c.Register(EventMessageLogged, func(string, *types.LogItem) { panic("host bug") })
	c.Register(EventMessageLogged, func(string, *types.LogItem) { ran = true })

	assert.NotPanics(t, func() { c.Notify(EventMessageLogged, &types.LogItem{}) })
	assert.True(t, ran)
	if assert.Len(t, reported, 1) {
		assert.Contains(t, reported[0].Error(), "host bug")
	}
}

func TestWriterStatus(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterStatus(&buf, false)

	s.SetStatus("ERROR - worker - failed\n")
	s.SetStatus("CRITICAL - worker - halted")

	assert.Equal(t, "CRITICAL - worker - halted", s.Last())
	assert.Equal(t, "ERROR - worker - failed\nCRITICAL - worker - halted\n", buf.String())
}

func TestStatusFunc(t *testing.T) {
	var got string
	var overlay StatusOverlay = StatusFunc(func(line string) { got = line })
	overlay.SetStatus("WARNING - x - y")
	assert.Equal(t, "WARNING - x - y", got)
}
