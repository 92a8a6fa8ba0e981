package utils

import (
	"sync/atomic"
	"time"
)

// DefaultFrameRate is the cook rate used to turn elapsed time into frames.
const DefaultFrameRate = 60

// FrameClock derives the absolute and relative frame counters from wall
// clock time. The absolute counter starts when the process starts; the
// relative counter restarts whenever Reset is called.
type FrameClock struct {
	rate      int64
	processT0 time.Time
	relT0     atomic.Int64 // unix nanos of the last Reset
	now       func() time.Time
}

var processStart = time.Now()

// NewFrameClock creates a frame clock ticking rate frames per second.
func NewFrameClock(rate int) *FrameClock {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	c := &FrameClock{
		rate:      int64(rate),
		processT0: processStart,
		now:       time.Now,
	}
	c.relT0.Store(c.now().UnixNano())
	return c
}

// AbsoluteFrame returns the number of frames since process start.
func (c *FrameClock) AbsoluteFrame() int64 {
	return c.frames(c.now().Sub(c.processT0))
}

// Frame returns the number of frames since the last Reset.
func (c *FrameClock) Frame() int64 {
	return c.frames(c.now().Sub(time.Unix(0, c.relT0.Load())))
}

// Reset restarts the relative counter.
func (c *FrameClock) Reset() {
	c.relT0.Store(c.now().UnixNano())
}

func (c *FrameClock) frames(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d) * c.rate / int64(time.Second)
}

// ManualFrames is a frame source advanced explicitly by its owner, for hosts
// that run their own frame loop.
type ManualFrames struct {
	abs atomic.Int64
	rel atomic.Int64
}

// NewManualFrames creates a manual frame source starting at zero.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// Advance moves both counters forward by n frames and returns the new
// absolute frame.
func (m *ManualFrames) Advance(n int64) int64 {
	m.rel.Add(n)
	return m.abs.Add(n)
}

// AbsoluteFrame returns the absolute frame.
func (m *ManualFrames) AbsoluteFrame() int64 { return m.abs.Load() }

// Frame returns the relative frame.
func (m *ManualFrames) Frame() int64 { return m.rel.Load() }

// Reset sets the relative counter back to zero.
func (m *ManualFrames) Reset() { m.rel.Store(0) }
