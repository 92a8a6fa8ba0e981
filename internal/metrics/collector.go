package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector handles metrics collection for a logger component.
// All methods are safe for concurrent use.
type Collector struct {
	// Message counts by level name
	messagesByLevel sync.Map // map[string]*atomic.Uint64

	// Startup queue
	queued  uint64
	flushed uint64
	dropped uint64

	// Sink dispatch
	dispatchFailures uint64

	// File operations
	rotationCount  uint64
	backupsRemoved uint64
	bytesWritten   uint64

	// Remote delivery
	remoteSent       uint64
	remoteFailures   sync.Map // map[string]*atomic.Uint64
	remoteSendTime   int64    // nanoseconds
	remoteMaxLatency int64    // nanoseconds
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Metrics is a point-in-time snapshot of a Collector.
type Metrics struct {
	MessagesLogged map[string]uint64 `json:"messages_logged"`

	Queued  uint64 `json:"queued"`
	Flushed uint64 `json:"flushed"`
	Dropped uint64 `json:"dropped"`

	DispatchFailures uint64 `json:"dispatch_failures"`

	RotationCount  uint64 `json:"rotation_count"`
	BackupsRemoved uint64 `json:"backups_removed"`
	BytesWritten   uint64 `json:"bytes_written"`

	RemoteSent           uint64            `json:"remote_sent"`
	RemoteFailures       map[string]uint64 `json:"remote_failures"`
	AverageRemoteLatency time.Duration     `json:"average_remote_latency"`
	MaxRemoteLatency     time.Duration     `json:"max_remote_latency"`
}

// GetMetrics returns current metrics snapshot.
func (c *Collector) GetMetrics() Metrics {
	m := Metrics{
		MessagesLogged:   make(map[string]uint64),
		Queued:           atomic.LoadUint64(&c.queued),
		Flushed:          atomic.LoadUint64(&c.flushed),
		Dropped:          atomic.LoadUint64(&c.dropped),
		DispatchFailures: atomic.LoadUint64(&c.dispatchFailures),
		RotationCount:    atomic.LoadUint64(&c.rotationCount),
		BackupsRemoved:   atomic.LoadUint64(&c.backupsRemoved),
		BytesWritten:     atomic.LoadUint64(&c.bytesWritten),
		RemoteSent:       atomic.LoadUint64(&c.remoteSent),
		RemoteFailures:   make(map[string]uint64),
		MaxRemoteLatency: time.Duration(atomic.LoadInt64(&c.remoteMaxLatency)),
	}

	c.messagesByLevel.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.MessagesLogged[key.(string)] = count
		}
		return true
	})

	c.remoteFailures.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.RemoteFailures[key.(string)] = count
		}
		return true
	})

	if m.RemoteSent > 0 {
		m.AverageRemoteLatency = time.Duration(atomic.LoadInt64(&c.remoteSendTime)) / time.Duration(m.RemoteSent)
	}

	return m
}

// ResetMetrics resets all metrics counters.
func (c *Collector) ResetMetrics() {
	c.messagesByLevel.Range(func(key, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
	c.remoteFailures.Range(func(key, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})

	atomic.StoreUint64(&c.queued, 0)
	atomic.StoreUint64(&c.flushed, 0)
	atomic.StoreUint64(&c.dropped, 0)
	atomic.StoreUint64(&c.dispatchFailures, 0)
	atomic.StoreUint64(&c.rotationCount, 0)
	atomic.StoreUint64(&c.backupsRemoved, 0)
	atomic.StoreUint64(&c.bytesWritten, 0)
	atomic.StoreUint64(&c.remoteSent, 0)
	atomic.StoreInt64(&c.remoteSendTime, 0)
	atomic.StoreInt64(&c.remoteMaxLatency, 0)
}

// TrackMessageLogged increments the message counter for a level.
func (c *Collector) TrackMessageLogged(level string) {
	val, _ := c.messagesByLevel.LoadOrStore(level, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackQueued counts an entry added to the startup queue.
func (c *Collector) TrackQueued() {
	atomic.AddUint64(&c.queued, 1)
}

// TrackFlushed counts an entry delivered from the startup queue.
func (c *Collector) TrackFlushed() {
	atomic.AddUint64(&c.flushed, 1)
}

// TrackDropped counts an entry discarded because the startup queue was full.
func (c *Collector) TrackDropped() {
	atomic.AddUint64(&c.dropped, 1)
}

// TrackDispatchFailure counts a failed sink dispatch.
func (c *Collector) TrackDispatchFailure() {
	atomic.AddUint64(&c.dispatchFailures, 1)
}

// TrackRotation increments the rotation counter.
func (c *Collector) TrackRotation() {
	atomic.AddUint64(&c.rotationCount, 1)
}

// TrackBackupRemoved counts a rotated file deleted by retention.
func (c *Collector) TrackBackupRemoved() {
	atomic.AddUint64(&c.backupsRemoved, 1)
}

// TrackWrite records bytes written to a file sink.
func (c *Collector) TrackWrite(bytes int) {
	if bytes > 0 {
		atomic.AddUint64(&c.bytesWritten, uint64(bytes))
	}
}

// TrackRemoteSent records a successful remote delivery and its latency.
func (c *Collector) TrackRemoteSent(latency time.Duration) {
	atomic.AddUint64(&c.remoteSent, 1)
	atomic.AddInt64(&c.remoteSendTime, int64(latency))

	for {
		oldMax := atomic.LoadInt64(&c.remoteMaxLatency)
		if int64(latency) <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&c.remoteMaxLatency, oldMax, int64(latency)) {
			break
		}
	}
}

// TrackRemoteFailure counts a failed remote delivery by category.
func (c *Collector) TrackRemoteFailure(category string) {
	val, _ := c.remoteFailures.LoadOrStore(category, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackEvent maps named events emitted by sinks onto counters.
// Unknown events are ignored.
func (c *Collector) TrackEvent(event string) {
	switch event {
	case "rotation_completed":
		c.TrackRotation()
	case "cleanup_completed":
		c.TrackBackupRemoved()
	}
}

// GetMessageCount returns the number of messages logged at a level.
func (c *Collector) GetMessageCount(level string) uint64 {
	if val, ok := c.messagesByLevel.Load(level); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}

// GetRemoteFailures returns the failure count for a category.
func (c *Collector) GetRemoteFailures(category string) uint64 {
	if val, ok := c.remoteFailures.Load(category); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}
