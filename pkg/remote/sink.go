package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/internal/metrics"
	"github.com/artcraftzone/hierlog/pkg/formatters"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// State is the failure-reporting state of a Sink.
type State int32

const (
	// StateIdle means no failure is being reported
	StateIdle State = iota
	// StateReporting means a delivery failure is being reported
	StateReporting
)

func (s State) String() string {
	if s == StateReporting {
		return "reporting"
	}
	return "idle"
}

// FailureCategory classifies a failed delivery.
type FailureCategory int

const (
	// FailureNotOK means the endpoint answered with ok=false
	FailureNotOK FailureCategory = iota
	// FailureHTTP means the endpoint answered with a non-2xx status
	FailureHTTP
	// FailureTransport covers every other error
	FailureTransport
)

func (c FailureCategory) String() string {
	switch c {
	case FailureNotOK:
		return "not_ok"
	case FailureHTTP:
		return "http"
	default:
		return "transport"
	}
}

// Failure describes one failed delivery.
type Failure struct {
	Category FailureCategory
	Err      error
	Reason   string
}

// Message renders the failure for humans.
func (f Failure) Message() string {
	switch f.Category {
	case FailureNotOK:
		return "Remote logging failed: " + f.Reason
	case FailureHTTP:
		return "Remote logging HTTP error: " + f.Reason
	default:
		return "Remote logging request error: " + f.Reason
	}
}

// Reporter surfaces a delivery failure, typically as a log entry that does
// not go back to the remote endpoint.
type Reporter func(f Failure)

// Sink delivers log items to the ingestion service. Send never fails: a
// delivery failure is handed to the Reporter while the sink is in
// StateReporting. A failure raised while a report is in progress is written
// to the fallback writer instead, so reporting can never recurse.
type Sink struct {
	transport Transport
	state     atomic.Int32
	reporter  Reporter
	fallback  io.Writer
	metrics   *metrics.Collector
	timeout   time.Duration
}

// SinkOption configures a Sink
type SinkOption func(*Sink)

// WithReporter sets the failure reporter
func WithReporter(r Reporter) SinkOption {
	return func(s *Sink) { s.reporter = r }
}

// WithFallback sets the side channel used while a report is in progress.
// The default is stderr.
func WithFallback(w io.Writer) SinkOption {
	return func(s *Sink) {
		if w != nil {
			s.fallback = w
		}
	}
}

// WithMetrics records deliveries and failures
func WithMetrics(c *metrics.Collector) SinkOption {
	return func(s *Sink) { s.metrics = c }
}

// WithSendTimeout bounds each delivery
func WithSendTimeout(d time.Duration) SinkOption {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSink creates a remote sink over transport.
func NewSink(transport Transport, opts ...SinkOption) *Sink {
	s := &Sink{
		transport: transport,
		fallback:  os.Stderr,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current reporting state
func (s *Sink) State() State {
	return State(s.state.Load())
}

// Send delivers item on behalf of the named logger, tagged with id.
func (s *Sink) Send(ctx context.Context, logger string, item *types.LogItem, id types.Identity) {
	req := AppendRequest{
		DeviceID: id.DeviceID,
		UserID:   id.UserID,
		Level:    item.Level.Lower(),
		Msg:      formatters.RemoteLine(item, logger),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.transport.AppendLog(ctx, req)

	var httpErr *HTTPError
	switch {
	case err != nil && errors.As(err, &httpErr):
		s.report(Failure{
			Category: FailureHTTP,
			Err:      err,
			Reason:   fmt.Sprintf("%d - %s", httpErr.StatusCode, httpErr.Status),
		})
	case err != nil:
		s.report(Failure{Category: FailureTransport, Err: err, Reason: err.Error()})
	case !resp.OK:
		s.report(Failure{Category: FailureNotOK, Reason: resp.Reason()})
	default:
		if s.metrics != nil {
			s.metrics.TrackRemoteSent(time.Since(start))
		}
	}
}

func (s *Sink) report(f Failure) {
	if s.metrics != nil {
		s.metrics.TrackRemoteFailure(f.Category.String())
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateReporting)) {
		fmt.Fprintln(s.fallback, f.Message())
		return
	}
	defer s.state.Store(int32(StateIdle))

	if s.reporter == nil {
		fmt.Fprintln(s.fallback, f.Message())
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(s.fallback, "%s (reporter panic: %v)\n", f.Message(), r)
		}
	}()
	s.reporter(f)
}

// Health probes the ingestion service.
func (s *Sink) Health(ctx context.Context) (HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.transport.Health(ctx)
}

// Close releases the transport
func (s *Sink) Close() error {
	return s.transport.Close()
}
