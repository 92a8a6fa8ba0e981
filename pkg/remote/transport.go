package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Transport kinds accepted by NewTransport
const (
	TransportHTTP = "http"
	TransportNATS = "nats"
)

// ErrNoTransport is returned when no transport is configured
var ErrNoTransport = errors.New("no remote transport configured")

// Transport carries log entries and health probes to the ingestion service.
type Transport interface {
	AppendLog(ctx context.Context, req AppendRequest) (Response, error)
	Health(ctx context.Context) (HealthStatus, error)
	Close() error
}

// TransportConfig selects and configures a transport.
type TransportConfig struct {
	Kind    string
	URL     string
	Token   string
	Subject string
	Timeout time.Duration
}

// NewTransport builds the transport named by cfg.Kind. An empty kind means
// HTTP. NATS transports connect immediately.
func NewTransport(cfg TransportConfig) (Transport, error) {
	if cfg.URL == "" {
		return nil, ErrNoTransport
	}

	switch cfg.Kind {
	case "", TransportHTTP:
		return NewHTTPClient(cfg.URL, cfg.Token, WithTimeout(cfg.Timeout)), nil
	case TransportNATS:
		return NewNATSTransport(cfg.URL, cfg.Subject, cfg.Token, cfg.Timeout)
	default:
		return nil, errors.Errorf("unknown remote transport %q", cfg.Kind)
	}
}
