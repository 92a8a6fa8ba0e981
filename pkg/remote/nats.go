package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// DefaultSubject is the request subject for log entries. Health probes use
// DefaultSubject + ".health".
const DefaultSubject = "hierlog.append"

// NATSTransport delivers entries with NATS request/reply. The ingestion
// service answers each request with a JSON Response.
type NATSTransport struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	owned   bool
}

// NewNATSTransport connects to serverURL. Credentials in the URL are used as
// user info; a non-empty token is sent as the connection token.
func NewNATSTransport(serverURL, subject, token string, timeout time.Duration) (*NATSTransport, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid NATS URL")
	}

	options := []nats.Option{
		nats.Name("hierlog-remote"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
	}
	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		password, _ := parsedURL.User.Password()
		options = append(options, nats.UserInfo(username, password))
	}
	if token != "" {
		options = append(options, nats.Token(token))
	}

	server := fmt.Sprintf("nats://%s", parsedURL.Host)
	conn, err := nats.Connect(server, options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to NATS")
	}

	t := NewNATSTransportFromConn(conn, subject, timeout)
	t.owned = true
	return t, nil
}

// NewNATSTransportFromConn uses an existing connection, which the transport
// does not close.
func NewNATSTransportFromConn(conn *nats.Conn, subject string, timeout time.Duration) *NATSTransport {
	if subject == "" {
		subject = DefaultSubject
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NATSTransport{conn: conn, subject: subject, timeout: timeout}
}

// Subject returns the request subject
func (n *NATSTransport) Subject() string { return n.subject }

// AppendLog implements Transport
func (n *NATSTransport) AppendLog(ctx context.Context, req AppendRequest) (Response, error) {
	var resp Response

	data, err := json.Marshal(req)
	if err != nil {
		return resp, errors.Wrap(err, "encode request")
	}

	err = n.request(ctx, n.subject, data, &resp)
	return resp, err
}

// Health implements Transport
func (n *NATSTransport) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := n.request(ctx, n.subject+".health", nil, &status)
	return status, err
}

func (n *NATSTransport) request(ctx context.Context, subject string, data []byte, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	msg, err := n.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return errors.Wrapf(err, "request %s", subject)
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// Close implements Transport
func (n *NATSTransport) Close() error {
	if n.owned && n.conn != nil {
		n.conn.Close()
	}
	return nil
}
