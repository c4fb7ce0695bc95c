// Package natspub provides the NATS-backed implementation of the outbound
// notification transport. Publishing is best-effort: the caller treats any
// failure as a logged, non-fatal condition.
package natspub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/taskboard/taskboard-api/internal/notification"
)

// Publisher publishes notification payloads to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// Ensure Publisher implements notification.Transport
var _ notification.Transport = (*Publisher)(nil)

// Connect dials the NATS server and returns a Publisher for the given
// subject. The connection retries transparently on network hiccups.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With("component", "nats_publisher"),
	}, nil
}

// Publish implements notification.Transport.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", "error", err)
	}
}

// LogTransport is the fallback transport used when no broker is
// configured: payloads are logged and dropped. It keeps local development
// and tests independent of a running NATS server.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With("component", "log_transport")}
}

// Ensure LogTransport implements notification.Transport
var _ notification.Transport = (*LogTransport)(nil)

// Publish implements notification.Transport.
func (t *LogTransport) Publish(_ context.Context, payload []byte) error {
	t.logger.Info("notification published", "payload_bytes", len(payload))
	return nil
}
