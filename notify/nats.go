package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReconnectWait  = 5 * time.Second
	defaultFlushTimeout   = 5 * time.Second
)

// NATSConfig configures a NATSPublisher.
type NATSConfig struct {
	URL            string
	ConnectTimeout time.Duration
	Logger         logger.Logger
}

// NATSPublisher publishes transitions as JSON on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
	lggr logger.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to cfg.URL. The connection reconnects indefinitely.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	lggr := cfg.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}
	lggr = lggr.Named("notify")
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("xcm-automation"),
		nats.Timeout(timeout),
		nats.ReconnectWait(defaultReconnectWait),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			lggr.Warnw("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			lggr.Infow("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	return &NATSPublisher{conn: conn, lggr: lggr}, nil
}

// Publish sends t on t.Subject() and flushes.
func (p *NATSPublisher) Publish(ctx context.Context, t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err = p.conn.Publish(t.Subject(), data); err != nil {
		return fmt.Errorf("publish %s: %w", t.Subject(), err)
	}
	p.lggr.Debugw("Published transition", "subject", t.Subject(), "task", t.TaskID)

	if _, ok := ctx.Deadline(); ok {
		return p.conn.FlushWithContext(ctx)
	}

	return p.conn.FlushTimeout(defaultFlushTimeout)
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
