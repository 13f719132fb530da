// Package messaging publishes finished artifacts for downstream consumers.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"txScope/internal/model"
)

// DefaultSubject prefixes every published artifact subject.
const DefaultSubject = "txscope.analysis"

// flushTimeout bounds the flush after each publish when the caller's
// context has no deadline.
const flushTimeout = 5 * time.Second

// Config holds the NATS connection settings.
type Config struct {
	URL               string
	Subject           string
	ConnectTimeout    time.Duration
	ReconnectDelay    time.Duration
	ReconnectAttempts int
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher sends each artifact to <subject>.<network id>.<kind>.
type NATSPublisher struct {
	conn    conn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(cfg Config, logger *zap.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	if cfg.ReconnectAttempts == 0 {
		cfg.ReconnectAttempts = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "nats_publisher"))

	nc, err := nats.Connect(cfg.URL,
		nats.Name("txscope"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectDelay),
		nats.MaxReconnects(cfg.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, cfg.Subject, logger), nil
}

func newPublisher(c conn, subject string, logger *zap.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: c, subject: subject, logger: logger}
}

func (p *NATSPublisher) Name() string { return "nats" }

// Subject returns the subject an artifact is published on.
func (p *NATSPublisher) Subject(artifact *model.Artifact) string {
	return p.subject + "." + strconv.FormatUint(artifact.Network.ID, 10) + "." + string(artifact.Kind)
}

// Write publishes artifact and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Write(ctx context.Context, artifact *model.Artifact) error {
	if artifact == nil {
		return nil
	}
	body, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	msg := nats.NewMsg(p.Subject(artifact))
	msg.Header.Set(nats.MsgIdHdr, artifact.ID)
	msg.Data = body
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", msg.Subject, err)
	}
	p.logger.Debug("artifact published", zap.String("subject", msg.Subject), zap.String("id", artifact.ID))
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
