package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StageEvent announces that a pipeline stage finished for a session.
type StageEvent struct {
	SessionID   string    `json:"session_id"`
	StageNumber int       `json:"stage_number"`
	StageName   string    `json:"stage_name"`
	DurationMs  int64     `json:"duration_ms"`
	Summary     string    `json:"summary"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishStage(ctx context.Context, event StageEvent)
	Close()
}

// NATSPublisher publishes stage events to a NATS subject. Publishing is
// best-effort: a failed publish is logged, never surfaced to the pipeline.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

func NewNATSPublisher(url, subject string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("connected to NATS", zap.String("url", url), zap.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject, log: log}, nil
}

func (p *NATSPublisher) PublishStage(ctx context.Context, event StageEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("failed to marshal stage event", zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.log.Warn("failed to publish stage event",
			zap.String("session_id", event.SessionID),
			zap.String("stage", event.StageName),
			zap.Error(err))
	}
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("nats drain failed", zap.Error(err))
	}
}

// NopPublisher is used when no NATS URL is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStage(ctx context.Context, event StageEvent) {}

func (NopPublisher) Close() {}
