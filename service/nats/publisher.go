package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/yatori/service/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing fee events to NATS.
type Publisher interface {
	// PublishFeeRecommendation publishes one fee event to "{prefix}.{network}".
	PublishFeeRecommendation(ctx context.Context, event *FeeEvent) error

	// Close closes the connection to NATS.
	Close() error
}

const (
	// DefaultSubjectPrefix is the subject prefix fee events are published under.
	DefaultSubjectPrefix = "fees.recommended"

	// StreamName is the name of the JetStream stream for fee events.
	StreamName = "FEES"

	// StreamRetention is how long fee events are retained. Recommendations
	// go stale within minutes, so history is kept short.
	StreamRetention = time.Hour
)

// Subject returns the subject a fee event for network is published to.
func Subject(prefix, network string) string {
	return fmt.Sprintf("%s.%s", prefix, network)
}

// JetStreamPublisher publishes fee events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	prefix  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPublisher connects to NATS and ensures the fee stream exists.
// If metrics is nil, no metrics will be recorded.
func NewPublisher(natsURL, prefix string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("yatori-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		prefix:  prefix,
		metrics: m,
		logger:  logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
		"subjects", prefix+".>",
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		p.logger.Debug("JetStream stream already exists", "stream", StreamName)
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Priority fee recommendations",
		Subjects:    []string{p.prefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishFeeRecommendation publishes a single fee event.
func (p *JetStreamPublisher) PublishFeeRecommendation(ctx context.Context, event *FeeEvent) error {
	subject := Subject(p.prefix, event.Network)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal fee event: %w", err)
	}

	start := time.Now()
	_, err = p.js.Publish(ctx, subject, data)
	status := "success"
	if err != nil {
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.RecordNATSPublish(subject, status, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("failed to publish fee event: %w", err)
	}

	p.logger.DebugContext(ctx, "published fee event",
		"subject", subject,
		"fee", event.Fee,
	)
	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
