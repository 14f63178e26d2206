package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	natspkg "github.com/brojonat/yatori/service/nats"
	"github.com/brojonat/yatori/service/solana"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const sseKeepaliveInterval = 10 * time.Second

// FeeSubscriber delivers fee events published for network, or for every
// network when network is empty. Delivery stops when ctx is done; the
// returned channel is never closed.
type FeeSubscriber interface {
	Subscribe(ctx context.Context, network string) (<-chan *natspkg.FeeEvent, error)
}

// FeeStream subscribes to fee events on NATS JetStream for Server-Sent Events clients.
type FeeStream struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
	logger *slog.Logger
}

// NewFeeStream connects to NATS. prefix is the subject prefix fee events are
// published under.
func NewFeeStream(natsURL, prefix string, logger *slog.Logger) (*FeeStream, error) {
	if prefix == "" {
		prefix = natspkg.DefaultSubjectPrefix
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("yatori-fee-stream"),
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

	logger.Info("fee stream initialized", "nats_url", natsURL, "subject_prefix", prefix)

	return &FeeStream{
		nc:     nc,
		js:     js,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Subscribe creates an ephemeral consumer that only sees events published
// after the call.
func (s *FeeStream) Subscribe(ctx context.Context, network string) (<-chan *natspkg.FeeEvent, error) {
	subject := s.prefix + ".>"
	if network != "" {
		subject = natspkg.Subject(s.prefix, network)
	}

	cons, err := s.js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	events := make(chan *natspkg.FeeEvent, 10)
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		var event natspkg.FeeEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			s.logger.WarnContext(ctx, "failed to unmarshal fee event", "error", err)
			msg.Ack()
			return
		}
		msg.Ack()

		select {
		case events <- &event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	return events, nil
}

// Close closes the NATS connection.
func (s *FeeStream) Close() error {
	if s.nc != nil {
		s.nc.Close()
		s.logger.Info("fee stream closed")
	}
	return nil
}

// handleStreamFees relays fee recommendations as Server-Sent Events.
// GET /stream/fees and GET /stream/fees/{network}
func handleStreamFees(stream FeeSubscriber, networks *solana.Networks, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An empty path value streams every network.
		network := r.PathValue("network")
		if network != "" {
			client, err := networks.Get(network)
			if err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			network = client.Network()
		}

		events, err := stream.Subscribe(r.Context(), network)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to subscribe to fee events",
				"network", network,
				"error", err,
			)
			writeError(w, "failed to subscribe", http.StatusServiceUnavailable)
			return
		}

		// The stream outlives the server write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flush := func() {
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}

		scope := network
		if scope == "" {
			scope = "all"
		}
		fmt.Fprintf(w, "event: connected\ndata: {\"network\":%q}\n\n", scope)
		flush()

		logger.DebugContext(r.Context(), "SSE client connected",
			"network", scope,
			"remote_addr", r.RemoteAddr,
		)

		keepalive := time.NewTicker(sseKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-keepalive.C:
				fmt.Fprintf(w, ": keepalive\n\n")
				flush()

			case event := <-events:
				data, err := json.Marshal(event)
				if err != nil {
					logger.WarnContext(r.Context(), "failed to marshal fee event", "error", err)
					continue
				}
				fmt.Fprintf(w, "event: fee\ndata: %s\n\n", data)
				flush()

			case <-r.Context().Done():
				logger.DebugContext(r.Context(), "SSE client disconnected",
					"network", scope,
					"remote_addr", r.RemoteAddr,
				)
				return
			}
		}
	})
}
