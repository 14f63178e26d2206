package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/yatori/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

func feeCommand() *cli.Command {
	return &cli.Command{
		Name:  "fee",
		Usage: "Show the recommended priority fee",
		Action: func(c *cli.Context) error {
			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			rec, err := newGatewayClient(c).RecommendedFee(c.Context, c.String("network"))
			if err != nil {
				return fmt.Errorf("failed to get recommended fee: %w", err)
			}

			return p.print(rec, func(w io.Writer) {
				fmt.Fprintf(w, "Fee:         %d micro-lamports per compute unit\n", rec.Fee)
				fmt.Fprintf(w, "Cost:        %g cents\n", rec.Cost)
			})
		},
		Subcommands: []*cli.Command{
			feeWatchCommand(),
		},
	}
}

// feeWatchCommand streams fee recommendations published by the gateway.
func feeWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream fee recommendations published to NATS",
		Description: `Subscribe to fee recommendation events published to NATS JetStream.

The gateway publishes one event each time /get-rec-fee succeeds, to the
subject {prefix}.{network}. Without --network every network is watched.

Example:
  yatori --network devnet fee watch --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.StringFlag{
				Name:    "subject-prefix",
				Usage:   "Subject prefix fee events are published under",
				EnvVars: []string{"FEE_EVENTS_SUBJECT"},
				Value:   natspkg.DefaultSubjectPrefix,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many events (0 streams until interrupted)",
			},
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "Exit after this long (0 streams until interrupted)",
			},
		},
		Action: func(c *cli.Context) error {
			p, err := newPrinter(c)
			if err != nil {
				return err
			}

			subject := watchSubject(c.String("subject-prefix"), c.String("network"))
			return streamFeeEvents(c.Context, p, c.String("nats-url"), subject, c.Int("count"), c.Duration("wait"))
		},
	}
}

// watchSubject returns the filter subject for network, or a wildcard over
// every network when network is empty.
func watchSubject(prefix, network string) string {
	if network == "" {
		return prefix + ".>"
	}
	return natspkg.Subject(prefix, network)
}

// streamFeeEvents connects to NATS and prints fee events until interrupted,
// count events were received, or wait elapsed.
func streamFeeEvents(ctx context.Context, p *printer, natsURL, subject string, count int, wait time.Duration) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	// Only events published from now on are interesting; recommendations go stale.
	cons, err := js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if !p.json {
		fmt.Fprintf(p.w, "Subscribing to: %s\n", subject)
		fmt.Fprintf(p.w, "   NATS: %s\n", natsURL)
		fmt.Fprintf(p.w, "\nWaiting for fee recommendations... (Ctrl-C to exit)\n\n")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	msgChan := make(chan jetstream.Msg, 10)
	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer consumeCtx.Stop()

	received := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.FeeEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			received++

			if err := p.print(event, func(w io.Writer) {
				printFeeEvent(w, received, &event)
			}); err != nil {
				return err
			}

			if count > 0 && received >= count {
				return nil
			}

		case <-sigChan:
			if !p.json {
				fmt.Fprintf(p.w, "\nReceived %d fee recommendation(s)\n", received)
			}
			return nil

		case <-ctx.Done():
			if !p.json {
				fmt.Fprintf(p.w, "\nReceived %d fee recommendation(s)\n", received)
			}
			return nil
		}
	}
}

func printFeeEvent(w io.Writer, n int, event *natspkg.FeeEvent) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Recommendation #%d\n", n)
	fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Network:     %s\n", event.Network)
	fmt.Fprintf(w, "Fee:         %d micro-lamports per compute unit\n", event.Fee)
	fmt.Fprintf(w, "Cost:        %g cents\n", event.Cost)
	fmt.Fprintf(w, "Samples:     %d\n", event.Samples)
	fmt.Fprintf(w, "Published:   %s\n\n", event.PublishedAt.Format(time.RFC3339))
}
