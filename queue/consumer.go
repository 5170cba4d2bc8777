// Package queue consumes the pipeline's inbound topics from Kafka. Each
// Consumer runs a set of readers in one consumer group; the broker balances
// partitions across them, which is the only concurrency unit the pipeline
// relies on.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

// Handler processes one message body. Handlers own the drop policy for bad
// content: an error return here means infrastructure trouble worth logging,
// never "redeliver this message".
type Handler func(ctx context.Context, msg []byte) error

type Consumer struct {
	Brokers []string
	Topic   string
	GroupID string
	// Concurrency is the number of group readers to run. Zero means one.
	Concurrency int
	Handler     Handler
	Logger      *slog.Logger
}

// Run consumes until ctx is cancelled. Offsets are committed only after the
// handler returns, so a crash mid-handler redelivers; handlers tolerate that
// through last-write-wins semantics downstream.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Handler == nil {
		return fmt.Errorf("nil handler for topic %s", c.Topic)
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "queue", "topic", c.Topic, "group", c.GroupID)

	readers := c.Concurrency
	if readers < 1 {
		readers = 1
	}
	logger.Info("starting consumers", "readers", readers)

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < readers; i++ {
		i := i
		eg.Go(func() error {
			return c.runReader(ctx, logger.With("reader", i))
		})
	}
	return eg.Wait()
}

func (c *Consumer) runReader(ctx context.Context, logger *slog.Logger) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
		MaxWait:        time.Second,
	})
	defer r.Close()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch from topic %s failed: %w", c.Topic, err)
		}

		if err := c.Handler(ctx, m.Value); err != nil {
			// content problems never reach here; this is infrastructure
			// trouble inside the handler and the message is still consumed
			logger.Error("message handler failed", "err", err, "partition", m.Partition, "offset", m.Offset)
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit on topic %s failed: %w", c.Topic, err)
		}
	}
}
