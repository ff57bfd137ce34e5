package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/TrackDesk/internal/app/model"
	apprepository "github.com/sifan077/TrackDesk/internal/app/repository"
	natsclient "github.com/sifan077/TrackDesk/internal/infra/nats"
	"go.uber.org/zap"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
)

var errMalformedEvent = errors.New("malformed lookup event")

// LookupConsumer consumes lookup events from NATS JetStream and stores them as history.
type LookupConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.LookupEventRepository
}

// NewLookupConsumer creates a new lookup event consumer
func NewLookupConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.LookupEventRepository) *LookupConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupConsumer{js: js, logger: logger, repo: repo}
}

// Start prepares the stream and durable consumer and consumes until ctx is done.
func (c *LookupConsumer) Start(ctx context.Context) error {
	if err := natsclient.EnsureStream(c.js, model.LookupStreamName,
		[]string{model.LookupStreamSubject}, model.LookupStreamMaxBytes); err != nil {
		return err
	}

	// Create consumer if not exists
	if _, err := c.js.ConsumerInfo(model.LookupStreamName, model.LookupConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.LookupStreamName, &nats.ConsumerConfig{
			Durable:   model.LookupConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.LookupStreamSubject, model.LookupConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *LookupConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe lookup consumer", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			c.logger.Info("lookup consumer stopped")
			return
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Info("lookup consumer stopped", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.handle(ctx, msg.Data); err != nil {
				c.logger.Error("failed to store lookup event", zap.Error(err))
				if errors.Is(err, errMalformedEvent) {
					// redelivery cannot fix it
					_ = msg.Term()
				} else {
					_ = msg.Nak()
				}
				continue
			}
			_ = msg.Ack()
		}
	}
}

func (c *LookupConsumer) handle(ctx context.Context, data []byte) error {
	var event model.LookupEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}

	if err := c.repo.Create(ctx, &event); err != nil {
		return fmt.Errorf("store lookup event %s: %w", event.ID, err)
	}

	c.logger.Debug("lookup event stored",
		zap.String("id", event.ID),
		zap.String("operation", event.Operation),
		zap.String("isrc", event.ISRC),
		zap.String("outcome", event.Outcome),
		zap.Bool("first_seen", event.FirstSeen),
	)
	return nil
}
