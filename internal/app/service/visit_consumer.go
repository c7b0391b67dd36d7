package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"go.uber.org/zap"
)

const (
	visitFetchBatch   = 10
	visitFetchMaxWait = 5 * time.Second
)

// VisitRecorder records a visit on a URL record.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, id string, info *model.VisitorInfo) error
}

// VisitConsumer consumes visit events from NATS JetStream and records them.
//
// A message whose ack was lost is delivered again after it was recorded.
// Redelivered events whose id is already in the recorded filter are acked
// without recording them a second time.
type VisitConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	recorder VisitRecorder
	recorded *eventFilter
}

type ackAction int

const (
	ackDone ackAction = iota
	ackRetry
	ackDrop
)

// NewVisitConsumer creates a new visit event consumer.
func NewVisitConsumer(js nats.JetStreamContext, logger *zap.Logger, recorder VisitRecorder) *VisitConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitConsumer{
		js:       js,
		logger:   logger,
		recorder: recorder,
		recorded: newEventFilter(recordedEventsCapacity),
	}
}

// Start creates the stream and durable consumer when missing and begins
// consuming until ctx is cancelled.
func (c *VisitConsumer) Start(ctx context.Context) error {
	// Create stream if not exists
	_, err := c.js.StreamInfo(model.VisitStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.VisitStreamName,
			Subjects: []string{model.VisitStreamSubject},
			MaxBytes: model.VisitStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	_, err = c.js.ConsumerInfo(model.VisitStreamName, model.VisitConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.VisitStreamName, &nats.ConsumerConfig{
			Durable:   model.VisitConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.VisitStreamSubject, model.VisitConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *VisitConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe visit consumer", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			c.logger.Info("visit consumer stopped")
			return
		}

		msgs, err := sub.Fetch(visitFetchBatch, nats.MaxWait(visitFetchMaxWait))
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
			c.logger.Warn("visit consumer subscription closed", zap.Error(err))
			return
		}
		if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *VisitConsumer) handle(ctx context.Context, msg *nats.Msg) {
	delivered := uint64(1)
	if md, err := msg.Metadata(); err == nil {
		delivered = md.NumDelivered
	}

	switch c.process(ctx, msg.Data, delivered) {
	case ackRetry:
		_ = msg.Nak()
	case ackDrop:
		_ = msg.Term()
	default:
		_ = msg.Ack()
	}
}

func (c *VisitConsumer) process(ctx context.Context, data []byte, delivered uint64) ackAction {
	var event model.VisitEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Error("failed to unmarshal visit event", zap.Error(err))
		return ackDrop
	}

	if delivered > 1 && event.ID != "" && c.recorded.Seen(event.ID) {
		c.logger.Debug("skipping redelivered visit event",
			zap.String("id", event.ID),
			zap.Uint64("delivered", delivered))
		return ackDone
	}

	if err := c.recorder.RecordVisit(ctx, event.URLID, event.Visitor); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.logger.Warn("dropping visit for unknown url", zap.String("url_id", event.URLID))
			return ackDrop
		}
		c.logger.Error("failed to record visit",
			zap.String("id", event.ID),
			zap.String("url_id", event.URLID),
			zap.Error(err))
		return ackRetry
	}

	if event.ID != "" {
		c.recorded.Add(event.ID)
	}
	c.logger.Debug("visit event stored",
		zap.String("id", event.ID),
		zap.String("url_id", event.URLID),
	)
	return ackDone
}
