package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"usermanagement/internal/config"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

// Consumer reads a stream as one member of a consumer group. Messages are
// acked only after the handler succeeds; ones left pending longer than the
// claim interval are taken over and retried until they reach maxDeliveries,
// then copied to the dead-letter stream and acked.
type Consumer struct {
	client        *redis.Client
	stream        string
	deadLetter    string
	group         string
	consumer      string
	claimInterval time.Duration
	maxDeliveries int64
	block         time.Duration
	logger        zerolog.Logger
	handler       MessageHandler
}

func NewConsumer(client *redis.Client, cfg config.ProvisioningConfig, logger zerolog.Logger, handler MessageHandler) *Consumer {
	claim := cfg.ClaimInterval
	if claim <= 0 {
		claim = 30 * time.Second
	}
	maxDeliveries := cfg.MaxDeliveries
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	deadLetter := cfg.DeadLetter
	if deadLetter == "" {
		deadLetter = cfg.Stream + ":dead"
	}
	return &Consumer{
		client:        client,
		stream:        cfg.Stream,
		deadLetter:    deadLetter,
		group:         cfg.Group,
		consumer:      cfg.Consumer,
		claimInterval: claim,
		maxDeliveries: maxDeliveries,
		block:         5 * time.Second,
		logger:        logger.With().Str("stream", cfg.Stream).Str("group", cfg.Group).Logger(),
		handler:       handler,
	}
}

// EnsureGroup creates the stream and group when missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("stream read error")
				sleep(ctx, 2*time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("claim stalled messages failed")
			}
		default:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    c.block,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("handle message failed")
		return
	}
	if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Idle:   c.claimInterval,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.RetryCount >= c.maxDeliveries {
			if err := c.deadLetterMessage(ctx, entry); err != nil {
				c.logger.Error().Err(err).Str("message_id", entry.ID).Msg("dead-letter failed")
			}
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.claimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.logger.Error().Err(err).Str("message_id", entry.ID).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) deadLetterMessage(ctx context.Context, entry redis.XPendingExt) error {
	msgs, err := c.client.XRangeN(ctx, c.stream, entry.ID, entry.ID, 1).Result()
	if err != nil {
		return err
	}
	// trimmed from the stream already; only the pending entry is left
	if len(msgs) > 0 {
		values := make(map[string]any, len(msgs[0].Values)+2)
		for k, v := range msgs[0].Values {
			values[k] = v
		}
		values["sourceId"] = entry.ID
		values["deliveries"] = entry.RetryCount
		if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.deadLetter, Values: values}).Err(); err != nil {
			return err
		}
	}
	if err := c.client.XAck(ctx, c.stream, c.group, entry.ID).Err(); err != nil {
		return err
	}
	c.logger.Warn().Str("message_id", entry.ID).Int64("deliveries", entry.RetryCount).Msg("message moved to dead-letter stream")
	return nil
}
