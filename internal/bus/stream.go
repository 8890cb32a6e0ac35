// Package bus implements the two Redis-backed transports the daemon
// speaks: the stream transport (Redis Streams, consumer groups, used for
// the ingress/egress alert feeds) and the mailbox transport (Redis
// lists, used for point-to-point list/acknowledge request-reply).
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/wire"
)

// AlertHandler processes one alert read off a stream. A non-nil error is
// logged but does not block acknowledgement: the ingress/egress streams
// have no dead-letter concept, so a message that cannot be handled is
// dropped rather than retried indefinitely.
type AlertHandler func(ctx context.Context, a *entity.Alert) error

// StreamBus publishes and consumes alert messages on Redis Streams.
type StreamBus struct {
	client     *redis.Client
	consumerID string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStreamBus returns a StreamBus identifying itself to Redis consumer
// groups as consumerID (typically the process's hostname plus PID).
func NewStreamBus(client *redis.Client, consumerID string) *StreamBus {
	return &StreamBus{
		client:     client,
		consumerID: consumerID,
		stopCh:     make(chan struct{}),
	}
}

// Publish appends a to stream, wire-encoded into a single "payload"
// field.
func (b *StreamBus) Publish(ctx context.Context, stream string, a *entity.Alert) error {
	return b.PublishWithSubject(ctx, stream, "", a)
}

// PublishWithSubject is Publish, additionally stamping a "subject"
// field on the message. Stream-driven republication has no separate
// subject (the stream name carries the meaning); acknowledge-driven
// republication uses this to carry "<rule>/<severity>@<element>".
func (b *StreamBus) PublishWithSubject(ctx context.Context, stream, subject string, a *entity.Alert) error {
	values := map[string]interface{}{"payload": wire.Encode(a)}
	if subject != "" {
		values["subject"] = subject
	}
	args := &redis.XAddArgs{Stream: stream, Values: values}
	if _, err := b.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("bus: publish to stream %s: %w", stream, err)
	}
	return nil
}

// Consume creates the consumer group if needed and runs a blocking read
// loop in the background, decoding each message and invoking handler,
// then acknowledging it. The loop exits when ctx is cancelled or Stop is
// called.
func (b *StreamBus) Consume(ctx context.Context, stream, group string, handler AlertHandler) error {
	err := b.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("bus: create consumer group %s/%s: %w", stream, group, err)
	}

	b.wg.Add(1)
	go b.consume(ctx, stream, group, handler)
	return nil
}

func (b *StreamBus) consume(ctx context.Context, stream, group string, handler AlertHandler) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		default:
			b.readOnce(ctx, stream, group, handler)
		}
	}
}

func (b *StreamBus) readOnce(ctx context.Context, stream, group string, handler AlertHandler) {
	res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: b.consumerID,
		Streams:  []string{stream, ">"},
		Count:    32,
		Block:    5 * time.Second,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			log.Error().Err(err).Str("stream", stream).Msg("error reading from stream")
		}
		return
	}

	for _, s := range res {
		for _, msg := range s.Messages {
			b.handleOne(ctx, stream, group, msg, handler)
		}
	}
}

func (b *StreamBus) handleOne(ctx context.Context, stream, group string, msg redis.XMessage, handler AlertHandler) {
	defer func() {
		if err := b.client.XAck(ctx, stream, group, msg.ID).Err(); err != nil {
			log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to acknowledge message")
		}
	}()

	raw, ok := msg.Values["payload"].(string)
	if !ok {
		log.Error().Str("message_id", msg.ID).Msg("stream message missing payload field")
		return
	}
	a, err := wire.Decode([]byte(raw))
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to decode alert from stream")
		return
	}
	if err := handler(ctx, a); err != nil {
		log.Error().Err(err).Str("rule", a.Rule).Str("element", a.Element).Msg("handler failed for stream message")
	}
}

// Stop ends all Consume loops and waits for them to return.
func (b *StreamBus) Stop() {
	close(b.stopCh)
	b.wg.Wait()
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
