package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront/pkg/logkey"
)

// Conf wraps a producing franz-go client.
type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

func (k *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

func (k *Conf) Close() {
	k.client.Close()
}

type producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

// OrderEvents publishes order lifecycle events keyed by order id.
type OrderEvents struct {
	p     producer
	topic string
}

func NewOrderEvents(p producer, topic string) *OrderEvents {
	return &OrderEvents{p: p, topic: topic}
}

func (e *OrderEvents) PublishOrderCompleted(ctx context.Context, evt OrderCompletedEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal OrderCompletedEvent: %w", err)
	}
	key := []byte(strconv.FormatInt(evt.OrderID, 10))
	return e.p.ProduceMessage(ctx, e.topic, key, value)
}

// AccountCreatedHandler is called for every decoded account-created event.
type AccountCreatedHandler func(ctx context.Context, evt AccountCreatedEvent) error

// Consumer reads account-created events as part of a consumer group.
type Consumer struct {
	client *kgo.Client
	topic  string
}

func NewConsumer(brokers []string, group, topic string) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return &Consumer{client: client, topic: topic}, nil
}

// Run polls until ctx is cancelled. A record that fails to decode or handle is
// logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle AccountCreatedHandler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("kafka fetch error", slog.String(logkey.Topic, topic),
				slog.Int("Partition", int(partition)), slog.String(logkey.ERROR, err.Error()))
		})
		fetches.EachRecord(func(r *kgo.Record) {
			if err := HandleAccountCreated(ctx, r.Value, handle); err != nil {
				slog.Error("failed to handle account-created event", slog.String(logkey.Topic, r.Topic),
					slog.Int64("Offset", r.Offset), slog.String(logkey.ERROR, err.Error()))
			}
		})
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}

var errMissingAccountID = errors.New("account-created event without id")

// HandleAccountCreated decodes one record value and passes it to handle.
func HandleAccountCreated(ctx context.Context, value []byte, handle AccountCreatedHandler) error {
	var evt AccountCreatedEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("failed to decode account-created event: %w", err)
	}
	if evt.ID == "" {
		return errMissingAccountID
	}
	return handle(ctx, evt)
}
