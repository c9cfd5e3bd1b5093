// Package kafka carries ledger notifications over a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"budget/internal/events"
	"budget/internal/log"
)

const DefaultTopic = "ledger_saved"

// Writes happen one message at a time from inside a save, so the writer
// must not wait to fill batches or retry for long.
const (
	writeTimeout = 2 * time.Second
	maxAttempts  = 2
	batchTimeout = 10 * time.Millisecond
)

type Publisher struct {
	writer *kafka.Writer
	logger *log.Logger
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: writeTimeout,
			MaxAttempts:  maxAttempts,
			BatchTimeout: batchTimeout,
		},
		logger: log.Default(log.ComponentKafka),
	}
}

// PublishLedgerSaved writes msg keyed by the storage key, so every change
// to one ledger lands on the same partition in order.
func (p *Publisher) PublishLedgerSaved(ctx context.Context, msg *events.LedgerSavedMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: data,
		Time:  msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	p.logger.InfoContext(ctx, "Published ledger saved message",
		log.FieldMessageID, msg.ID,
		log.FieldStorageKey, msg.Key,
		"topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type Consumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		logger: log.Default(log.ComponentKafka),
	}
}

// ConsumeLedgerSaved hands every message to handler until ctx is done.
// Offsets are committed only after handler succeeds; unreadable messages
// are committed and skipped.
func (c *Consumer) ConsumeLedgerSaved(ctx context.Context, handler func(context.Context, *events.LedgerSavedMessage) error) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		msg, err := events.LedgerSavedMessageFromJSON(m.Value)
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err, "offset", m.Offset)
		} else if err := handler(ctx, msg); err != nil {
			// leave the offset uncommitted so the group redelivers it
			return fmt.Errorf("handle message %s: %w", msg.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit kafka message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
