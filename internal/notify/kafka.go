package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iyunix/go-lostfound/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes MessageEvents keyed by conversation id, so one
// conversation's events stay ordered within a partition.
type KafkaNotifier struct {
	w messageWriter
}

// NewKafkaNotifier builds an async writer for a comma-separated broker list.
func NewKafkaNotifier(brokers, topic string) (*KafkaNotifier, error) {
	w, err := newWriter(brokers, topic)
	if err != nil {
		return nil, err
	}
	w.Async = true
	// Async writes return before delivery; failures only surface here.
	w.Completion = logFailedBatch
	return &KafkaNotifier{w: w}, nil
}

func newWriter(brokers, topic string) (*kafka.Writer, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}, nil
}

func logFailedBatch(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	conversations := make([]string, 0, len(messages))
	for _, m := range messages {
		conversations = append(conversations, string(m.Key))
	}
	log.Printf("[Kafka] Failed to deliver %d new-message events (conversations %v): %v", len(messages), conversations, err)
}

func (n *KafkaNotifier) MessageCreated(ctx context.Context, conv *domain.Conversation, msg *domain.Message) error {
	payload, err := NewMessageEvent(conv, msg).Encode()
	if err != nil {
		return fmt.Errorf("encode message event: %w", err)
	}
	return n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(conv.ID),
		Value: payload,
		Time:  msg.CreatedAt,
	})
}

func (n *KafkaNotifier) Close() error { return n.w.Close() }
