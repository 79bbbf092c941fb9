// Package events publishes domain events for users and to-dos to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TopicUsers = "user_events"
	TopicToDos = "todo_events"
)

const (
	UserRegistered = "user_registered"
	UserLoggedIn   = "user_logged_in"
	UserUpdated    = "user_updated"
	UserDeleted    = "user_deleted"

	ToDoCreated = "todo_created"
	ToDoUpdated = "todo_updated"
	ToDoDeleted = "todo_deleted"
)

const (
	writeTimeout = 5 * time.Second
	queueSize    = 1024
)

type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	ToDoID     uint      `json:"todo_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// New stamps an event of type typ for userID with a fresh id and the current time.
func New(typ string, userID uint) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                 { return nil }

// ErrQueueFull is returned by KafkaPublisher.Publish when the outbound buffer
// is saturated, typically because the brokers are unreachable.
var ErrQueueFull = errors.New("kafka: publish queue full")

var ErrPublisherClosed = errors.New("kafka: publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher hands events to a background writer. Publish never waits on
// the brokers; delivery failures are logged by the writer goroutine.
type KafkaPublisher struct {
	w      messageWriter
	logger *slog.Logger
	queue  chan kafka.Message
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, logger, queueSize)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger, size int) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &KafkaPublisher{
		w:      w,
		logger: logger.With("component", "events.kafka"),
		queue:  make(chan kafka.Message, size),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func encode(topic string, ev Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatUint(uint64(ev.UserID), 10)),
		Value: data,
		Time:  ev.OccurredAt,
	}, nil
}

func (p *KafkaPublisher) Publish(_ context.Context, topic string, ev Event) error {
	msg, err := encode(topic, ev)
	if err != nil {
		return err
	}

	select {
	case <-p.stop:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s for %s", ErrQueueFull, ev.Type, topic)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for {
		select {
		case msg := <-p.queue:
			p.write(msg)
		case <-p.stop:
			for {
				select {
				case msg := <-p.queue:
					p.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *KafkaPublisher) write(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka_write_failed", "topic", msg.Topic, "key", string(msg.Key), "error", err)
	}
}

// Close flushes queued events and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() { close(p.stop) })
	<-p.done
	return p.w.Close()
}
