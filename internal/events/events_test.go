package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/todo_list/pkg/logging"
)

func TestNew_StampsIDAndTime(t *testing.T) {
	before := time.Now().UTC()
	ev := New(ToDoCreated, 7)

	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ToDoCreated, ev.Type)
	assert.EqualValues(t, 7, ev.UserID)
	assert.False(t, ev.OccurredAt.Before(before))
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	assert.NotEqual(t, ev.ID, New(ToDoCreated, 7).ID)
}

func TestEncode_KeyedByUser(t *testing.T) {
	ev := New(ToDoUpdated, 42)
	ev.ToDoID = 3
	ev.Data = map[string]any{"done": true}

	msg, err := encode(TopicToDos, ev)
	require.NoError(t, err)
	assert.Equal(t, TopicToDos, msg.Topic)
	assert.Equal(t, "42", string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got["event_id"])
	assert.Equal(t, "todo_updated", got["type"])
	assert.EqualValues(t, 42, got["user_id"])
	assert.EqualValues(t, 3, got["todo_id"])
	assert.Contains(t, got, "occurred_at")
	assert.Equal(t, map[string]any{"done": true}, got["data"])
}

func TestEncode_OmitsEmptyToDo(t *testing.T) {
	msg, err := encode(TopicUsers, New(UserRegistered, 1))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.NotContains(t, got, "todo_id")
	assert.NotContains(t, got, "data")
}

func TestEncode_UnmarshalableData(t *testing.T) {
	ev := New(UserUpdated, 1)
	ev.Data = make(chan int)

	_, err := encode(TopicUsers, ev)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TopicUsers, New(UserDeleted, 1)))
	assert.NoError(t, p.Close())
}

type blockingWriter struct {
	mu      sync.Mutex
	release chan struct{}
	got     []kafka.Message
	err     error
	closed  bool
}

func (w *blockingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	select {
	case <-w.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = append(w.got, msgs...)
	return w.err
}

func (w *blockingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *blockingWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.got...)
}

func TestKafkaPublisher_PublishDoesNotWaitForBroker(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	p := newKafkaPublisher(w, logging.NewWithWriter(io.Discard, "error"), 4)

	start := time.Now()
	require.NoError(t, p.Publish(context.Background(), TopicUsers, New(UserRegistered, 1)))
	require.NoError(t, p.Publish(context.Background(), TopicToDos, New(ToDoCreated, 1)))
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, w.messages())

	close(w.release)
	require.NoError(t, p.Close())

	got := w.messages()
	require.Len(t, got, 2)
	assert.Equal(t, TopicUsers, got[0].Topic)
	assert.Equal(t, TopicToDos, got[1].Topic)
	assert.True(t, w.closed)

	assert.ErrorIs(t, p.Publish(context.Background(), TopicUsers, New(UserDeleted, 1)), ErrPublisherClosed)
}

func TestKafkaPublisher_QueueFull(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	p := newKafkaPublisher(w, logging.NewWithWriter(io.Discard, "error"), 1)

	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = p.Publish(context.Background(), TopicUsers, New(UserUpdated, 1))
	}
	assert.ErrorIs(t, err, ErrQueueFull)

	close(w.release)
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_LogsWriteFailures(t *testing.T) {
	var buf syncBuffer
	w := &blockingWriter{release: make(chan struct{}), err: errors.New("broker down")}
	close(w.release)
	p := newKafkaPublisher(w, logging.NewWithWriter(&buf, "error"), 4)

	require.NoError(t, p.Publish(context.Background(), TopicToDos, New(ToDoDeleted, 9)))
	require.NoError(t, p.Close())

	out := buf.String()
	assert.Contains(t, out, "kafka_write_failed")
	assert.Contains(t, out, TopicToDos)
	assert.Contains(t, out, "broker down")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
