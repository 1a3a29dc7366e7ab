package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()
	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "scribe",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "scribe-api",
		Env:  "test",
	}, zaptest.NewLogger(t))

	return publisher, asyncProducer
}

func TestPublishNoteShared(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	sharedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := domain.NoteSharedEvent{
		EventID:   "event-123",
		AccountID: "acct-456",
		NoteID:    "note-789",
		SharedAt:  sharedAt,
		Metadata:  map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishNoteShared(context.Background(), event); err != nil {
		t.Fatalf("PublishNoteShared returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "scribe.note.shared" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "scribe.note.shared" {
			t.Fatalf("unexpected event_type: %v", got)
		}
		if got := envelope["event_id"]; got != event.EventID {
			t.Fatalf("unexpected event_id: %v", got)
		}
		if got := envelope["account_id"]; got != event.AccountID {
			t.Fatalf("unexpected account_id: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not an object: %T", envelope["payload"])
		}
		if got := payload["note_id"]; got != event.NoteID {
			t.Fatalf("unexpected note_id: %v", got)
		}
	default:
		t.Fatal("expected a produced message")
	}
}

func TestPublishAccountRegisteredMasksEmail(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	event := domain.AccountRegisteredEvent{
		EventID:      "event-1",
		AccountID:    "acct-1",
		Email:        "john.doe@example.com",
		Name:         "John Doe",
		RegisteredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishAccountRegistered(context.Background(), event); err != nil {
		t.Fatalf("PublishAccountRegistered returned error: %v", err)
	}

	msg := <-asyncProducer.input
	bytes, err := msg.Value.Encode()
	if err != nil {
		t.Fatalf("Value.Encode returned error: %v", err)
	}

	var envelope struct {
		Payload struct {
			Email string `json:"email"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(bytes, &envelope); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}

	if envelope.Payload.Email != "joh***@example.com" {
		t.Fatalf("email should be masked, got %q", envelope.Payload.Email)
	}
}

func TestPublishRespectsContextWhenProducerBusy(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	// Fill the buffered input channel so the next publish would block.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:   "event-2",
		AccountID: "acct-1",
		ChangedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected context error when producer input is full")
	}
}
