package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/metrics"
	"github.com/hptourism/homestay-portal/pkg/outbox"
)

type fakeStore struct {
	rows      []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	parked    []uuid.UUID
}

func (f *fakeStore) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeStore) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeStore) Park(id uuid.UUID, _ error) error {
	f.parked = append(f.parked, id)
	return nil
}

type fakePublisher struct {
	messages []map[string]string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, _ []byte, attributes map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, attributes)
	return nil
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, mobile, message, templateID string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, mobile+"|"+templateID+"|"+message)
	return nil
}

func outboxRow(t *testing.T, event enums.NotificationEvent, attempts int) models.OutboxEvent {
	t.Helper()
	remarks := "missing fire NOC"
	data, err := json.Marshal(EventData{
		ApplicationNumber: "HS/SML/2026/000042",
		PreviousStatus:    "under_scrutiny",
		NewStatus:         "sent_back_for_corrections",
		OwnerMobile:       "9876500000",
		Remarks:           &remarks,
	})
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event,
		ApplicationID: uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

func newDispatcher(t *testing.T, store *fakeStore, publisher *fakePublisher, sms *fakeSMS, cfg config.OutboxConfig) *Dispatcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	m := metrics.NewDispatcherMetrics(prometheus.NewRegistry())
	d, err := NewDispatcher(store, publisher, sms, cfg, m, logg)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func TestDrainOncePublishesToAllChannels(t *testing.T) {
	store := &fakeStore{rows: []models.OutboxEvent{outboxRow(t, enums.NotifySentBack, 0)}}
	publisher := &fakePublisher{}
	sms := &fakeSMS{}
	d := newDispatcher(t, store, publisher, sms, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})

	published, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if published != 1 {
		t.Fatalf("published %d", published)
	}
	if len(store.published) != 1 {
		t.Fatalf("row not marked published")
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("pubsub messages %d", len(publisher.messages))
	}
	if publisher.messages[0]["event_type"] != "sent_back_for_corrections" {
		t.Fatalf("attributes %v", publisher.messages[0])
	}

	if len(sms.sent) != 1 {
		t.Fatalf("sms sent %d", len(sms.sent))
	}
	if !strings.HasPrefix(sms.sent[0], "9876500000|") {
		t.Fatalf("sms %s", sms.sent[0])
	}
	if !strings.Contains(sms.sent[0], "HS/SML/2026/000042") || !strings.Contains(sms.sent[0], "missing fire NOC") {
		t.Fatalf("message body %s", sms.sent[0])
	}
}

func TestChannelFailureMarksFailedNotPublished(t *testing.T) {
	store := &fakeStore{rows: []models.OutboxEvent{outboxRow(t, enums.NotifyApplicationSubmitted, 0)}}
	publisher := &fakePublisher{err: fmt.Errorf("topic unavailable")}
	sms := &fakeSMS{}
	d := newDispatcher(t, store, publisher, sms, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})

	published, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if published != 0 {
		t.Fatalf("published %d", published)
	}
	if len(store.failed) != 1 || len(store.published) != 0 {
		t.Fatalf("failed=%d published=%d", len(store.failed), len(store.published))
	}
	// The SMS leg still went out; redelivery is at-least-once.
	if len(sms.sent) != 1 {
		t.Fatalf("sms sent %d", len(sms.sent))
	}
}

func TestExhaustedEventIsParked(t *testing.T) {
	store := &fakeStore{rows: []models.OutboxEvent{outboxRow(t, enums.NotifyApplicationSubmitted, 2)}}
	publisher := &fakePublisher{err: fmt.Errorf("topic unavailable")}
	d := newDispatcher(t, store, publisher, &fakeSMS{}, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})

	if _, err := d.DrainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.parked) != 1 {
		t.Fatalf("event not parked")
	}
	if len(store.failed) != 0 {
		t.Fatalf("parked event must not also be marked failed")
	}
}

func TestUnknownEventTypeFails(t *testing.T) {
	row := outboxRow(t, enums.NotificationEvent("unknown_event"), 0)
	store := &fakeStore{rows: []models.OutboxEvent{row}}
	d := newDispatcher(t, store, &fakePublisher{}, &fakeSMS{}, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})

	if _, err := d.DrainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.failed) != 1 {
		t.Fatalf("unresolvable event must be marked failed")
	}
}

func TestSkipsSMSWithoutMobile(t *testing.T) {
	row := outboxRow(t, enums.NotifyCertificateIssued, 0)
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, _ := json.Marshal(EventData{ApplicationNumber: "HS/SML/2026/000042"})
	envelope.Data = data
	payload, _ := json.Marshal(envelope)
	row.Payload = payload

	store := &fakeStore{rows: []models.OutboxEvent{row}}
	sms := &fakeSMS{}
	d := newDispatcher(t, store, &fakePublisher{}, sms, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})

	if _, err := d.DrainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(sms.sent) != 0 {
		t.Fatalf("sms must be skipped without a mobile number")
	}
	if len(store.published) != 1 {
		t.Fatalf("event must still publish")
	}
}

func TestEveryEventHasTemplate(t *testing.T) {
	for _, event := range enums.NotificationEvents() {
		tpl, ok := TemplateFor(event)
		if !ok {
			t.Fatalf("no template for %s", event)
		}
		if tpl.SMSTemplateID == "" || tpl.Render == nil || len(tpl.Channels) == 0 {
			t.Fatalf("incomplete template for %s", event)
		}
		msg := tpl.Render(EventData{ApplicationNumber: "HS/KGR/2026/000001"})
		if !strings.Contains(msg, "HS/KGR/2026/000001") {
			t.Fatalf("template for %s must carry the application number", event)
		}
	}
}
