package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/metrics"
	"github.com/hptourism/homestay-portal/pkg/outbox"
)

type outboxStore interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, cause error) error
	Park(id uuid.UUID, cause error) error
}

type eventPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

type smsSender interface {
	Send(ctx context.Context, mobile, message, templateID string) error
}

// PubSubPublisher adapts the Pub/Sub topic publisher to the dispatcher.
type PubSubPublisher struct {
	publisher *pubsub.Publisher
}

func NewPubSubPublisher(publisher *pubsub.Publisher) *PubSubPublisher {
	return &PubSubPublisher{publisher: publisher}
}

func (p *PubSubPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	_, err := result.Get(ctx)
	return err
}

// Dispatcher drains the notification outbox. Workflow transactions only
// queue rows; delivery happens here, off the request path, so a slow or down
// gateway never blocks or rolls back a transition.
type Dispatcher struct {
	store     outboxStore
	publisher eventPublisher
	sms       smsSender
	cfg       config.OutboxConfig
	metrics   *metrics.DispatcherMetrics
	logg      *logger.Logger
}

func NewDispatcher(
	store outboxStore,
	publisher eventPublisher,
	sms smsSender,
	cfg config.OutboxConfig,
	m *metrics.DispatcherMetrics,
	logg *logger.Logger,
) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if publisher == nil && sms == nil {
		return nil, fmt.Errorf("at least one delivery channel required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		sms:       sms,
		cfg:       cfg,
		metrics:   m,
		logg:      logg,
	}, nil
}

// Run drains the outbox until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	interval := time.Duration(d.cfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	startCtx := d.logg.WithFields(ctx, map[string]any{
		"batch_size":    d.cfg.BatchSize,
		"poll_interval": interval.String(),
	})
	d.logg.Info(startCtx, "notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.logg.Info(ctx, "notification dispatcher stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.DrainOnce(ctx); err != nil {
				d.logg.Error(ctx, "outbox drain failed", err)
			}
		}
	}
}

// DrainOnce delivers one batch and returns how many events were published.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	rows, err := d.store.FetchUnpublished(d.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}

	published := 0
	for i := range rows {
		if err := d.dispatch(ctx, &rows[i]); err != nil {
			d.handleFailure(ctx, &rows[i], err)
			continue
		}
		if err := d.store.MarkPublished(rows[i].ID); err != nil {
			d.logg.Error(d.logg.WithField(ctx, "event_id", rows[i].ID.String()), "mark published failed", err)
			continue
		}
		published++
	}
	return published, nil
}

// dispatch fans one event out to every configured channel. Channel failures
// are combined so a retry re-attempts all of them; delivery is at-least-once
// and consumers dedupe on the envelope event id.
func (d *Dispatcher) dispatch(ctx context.Context, row *models.OutboxEvent) error {
	tpl, ok := TemplateFor(row.EventType)
	if !ok {
		return fmt.Errorf("no template for event type %q", row.EventType)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return fmt.Errorf("decode payload envelope: %w", err)
	}
	var data EventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return fmt.Errorf("decode event data: %w", err)
	}

	var errs error
	for _, channel := range tpl.Channels {
		start := time.Now()
		var cerr error
		switch channel {
		case ChannelPubSub:
			cerr = d.publishEvent(ctx, row, envelope)
		case ChannelSMS:
			cerr = d.sendSMS(ctx, tpl, data)
		default:
			cerr = fmt.Errorf("unknown channel %q", channel)
		}
		d.metrics.ObserveDuration(string(channel), time.Since(start))
		if cerr != nil {
			d.metrics.IncFailure(string(channel))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", channel, cerr))
			continue
		}
		d.metrics.IncSuccess(string(channel))
	}
	return errs
}

func (d *Dispatcher) publishEvent(ctx context.Context, row *models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	if d.publisher == nil {
		return nil
	}
	return d.publisher.Publish(ctx, row.Payload, map[string]string{
		"event_type":     string(row.EventType),
		"event_id":       envelope.EventID,
		"application_id": row.ApplicationID.String(),
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, tpl Template, data EventData) error {
	if d.sms == nil {
		return nil
	}
	if data.OwnerMobile == "" {
		return nil
	}
	return d.sms.Send(ctx, data.OwnerMobile, tpl.Render(data), tpl.SMSTemplateID)
}

func (d *Dispatcher) handleFailure(ctx context.Context, row *models.OutboxEvent, cause error) {
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"event_id":   row.ID.String(),
		"event_type": string(row.EventType),
		"attempts":   row.AttemptCount + 1,
	})

	// AttemptCount is the count before this failure.
	if row.AttemptCount+1 >= d.cfg.MaxAttempts {
		if err := d.store.Park(row.ID, cause); err != nil {
			d.logg.Error(logCtx, "park event failed", err)
			return
		}
		d.metrics.IncParked(string(row.EventType))
		d.logg.Error(logCtx, "notification event parked", cause)
		return
	}

	if err := d.store.MarkFailed(row.ID, cause); err != nil {
		d.logg.Error(logCtx, "mark failed failed", err)
		return
	}
	d.logg.Warn(d.logg.WithField(logCtx, "error_cause", cause.Error()), "notification delivery failed")
}
