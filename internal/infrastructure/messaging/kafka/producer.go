// Package kafka publishes the engine's outbound events: operational alerts
// and manual-review requests, one topic each.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// writerInterface abstracts kafka.Writer for tests.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer implements the alert sink and the review queue over two topics.
type Producer struct {
	writer      writerInterface
	alertTopic  string
	reviewTopic string
	log         logging.Logger
	closed      atomic.Bool
}

// NewProducer builds the shared writer.  Topic routing happens per message;
// a single writer serves both streams.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "kafka brokers not configured")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	retries := cfg.ProducerRetries
	if retries == 0 {
		retries = 3
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:      writer,
		alertTopic:  cfg.AlertTopic,
		reviewTopic: cfg.ReviewTopic,
		log:         log.Named("kafka"),
	}, nil
}

// NewProducerWithWriter injects a writer, for tests.
func NewProducerWithWriter(w writerInterface, alertTopic, reviewTopic string, log logging.Logger) *Producer {
	return &Producer{writer: w, alertTopic: alertTopic, reviewTopic: reviewTopic, log: log}
}

// PublishAlerts delivers the alert batch to the alert topic, keyed by alert
// type so one metric's alerts stay ordered.
func (p *Producer) PublishAlerts(ctx context.Context, alerts []common.Alert) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeAlertDeliveryFailed, "producer closed")
	}
	if len(alerts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		value, err := json.Marshal(a)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding alert")
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.alertTopic,
			Key:   []byte(a.Type),
			Value: value,
			Time:  time.Now().UTC(),
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, errors.ErrCodeAlertDeliveryFailed, "publishing alerts")
	}
	p.log.Debug("alerts published", logging.Int("count", len(alerts)))
	return nil
}

// EnqueueReview delivers one review request, keyed by dealer so a dealer's
// reviews stay ordered.
func (p *Producer) EnqueueReview(ctx context.Context, ev event.ReviewEvent) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeReviewQueueFailed, "producer closed")
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding review event")
	}
	msg := kafka.Message{
		Topic: p.reviewTopic,
		Key:   []byte(ev.DealerID),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeReviewQueueFailed, "enqueueing review")
	}
	p.log.Debug("review enqueued",
		logging.String("dealer_id", string(ev.DealerID)),
		logging.String("result_id", string(ev.ResultID)))
	return nil
}

// Close flushes and closes the writer exactly once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
