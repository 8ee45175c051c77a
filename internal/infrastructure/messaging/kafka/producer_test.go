package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w writerInterface) *Producer {
	return NewProducerWithWriter(w, "visibility.alerts", "visibility.review.queue", logging.NewNopLogger())
}

func TestPublishAlertsRoutesToAlertTopic(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	alerts := []common.Alert{
		{Type: "success_rate", Severity: common.SeverityCritical, Message: "success rate 0.500 below floor 0.980"},
		{Type: "cache_hit_rate", Severity: common.SeverityWarning, Message: "cache hit rate 0.600 below floor 0.700"},
	}
	require.NoError(t, p.PublishAlerts(context.Background(), alerts))
	require.Len(t, w.messages, 2)

	assert.Equal(t, "visibility.alerts", w.messages[0].Topic)
	assert.Equal(t, []byte("success_rate"), w.messages[0].Key)

	var decoded common.Alert
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, common.SeverityCritical, decoded.Severity)
}

func TestPublishAlertsEmptyBatchIsNoop(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishAlerts(context.Background(), nil))
	assert.Empty(t, w.messages)
}

func TestPublishAlertsWrapsWriteFailure(t *testing.T) {
	w := &fakeWriter{writeErr: assert.AnError}
	p := newTestProducer(w)

	err := p.PublishAlerts(context.Background(), []common.Alert{{Type: "uptime"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlertDeliveryFailed))
}

func TestEnqueueReviewKeysByDealer(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	ev := event.ReviewEvent{
		DealerID:  "dealer-42",
		ResultID:  "result-9",
		Reasons:   []string{"30-day mean divergence"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.EnqueueReview(context.Background(), ev))
	require.Len(t, w.messages, 1)

	assert.Equal(t, "visibility.review.queue", w.messages[0].Topic)
	assert.Equal(t, []byte("dealer-42"), w.messages[0].Key)

	var decoded event.ReviewEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, ev.Reasons, decoded.Reasons)
}

func TestProducerRejectsAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	// Second close is a no-op.
	require.NoError(t, p.Close())

	err := p.PublishAlerts(context.Background(), []common.Alert{{Type: "uptime"}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlertDeliveryFailed))

	err = p.EnqueueReview(context.Background(), event.ReviewEvent{DealerID: "d"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeReviewQueueFailed))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}
