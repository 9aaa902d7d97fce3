package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

func TestLogNotifierWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	notifier := NewLogNotifier(logg)

	orderID := uuid.New()
	notifier.Notify(context.Background(), OrderEvent{Type: EventOrderDelivered, OrderID: orderID})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, EventOrderDelivered, entry["event_type"])
	assert.Equal(t, orderID.String(), entry["order_id"])
}

func TestPubSubNotifierWithoutPublisherDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	notifier := NewPubSubNotifier(nil, logg)

	assert.NotPanics(t, func() {
		notifier.Notify(context.Background(), OrderEvent{Type: EventOrderPaid, OrderID: uuid.New()})
	})
	assert.Contains(t, buf.String(), "publisher unavailable")
}
