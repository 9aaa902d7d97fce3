package notifications

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
	"github.com/nyeinchan/shwecart-backend/pkg/pubsub"
)

const publishTimeout = 5 * time.Second

// Event types fanned out to downstream consumers (SMS, staff dashboard).
const (
	EventOrderPaid      = "order.paid"
	EventOrderAssigned  = "order.assigned"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
	EventPaymentFailed  = "payment.failed"

	// EventPaymentOrphaned fires when a completed settlement lands on an
	// order that can no longer advance, typically one cancelled while the
	// gateway was settling. The funds need a manual refund.
	EventPaymentOrphaned = "payment.orphaned"
)

// OrderEvent is the payload published for every order-lifecycle notification.
type OrderEvent struct {
	Type        string            `json:"type"`
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number,omitempty"`
	Status      enums.OrderStatus `json:"status,omitempty"`
	RiderID     *uuid.UUID        `json:"rider_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Notifier fans out order-lifecycle events. Implementations never return an
// error: delivery is at-most-once and a failed publish must not affect the
// state transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent)
}

type pubsubNotifier struct {
	publisher *gcppubsub.Publisher
	logg      *logger.Logger
}

// NewPubSubNotifier builds a notifier over the configured notification topic.
func NewPubSubNotifier(client *pubsub.Client, logg *logger.Logger) Notifier {
	var pub *gcppubsub.Publisher
	if client != nil {
		pub = client.NotificationsPublisher()
	}
	return &pubsubNotifier{publisher: pub, logg: logg}
}

func (n *pubsubNotifier) Notify(ctx context.Context, event OrderEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.log(ctx, event, err)
		return
	}
	if n.publisher == nil {
		n.log(ctx, event, nil)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := n.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": event.Type,
			"order_id":   event.OrderID.String(),
		},
	})
	if result == nil {
		n.log(ctx, event, nil)
		return
	}
	if _, err := result.Get(publishCtx); err != nil {
		n.log(ctx, event, err)
	}
}

func (n *pubsubNotifier) log(ctx context.Context, event OrderEvent, err error) {
	if n.logg == nil {
		return
	}
	l := n.logg.WithField(ctx, "event_type", event.Type)
	l = n.logg.WithOrderID(l, event.OrderID.String())
	if err != nil {
		n.logg.Warn(l, "notification publish failed: "+err.Error())
		return
	}
	n.logg.Warn(l, "notification dropped: publisher unavailable")
}

type logNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier is the fallback used when Pub/Sub is not configured (dev,
// tests, airgapped deploys). Events are written to the log and dropped.
func NewLogNotifier(logg *logger.Logger) Notifier {
	return &logNotifier{logg: logg}
}

func (n *logNotifier) Notify(ctx context.Context, event OrderEvent) {
	if n.logg == nil {
		return
	}
	l := n.logg.WithField(ctx, "event_type", event.Type)
	l = n.logg.WithOrderID(l, event.OrderID.String())
	n.logg.Info(l, "order notification")
}
