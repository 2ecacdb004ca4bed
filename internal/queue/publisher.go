package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher mirrors domain events to RabbitMQ. It dials per publish: events
// are rare (claim transitions, admin actions) and a short-lived connection
// never goes stale. Errors are logged and returned so callers can ignore
// them without interrupting the request.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	log         *log.Logger
}

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of a publish
// so an unreachable broker cannot hold up the request that triggered it.
const DefaultDialTimeout = 2 * time.Second

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dialTimeout: DefaultDialTimeout, log: log.New("publisher")}
}

// dial connects with a timeout that never outlives ctx.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// PublishClaimEvent sends ev to the claims.status_changed queue.
func (p *Publisher) PublishClaimEvent(ctx context.Context, ev ClaimEvent) error {
	return p.publish(ctx, ClaimEventsQueue, ev)
}

// PublishAuditEvent sends ev to the admin.audit queue.
func (p *Publisher) PublishAuditEvent(ctx context.Context, ev AuditEvent) error {
	return p.publish(ctx, AuditEventsQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		p.log.Errorf("marshal %s event failed: %v", queue, err)
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Warnf("dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warnf("channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, queue); err != nil {
		p.log.Warnf("queue declare %s failed: %v", queue, err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.log.Warnf("publish to %s failed: %v", queue, err)
		return err
	}
	return nil
}

// declare makes sure queue exists. Durable so messages survive broker
// restarts.
func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}
