package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the event queues into append-only log files, one per
// queue, under dir.
type Consumer struct {
	url string
	dir string
	log *log.Logger
}

// NewConsumer returns a consumer writing claims.log and audit.log into dir.
func NewConsumer(url, dir string) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{url: url, dir: dir, log: log.New("event-consumer")}
}

// Run connects to RabbitMQ and consumes both queues until ctx is cancelled.
// A dropped connection is redialled with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnf("consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warnf("set QoS failed: %v", err)
	}

	claims, err := c.subscribe(ch, ClaimEventsQueue)
	if err != nil {
		return err
	}
	audits, err := c.subscribe(ch, AuditEventsQueue)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-claims:
			if !ok {
				return errors.New("claim deliveries channel closed")
			}
			c.settle(d, c.HandleClaimMessage(d.Body))
		case d, ok := <-audits:
			if !ok {
				return errors.New("audit deliveries channel closed")
			}
			c.settle(d, c.HandleAuditMessage(d.Body))
		}
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if err := declare(ch, queue); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// settle acks handled messages and rejects failed ones without requeue to
// avoid tight redelivery loops.
func (c *Consumer) settle(d amqp.Delivery, err error) {
	if err != nil {
		c.log.Errorf("handle message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// HandleClaimMessage appends a ClaimEvent to claims.log.
func (c *Consumer) HandleClaimMessage(body []byte) error {
	var ev ClaimEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.appendLine("claims.log", FormatClaimEvent(ev))
}

// HandleAuditMessage appends an AuditEvent to audit.log.
func (c *Consumer) HandleAuditMessage(body []byte) error {
	var ev AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.appendLine("audit.log", FormatAuditEvent(ev))
}

func (c *Consumer) appendLine(name, line string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatClaimEvent renders ev as a single log line.
func FormatClaimEvent(ev ClaimEvent) string {
	from := ev.FromStatus
	if from == "" {
		from = "-"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Claim status changed | claim_id=%d | policy_id=%d | %s -> %s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.ClaimID, ev.PolicyID, from, ev.ToStatus)
	if ev.ActorUserID != nil {
		fmt.Fprintf(&b, " | actor_user_id=%d", *ev.ActorUserID)
	}
	if ev.ApprovedPayout != nil {
		fmt.Fprintf(&b, " | approved_payout=%.2f", *ev.ApprovedPayout)
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatAuditEvent renders ev as a single log line with details sorted by
// key.
func FormatAuditEvent(ev AuditEvent) string {
	target := "-"
	if ev.TargetUserID != nil {
		target = fmt.Sprint(*ev.TargetUserID)
	}
	keys := make([]string, 0, len(ev.Details))
	for k := range ev.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ev.Details[k]))
	}
	return fmt.Sprintf("[%s] %s | audit_id=%d | actor_user_id=%d | target_user_id=%s | details={%s}\n",
		ev.CreatedAt.UTC().Format(time.RFC3339), ev.Action, ev.AuditID, ev.ActorUserID, target, strings.Join(parts, ","))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
