package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers account events.  Callers treat failures as
// non-fatal.
type Publisher interface {
    Publish(ctx context.Context, ev AccountEvent) error
}

// AMQPPublisher dials the broker for every publish.  Account events are
// rare enough that a long-lived channel is not worth its reconnect logic.
// Publishes run on request paths, so dialing is bounded by DialTimeout and
// by the caller's deadline, whichever is sooner.
type AMQPPublisher struct {
    url         string
    queue       string
    DialTimeout time.Duration
}

// DefaultDialTimeout bounds connection setup including the AMQP handshake.
const DefaultDialTimeout = 2 * time.Second

// NewAMQPPublisher returns a publisher targeting the account events queue.
func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url, queue: AccountEventsQueue, DialTimeout: DefaultDialTimeout}
}

// Publish declares the durable queue and sends ev as a persistent JSON
// message through the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev AccountEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
    })
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare queue: %w", err)
    }

    return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    })
}

func (p *AMQPPublisher) dialTimeout(ctx context.Context) time.Duration {
    timeout := p.DialTimeout
    if timeout <= 0 {
        timeout = DefaultDialTimeout
    }
    if deadline, ok := ctx.Deadline(); ok {
        if left := time.Until(deadline); left < timeout {
            timeout = max(left, time.Millisecond)
        }
    }
    return timeout
}

// NopPublisher drops every event.  Used when AMQP is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AccountEvent) error { return nil }
