package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// AuditConsumer drains the account events queue into an append-only log
// file, one line per event.
type AuditConsumer struct {
    url     string
    logPath string
    log     zerolog.Logger
}

// NewAuditConsumer writes to logDir/audit.log.
func NewAuditConsumer(url, logDir string, log zerolog.Logger) *AuditConsumer {
    return &AuditConsumer{url: url, logPath: filepath.Join(logDir, "audit.log"), log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialled with exponential backoff capped at 30s.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("audit consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn().Err(err).Msg("audit consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
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

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn().Err(err).Msg("audit consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(AccountEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, AccountEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := c.Handle(d.Body); err != nil {
            c.log.Error().Err(err).Msg("audit consumer: rejecting message")
            _ = d.Nack(false, false) // do not requeue
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its audit line.
func (c *AuditConsumer) Handle(body []byte) error {
    var ev AccountEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.AccountID == 0 {
        return errors.New("event without type or account id")
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write audit log: %w", err)
    }
    return nil
}

// FormatAuditLine renders ev as a single newline-terminated line.
func FormatAuditLine(ev AccountEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | account_id=%d | username=%q",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.AccountID, ev.Username)
    if ev.ActorID != 0 {
        fmt.Fprintf(&b, " | actor_id=%d", ev.ActorID)
    }
    if ev.Provider != "" {
        fmt.Fprintf(&b, " | provider=%s", ev.Provider)
    }
    if ev.BlockedUntil != nil {
        fmt.Fprintf(&b, " | blocked_until=%s", ev.BlockedUntil.UTC().Format(time.RFC3339))
    }
    b.WriteByte('\n')
    return b.String()
}
