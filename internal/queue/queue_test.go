package queue

import (
    "context"
    "encoding/json"
    "net"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestFormatAuditLine(t *testing.T) {
    at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
    until := at.Add(2 * time.Hour)

    line := FormatAuditLine(AccountEvent{
        Type: EventBlocked, AccountID: 5, Username: "bob", ActorID: 1,
        BlockedUntil: &until, OccurredAt: at,
    })
    assert.Equal(t,
        "[2026-03-01T10:00:00Z] account.blocked | account_id=5 | username=\"bob\" | actor_id=1 | blocked_until=2026-03-01T12:00:00Z\n",
        line)

    line = FormatAuditLine(AccountEvent{Type: EventRegistered, AccountID: 2, Username: "alice", OccurredAt: at})
    assert.Equal(t, "[2026-03-01T10:00:00Z] account.registered | account_id=2 | username=\"alice\"\n", line)
}

func TestAuditConsumer_HandleAppends(t *testing.T) {
    dir := t.TempDir()
    c := NewAuditConsumer("", filepath.Join(dir, "logs"), zerolog.Nop())

    for _, id := range []uint64{1, 2} {
        body, err := json.Marshal(AccountEvent{Type: EventDeleted, AccountID: id, Username: "u", OccurredAt: time.Now()})
        require.NoError(t, err)
        require.NoError(t, c.Handle(body))
    }

    data, err := os.ReadFile(filepath.Join(dir, "logs", "audit.log"))
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "account_id=1")
    assert.Contains(t, lines[1], "account_id=2")
}

func TestAuditConsumer_HandleRejectsMalformed(t *testing.T) {
    c := NewAuditConsumer("", t.TempDir(), zerolog.Nop())
    assert.Error(t, c.Handle([]byte("{not json")))
    assert.Error(t, c.Handle([]byte(`{"type":""}`)))
}

func TestNopPublisher(t *testing.T) {
    var p Publisher = NopPublisher{}
    assert.NoError(t, p.Publish(context.Background(), AccountEvent{Type: EventRegistered}))
}

func TestAMQPPublisher_DialIsBounded(t *testing.T) {
    // accepts TCP connections but never speaks AMQP
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)
    defer ln.Close()
    go func() {
        for {
            conn, err := ln.Accept()
            if err != nil {
                return
            }
            defer conn.Close()
        }
    }()

    p := NewAMQPPublisher("amqp://guest:guest@" + ln.Addr().String() + "/")
    p.DialTimeout = 200 * time.Millisecond

    start := time.Now()
    err = p.Publish(context.Background(), AccountEvent{Type: EventUnblocked, AccountID: 1})
    assert.Error(t, err)
    assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAMQPPublisher_DialTimeoutFollowsContext(t *testing.T) {
    p := NewAMQPPublisher("amqp://localhost/")
    assert.Equal(t, DefaultDialTimeout, p.dialTimeout(context.Background()))

    ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
    defer cancel()
    assert.LessOrEqual(t, p.dialTimeout(ctx), 300*time.Millisecond)
}
