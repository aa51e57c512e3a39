// Package queue carries account lifecycle events over RabbitMQ: the API
// publishes them and the worker appends them to the audit log.
package queue

import "time"

// AccountEventsQueue is the durable queue account events are routed to.
const AccountEventsQueue = "account.events"

// Event types.
const (
    EventRegistered      = "account.registered"
    EventBlocked         = "account.blocked"
    EventUnblocked       = "account.unblocked"
    EventDeleted         = "account.deleted"
    EventFederatedLinked = "account.federated_linked"
)

// AccountEvent describes one lifecycle transition.  ActorID is the
// administrator who caused it, or zero when the account itself (or the
// system, for a lazy unblock) did.
type AccountEvent struct {
    Type         string     `json:"type"`
    AccountID    uint64     `json:"account_id"`
    Username     string     `json:"username"`
    ActorID      uint64     `json:"actor_id,omitempty"`
    Provider     string     `json:"provider,omitempty"`
    BlockedUntil *time.Time `json:"blocked_until,omitempty"`
    OccurredAt   time.Time  `json:"occurred_at"`
}
