package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one effect row written in the same transaction as the order
// change it belongs to. The relay leases pending rows, publishes them
// and marks the outcome; rows are never delivered from inside the order
// transaction itself.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	LeaseUntil    time.Time
	RetryCount    int
	LastError     *string
}
