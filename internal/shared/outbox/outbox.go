package outbox

// Outbox row persisted atomically with the state change that caused it.
// Worker relays read pending rows after commit and publish to the bus,
// which keeps every notification behind its state mutation.
type Message struct {
	ID         string
	EventType  string
	Payload    []byte
	Status     string // pending, published, failed
	RetryCount int
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)
