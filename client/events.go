package client

import "context"

// EventKind classifies an operation-outcome notification. Complete and Failed
// are terminal; every other kind reports intermediate protocol progress.
type EventKind int

const (
	// EventComplete reports that the remote side finished the operation and
	// the result is ready on the file exchange.
	EventComplete EventKind = iota

	// EventFailed reports a terminal failure of the operation.
	EventFailed

	// EventIdentificationComplete reports that contributors have been
	// identified for the operation.
	EventIdentificationComplete

	// EventProgress reports non-terminal operation progress.
	EventProgress
)

func (k EventKind) String() string {
	switch k {
	case EventComplete:
		return "Complete"
	case EventFailed:
		return "Failed"
	case EventIdentificationComplete:
		return "IdentificationComplete"
	case EventProgress:
		return "Progress"
	default:
		return "Unknown"
	}
}

// Event is one asynchronous notification about a submitted operation. Every
// event carries the file id it concerns, whatever its kind.
type Event struct {
	Kind         EventKind
	CollectionID string
	FileID       string

	// Info carries a human-readable detail, typically the failure reason.
	Info string
}

// EventHandler consumes operation-outcome notifications. Implementations must
// be safe for concurrent invocation for distinct file ids. A returned error
// signals a protocol inconsistency between the event source and the local
// bookkeeping; the delivery layer escalates it rather than retrying.
type EventHandler interface {
	HandleEvent(ctx context.Context, e Event) error
}
