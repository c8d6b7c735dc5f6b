package ban

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes the internal state transitions Engine publishes
// on Events, separate from the socket-facing Decision Kind.
type EventKind int

const (
	EventBanned EventKind = iota
	EventUnbanned
	EventRecorded
)

// Event reports a ban-state transition to an external observer (a stats
// exporter, an admin UI — both out of scope for this package), carrying a
// correlation id so a log line and a metrics sample can be joined back to
// the same decision.
type Event struct {
	ID    uuid.UUID
	Addr  netip.Addr
	Kind  EventKind
	Delay time.Duration
	Msg   string
}
