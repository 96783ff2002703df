package coroio

// sourceKind distinguishes an I/O-backed source from a message-only one.
type sourceKind int

const (
	kindEvented sourceKind = iota
	kindNotified
)

// EventSource is the runtime-side shell wrapping each user object: the
// object itself, plus the bookkeeping the dispatcher and arming pass need
// (spec §3/§4.4).
type EventSource struct {
	kind sourceKind

	evented  Evented
	notified Notified

	token Token
	index EventSourceIndex
	owner *Coroutine

	// peerHup is sticky: once true, no more read interest is ever armed
	// for this source (spec §4.4).
	peerHup bool

	// registered is true iff this source currently holds a live arming in
	// the reactor (spec invariant I2).
	registered bool
}

// FD returns the raw file descriptor backing an Evented source, or -1 for a
// Notified source (which the reactor never touches).
func (s *EventSource) FD() int {
	if s.kind != kindEvented {
		return -1
	}
	return s.evented.FD()
}
