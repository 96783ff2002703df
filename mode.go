package coroio

// Token is the opaque, slab-assigned identity of a registered EventSource.
// It's stable for the lifetime of the source's registration and is reused
// only after a one-turn quarantine (see SourceSlab).
type Token uint32

// EventSourceIndex is a source's position within its owning coroutine's
// ordered source list. It's stable for the coroutine's lifetime and never
// reused within that coroutine, even if the underlying source is removed
// (sources are only removed wholesale, at coroutine finish).
type EventSourceIndex int

// Mode selects which direction(s) of I/O readiness a blocking call cares
// about, or marks a block as driven by the notify channel instead of
// reactor readiness.
type Mode int

const (
	// ModeRead blocks on readability (and hangup).
	ModeRead Mode = iota
	// ModeWrite blocks on writability.
	ModeWrite
	// ModeBoth blocks on either readability or writability.
	ModeBoth
	// ModeNotify blocks on a Notified source's message channel; it never
	// arms reactor interest.
	ModeNotify
)

// HasRead reports whether m includes read interest.
func (m Mode) HasRead() bool { return m == ModeRead || m == ModeBoth }

// HasWrite reports whether m includes write interest.
func (m Mode) HasWrite() bool { return m == ModeWrite || m == ModeBoth }

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeBoth:
		return "both"
	case ModeNotify:
		return "notify"
	default:
		return "invalid"
	}
}

// LastEvent records the event that most recently resumed a coroutine from
// an I/O block. It is not updated for Notify wakeups (spec §4.6): a notify
// must not masquerade as an I/O event in a Select return value.
type LastEvent struct {
	Index EventSourceIndex
	Mode  Mode
}

// HasRead reports whether the recorded event included readability.
func (e LastEvent) HasRead() bool { return e.Mode.HasRead() }

// HasWrite reports whether the recorded event included writability.
func (e LastEvent) HasWrite() bool { return e.Mode.HasWrite() }
