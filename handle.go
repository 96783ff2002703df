package coroio

// Handle is the in-coroutine API (spec §4.3): wrapping I/O and notified
// objects, spawning children, and the select-style multi-source wait. A
// *Handle is only valid for use from inside the coroutine it was created
// for.
type Handle struct {
	coroutine *Coroutine
}

// Spawn creates a child coroutine running body. It is not resumed until
// this coroutine next yields (Block, Select, or return) — spec §4.3.
func (h *Handle) Spawn(body func(h *Handle) error) {
	h.coroutine.spawnChild(body)
}

// Wrap registers io as an Evented source owned by this coroutine and
// returns a typed handle for performing blocking-style I/O on it. No
// reactor interest is armed until the returned source blocks on something.
func (h *Handle) Wrap(io Evented) *TypedEventSource {
	return h.addSource(kindEvented, io, nil)
}

// WrapNotified registers sink as a Notified source: it never contributes
// reactor interest and is only reachable via its Sender (spec invariant
// I6).
func (h *Handle) WrapNotified(sink Notified) *TypedEventSource {
	return h.addSource(kindNotified, nil, sink)
}

func (h *Handle) addSource(kind sourceKind, io Evented, n Notified) *TypedEventSource {
	c := h.coroutine
	if len(c.sources) >= maxSourcesPerCoroutine {
		panic(ErrTooManySources)
	}
	idx := EventSourceIndex(len(c.sources))
	tok, err := c.shared.sources.Insert(func(tok Token) EventSource {
		return EventSource{
			kind:     kind,
			evented:  io,
			notified: n,
			token:    tok,
			index:    idx,
			owner:    c,
		}
	})
	if err != nil {
		// Slab exhaustion is fatal to the caller of wrap (spec §7 kind 2).
		panic(err)
	}
	c.sources = append(c.sources, tok)
	return &TypedEventSource{handle: h, token: tok}
}

// Select blocks until any owned source is readable or writable, returning
// the event that woke the coroutine.
func (h *Handle) Select() LastEvent {
	return h.selectImpl(h.coroutine.maskAll(), ModeBoth)
}

// SelectRead blocks until any owned source is readable.
func (h *Handle) SelectRead() LastEvent {
	return h.selectImpl(h.coroutine.maskAll(), ModeRead)
}

// SelectWrite blocks until any owned source is writable.
func (h *Handle) SelectWrite() LastEvent {
	return h.selectImpl(h.coroutine.maskAll(), ModeWrite)
}

// SelectFrom blocks until any source named in indices is readable or
// writable. Every index must be owned by this coroutine (spec §7 kind 5).
func (h *Handle) SelectFrom(indices []EventSourceIndex) LastEvent {
	return h.selectImpl(h.coroutine.maskFromIndices(indices), ModeBoth)
}

// SelectReadFrom blocks until any source named in indices is readable.
func (h *Handle) SelectReadFrom(indices []EventSourceIndex) LastEvent {
	return h.selectImpl(h.coroutine.maskFromIndices(indices), ModeRead)
}

// SelectWriteFrom blocks until any source named in indices is writable.
func (h *Handle) SelectWriteFrom(indices []EventSourceIndex) LastEvent {
	return h.selectImpl(h.coroutine.maskFromIndices(indices), ModeWrite)
}

func (h *Handle) selectImpl(mask uint64, mode Mode) LastEvent {
	c := h.coroutine
	if c.inNotify {
		panic(ErrReentrantNotify)
	}
	c.blockedOn = mask
	c.blockedMode = mode
	c.state = stateBlocked
	c.block()
	return c.lastEvent
}
