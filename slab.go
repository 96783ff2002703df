package coroio

// SourceSlab is a token-indexed slab of registered EventSources with O(1)
// insert/remove and stable tokens. Capacity is fixed at construction;
// growing it dynamically is a possible future refinement, not implemented
// here (spec §4.1).
//
// SourceSlab is only ever touched from the runtime thread (insert/remove
// happen inside coroutine bodies or dispatcher maintenance, both of which
// run serialized on that one thread), so it needs no internal locking — see
// spec §5, "Shared-state locking: none needed at runtime".
type SourceSlab struct {
	slots []slabSlot
	// free holds indices immediately available for reuse.
	free []Token
	// quarantined holds indices freed during the turn currently in
	// progress; they move to free on the next Tick. This defers token
	// reuse by one event-loop turn, narrowing (the spec does not require
	// eliminating) the window described in spec §9 "Token reuse spurious
	// wake".
	quarantined []Token
}

type slabSlot struct {
	occupied bool
	source   EventSource
}

// NewSourceSlab constructs a slab with the given fixed capacity.
func NewSourceSlab(capacity int) *SourceSlab {
	if capacity <= 0 {
		capacity = defaultSlabCapacity
	}
	return &SourceSlab{
		slots: make([]slabSlot, 0, capacity),
	}
}

// Insert allocates a token and stores the EventSource built by build, which
// receives the allocated token so it can stamp it into the source it
// constructs. Returns ErrSlabFull if the slab has no free slots and is
// already at capacity.
func (s *SourceSlab) Insert(build func(Token) EventSource) (Token, error) {
	if len(s.free) > 0 {
		tok := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.slots[tok] = slabSlot{occupied: true, source: build(tok)}
		return tok, nil
	}
	if len(s.slots) >= cap(s.slots) {
		return 0, ErrSlabFull
	}
	tok := Token(len(s.slots))
	s.slots = append(s.slots, slabSlot{occupied: true, source: build(tok)})
	return tok, nil
}

// Get returns a pointer to the EventSource for tok, and whether it's
// present. The pointer is only valid until the next Insert/Remove/Tick.
func (s *SourceSlab) Get(tok Token) (*EventSource, bool) {
	if int(tok) < 0 || int(tok) >= len(s.slots) || !s.slots[tok].occupied {
		return nil, false
	}
	return &s.slots[tok].source, true
}

// Remove removes and returns the EventSource at tok. The token is not
// immediately reusable; it becomes eligible again after the next Tick.
func (s *SourceSlab) Remove(tok Token) (EventSource, bool) {
	if int(tok) < 0 || int(tok) >= len(s.slots) || !s.slots[tok].occupied {
		return EventSource{}, false
	}
	src := s.slots[tok].source
	s.slots[tok] = slabSlot{}
	s.quarantined = append(s.quarantined, tok)
	return src, true
}

// Tick releases tokens freed during the previous turn back into the free
// list. Start calls this after every Ready or Notify callback it delivers,
// so a "turn" is the dispatch of one event: a token freed while one event is
// dispatched can be reused from the next delivered event on, even when both
// events came from the same reactor poll.
func (s *SourceSlab) Tick() {
	if len(s.quarantined) == 0 {
		return
	}
	s.free = append(s.free, s.quarantined...)
	s.quarantined = s.quarantined[:0]
}

// Len reports how many sources are currently occupying slots. Quarantined
// tokens are not occupied and are not counted.
func (s *SourceSlab) Len() int {
	n := 0
	for _, slot := range s.slots {
		if slot.occupied {
			n++
		}
	}
	return n
}
