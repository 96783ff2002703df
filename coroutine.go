package coroio

import (
	"fmt"

	"github.com/joeycumines/go-coroio/internal/corelet"
)

// maxSourcesPerCoroutine bounds how many sources a single coroutine may
// own, since blocked_on/currently_registered are single-word bitmasks. The
// original used a 32-bit mask; spec §9's "Open question" about widening it
// is resolved here by using the native 64-bit word (REDESIGN FLAGS).
const maxSourcesPerCoroutine = 64

// coroState is the lifecycle state of a Coroutine (spec §3).
type coroState int

const (
	stateRunning coroState = iota
	stateBlocked
	stateFinished
)

// shared is the one record threaded through every Coroutine in a runtime
// instance (spec §3 "Shared state"). It is not global — each Start call
// owns its own.
type shared struct {
	sources      *SourceSlab
	coroutinesNo int
	reactor      Reactor
	logger       *Log
}

// Coroutine is the per-coroutine scheduler record (spec §3).
type Coroutine struct {
	resume corelet.Resume

	state       coroState
	blockedMode Mode

	// sources are this coroutine's owned tokens, in wrap order; position i
	// is EventSourceIndex(i).
	sources []Token

	blockedOn           uint64
	currentlyRegistered uint64

	lastEvent LastEvent

	childrenToStart []*Coroutine

	// inNotify is true only while this coroutine's Notified.OnNotify
	// callback is executing (dispatcher.dispatchNotify), so Select/blockOnSelf
	// can reject a re-entrant blocking call (spec §7 kind 5).
	inNotify bool

	shared *shared

	// block is the closure corelet handed this coroutine's body for
	// suspending itself. It's nil until the coroutine's first Resume.
	block func()

	// err captures a body return error or recovered panic, surfaced by
	// Start for the root coroutine. Non-root coroutines' errors are neither
	// returned nor logged, matching the original, which drops them too
	// (see SPEC_FULL.md for the one deliberate deviation: root's error is
	// surfaced).
	err error
}

// newCoroutine constructs a Coroutine in the Running state with no sources.
func newCoroutine(sh *shared) *Coroutine {
	return &Coroutine{
		state:  stateRunning,
		shared: sh,
	}
}

// spawnChild creates a fresh Coroutine for body and appends it to this
// coroutine's children-to-start list (spec §4.3 spawn). The child does not
// run until the next post-resume maintenance pass.
func (c *Coroutine) spawnChild(body func(h *Handle) error) *Coroutine {
	child := newCoroutine(c.shared)
	c.shared.coroutinesNo++

	handle := &Handle{coroutine: child}

	child.resume = corelet.Spawn(func(block func()) {
		child.block = block
		child.err = runBody(child, handle, body)
	}, nil)

	c.childrenToStart = append(c.childrenToStart, child)
	return child
}

// runBody executes a coroutine's user body, recovering panics into an
// error and always leaving the coroutine Finished on return (spec §9
// panic safety / REDESIGN FLAGS).
func runBody(c *Coroutine, h *Handle, body func(h *Handle) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("coroio: coroutine panicked: %w", e)
			} else {
				err = fmt.Errorf("coroio: coroutine panicked: %v", r)
			}
		}
		c.state = stateFinished
		c.blockedOn = 0
	}()
	return body(h)
}

// indexOf returns the EventSourceIndex of tok within this coroutine's
// source list, or -1 if not owned.
func (c *Coroutine) indexOf(tok Token) EventSourceIndex {
	for i, t := range c.sources {
		if t == tok {
			return EventSourceIndex(i)
		}
	}
	return -1
}

// ownsIndex reports whether idx is a valid, currently-owned source index.
func (c *Coroutine) ownsIndex(idx EventSourceIndex) bool {
	return idx >= 0 && int(idx) < len(c.sources)
}

// maskFromIndices builds a bitmask from a set of EventSourceIndex values,
// panicking (a documented programmer error, spec §7 kind 5) if any index
// isn't owned by c.
func (c *Coroutine) maskFromIndices(indices []EventSourceIndex) uint64 {
	var mask uint64
	for _, idx := range indices {
		if !c.ownsIndex(idx) {
			panic(ErrForeignIndex)
		}
		mask |= 1 << uint(idx)
	}
	return mask
}

// maskAll returns a bitmask covering every source this coroutine owns.
func (c *Coroutine) maskAll() uint64 {
	if len(c.sources) >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(len(c.sources))) - 1
}
