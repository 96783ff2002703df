package coroio

import "errors"

// Standard errors returned by this package.
var (
	// ErrSlabFull is returned by SourceSlab.Insert when the source slab has
	// run out of tokens; Wrap/WrapNotified panic with it.
	ErrSlabFull = errors.New("coroio: source slab is full")

	// ErrNotRegistered is wrapped into the panic raised when a
	// TypedEventSource operation targets a token the slab no longer knows
	// about.
	ErrNotRegistered = errors.New("coroio: token not registered")

	// ErrTooManySources is the panic payload used when a coroutine tries to
	// own more sources than the blocked_on bitmask can address.
	ErrTooManySources = errors.New("coroio: coroutine owns too many sources")

	// ErrForeignIndex is the panic payload used when SelectFrom is called
	// with an EventSourceIndex this coroutine does not own.
	ErrForeignIndex = errors.New("coroio: select_from index not owned by this coroutine")

	// ErrReentrantNotify is the panic payload used when a Notified.OnNotify
	// callback tries to invoke a blocking primitive.
	ErrReentrantNotify = errors.New("coroio: blocking call from within OnNotify")

	// ErrClosed is returned by Sender.Send after the runtime has shut down.
	ErrClosed = errors.New("coroio: runtime is shut down")

	// ErrWouldBlock is the sentinel a TryReader/TryWriter/TryAccepter
	// returns to mean "not ready yet, try again after blocking" — the Go
	// equivalent of the original's Ok(None).
	ErrWouldBlock = errors.New("coroio: operation would block")
)
