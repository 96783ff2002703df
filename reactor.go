package coroio

import "time"

// Interest is the set of conditions a reactor registration should watch.
type Interest struct {
	Readable bool
	Writable bool
	// Hangup requests the reactor to report peer hangup alongside
	// readability. Most real pollers (epoll, kqueue) report this
	// unconditionally once registered; it's listed explicitly for the
	// adapters that don't.
	Hangup bool
}

// PollEvent is what a reactor delivers for a readable/writable/hangup
// source.
type PollEvent struct {
	Token    Token
	Readable bool
	Writable bool
	Hangup   bool
	Error    bool
}

// WakeMessage is what arrives over the reactor's cross-thread wake channel:
// an opaque payload addressed to a specific token (spec §3 Message, §4.2
// wake_tx).
type WakeMessage struct {
	Token   Token
	Payload any
}

// Reactor is the contract the dispatcher needs from the underlying
// readiness primitive (spec §4.2). Implementations are expected to provide
// edge-triggered registration, one-shot re-arming, and a cross-thread wake
// channel. The concrete epoll/kqueue adapters are in poller_linux.go /
// poller_darwin.go / poller_other.go.
type Reactor interface {
	// Register arms fd under token with interest, edge-triggered. It must
	// only be called once per token until Deregister.
	Register(token Token, fd int, interest Interest) error

	// Reregister re-arms fd under token with interest, edge-triggered and
	// one-shot: the registration is automatically consumed after the next
	// delivered event and must be explicitly re-armed to receive another.
	Reregister(token Token, fd int, interest Interest) error

	// Deregister removes any registration for token.
	Deregister(token Token, fd int) error

	// Wake returns a channel other goroutines (or the current one) can
	// send WakeMessage values on; the run loop delivers them on the
	// runtime thread in send order per sender.
	Wake() chan<- WakeMessage

	// Run blocks, delivering Ready and Notify callbacks synchronously on
	// the calling goroutine, until Shutdown is called or an
	// unrecoverable poll error occurs. timeout bounds each individual
	// poll when idle, so Run rechecks for Shutdown at least that often.
	Run(timeout time.Duration, onReady func(PollEvent), onNotify func(WakeMessage)) error

	// Shutdown asks a running Run call to return soon.
	Shutdown()

	// Close releases the reactor's OS resources and closes the wake
	// channel. Call after Run returns.
	Close() error
}
