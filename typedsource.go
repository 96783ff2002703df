package coroio

import (
	"errors"
	"fmt"
)

// TypedEventSource is the handle returned by Handle.Wrap / Handle.WrapNotified
// for performing blocking-style operations on a wrapped user object (spec
// §4.3).
type TypedEventSource struct {
	handle *Handle
	token  Token
}

// src fetches the live EventSource for this wrapper. It panics if the
// source has been torn down, which only happens after the owning coroutine
// has finished — at which point nothing should still hold a
// TypedEventSource for it.
func (t *TypedEventSource) src() *EventSource {
	s, ok := t.handle.coroutine.shared.sources.Get(t.token)
	if !ok {
		panic(fmt.Errorf("coroio: %w: token=%d", ErrNotRegistered, t.token))
	}
	return s
}

// Index returns this source's position within its owning coroutine's
// source list, for use with SelectFrom and friends.
func (t *TypedEventSource) Index() EventSourceIndex {
	return t.src().index
}

// Read performs a blocking-style read: it retries the wrapped object's
// TryRead, suspending the coroutine on readability each time TryRead
// reports ErrWouldBlock (spec §4.3 "read").
func (t *TypedEventSource) Read(buf []byte) (int, error) {
	for {
		r, ok := t.src().evented.(TryReader)
		if !ok {
			return 0, fmt.Errorf("coroio: wrapped type does not implement TryReader")
		}
		n, err := r.TryRead(buf)
		if errors.Is(err, ErrWouldBlock) {
			t.blockOnSelf(ModeRead)
			continue
		}
		return n, err
	}
}

// Write performs a blocking-style write: it retries the wrapped object's
// TryWrite, suspending the coroutine on writability each time TryWrite
// reports ErrWouldBlock (spec §4.3 "write").
func (t *TypedEventSource) Write(buf []byte) (int, error) {
	for {
		w, ok := t.src().evented.(TryWriter)
		if !ok {
			return 0, fmt.Errorf("coroio: wrapped type does not implement TryWriter")
		}
		n, err := w.TryWrite(buf)
		if errors.Is(err, ErrWouldBlock) {
			t.blockOnSelf(ModeWrite)
			continue
		}
		return n, err
	}
}

// Accept performs a blocking-style accept on a wrapped listener (spec
// §4.3 "accept").
func (t *TypedEventSource) Accept() (Evented, error) {
	for {
		a, ok := t.src().evented.(TryAccepter)
		if !ok {
			return nil, fmt.Errorf("coroio: wrapped type does not implement TryAccepter")
		}
		conn, err := a.TryAccept()
		if errors.Is(err, ErrWouldBlock) {
			t.blockOnSelf(ModeRead)
			continue
		}
		return conn, err
	}
}

// Flush is a no-op: the runtime performs no I/O buffering of its own
// (spec §4.3 "flush").
func (t *TypedEventSource) Flush() error { return nil }

// WaitNotify blocks the coroutine until a message has been delivered to
// this Notified source. Valid only for sources created with WrapNotified.
func (t *TypedEventSource) WaitNotify() {
	if t.src().kind != kindNotified {
		panic(fmt.Errorf("coroio: WaitNotify on a non-Notified source"))
	}
	t.blockOnSelf(ModeNotify)
}

// Channel returns a clonable, thread-safe Sender bound to this source's
// token. Any goroutine may call Sender.Send; delivery happens on the
// runtime thread via OnNotify (spec §4.3 "channel").
func (t *TypedEventSource) Channel() *Sender {
	return &Sender{
		token: t.token,
		wake:  t.handle.coroutine.shared.reactor.Wake(),
	}
}

// Send is shorthand for Channel().Send(msg).
func (t *TypedEventSource) Send(msg any) error {
	return t.Channel().Send(msg)
}

// blockOnSelf blocks the owning coroutine on just this source, in mode.
func (t *TypedEventSource) blockOnSelf(mode Mode) {
	c := t.handle.coroutine
	if c.inNotify {
		panic(ErrReentrantNotify)
	}
	idx := t.src().index
	c.blockedOn = 1 << uint(idx)
	c.blockedMode = mode
	c.state = stateBlocked
	c.block()
}

// WithRaw grants read access to the concrete wrapped Evented value, for
// advanced consumers that need more than TryReader/TryWriter/TryAccepter
// expose. It panics if the wrapped value isn't a T (spec's "with_raw" /
// dynamic-dispatch design note).
func WithRaw[T any](t *TypedEventSource, f func(T)) {
	v, ok := t.src().evented.(T)
	if !ok {
		panic(fmt.Errorf("coroio: wrapped source is not a %T", v))
	}
	f(v)
}

// WithRawNotified is WithRaw's counterpart for Notified sources.
func WithRawNotified[T any](t *TypedEventSource, f func(T)) {
	v, ok := t.src().notified.(T)
	if !ok {
		panic(fmt.Errorf("coroio: wrapped notified source is not a %T", v))
	}
	f(v)
}
