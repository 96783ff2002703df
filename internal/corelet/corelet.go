// Package corelet provides the stackful-coroutine primitive coroio's
// scheduler core is built on: Spawn, Resume, and a per-coroutine Block
// closure. Go has no native stackful coroutines, so this substitutes a
// goroutine parked on a handoff channel — the same substitution the
// retrieved tcard-coro package makes, adapted here to hand each coroutine
// its own Block closure instead of a single ambient yield function, so the
// scheduler never needs a "current coroutine" global.
package corelet

import (
	"fmt"
	"runtime"
)

// Resume is the alias tcard-coro uses for "run the coroutine until it
// blocks or finishes". It returns false once the coroutine has finished,
// including on the call that first observes completion.
type Resume = func() (alive bool)

// Spawn creates a coroutine running body, which receives a Block function.
// Calling Block suspends the coroutine and hands control back to whichever
// goroutine called the returned Resume; Resume must be called again to
// continue the coroutine from that point. The coroutine does not start
// running until the first Resume call.
//
// If body panics, the panic is recovered and the coroutine is treated as
// finished; onPanic, if non-nil, receives the recovered value (on the
// coroutine's own goroutine, before it exits).
func Spawn(body func(block func()), onPanic func(recovered any)) Resume {
	handoff := make(chan struct{})
	gcCollected := make(chan struct{})

	// resumeToken's address is what Resume closes over; once the Resume
	// function itself becomes unreachable, nothing can ever call it again,
	// so the finalizer firing is a reliable "leaked" signal.
	var resumeToken struct{ _ byte }
	runtime.SetFinalizer(&resumeToken, func(*struct{ _ byte }) {
		close(gcCollected)
	})

	go func() {
		defer close(handoff)
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(r)
			}
		}()

		// wait for the first Resume.
		if _, ok := <-handoff; !ok {
			return
		}

		block := func() {
			handoff <- struct{}{}
			select {
			case _, ok := <-handoff:
				if !ok {
					panic(fmt.Errorf("corelet: resumed a closed handoff"))
				}
			case <-gcCollected:
				panic(fmt.Errorf("corelet: coroutine leaked: its Resume function was garbage collected while blocked"))
			}
		}

		body(block)
	}()

	return func() (alive bool) {
		handoff <- struct{}{}
		_, alive = <-handoff
		runtime.KeepAlive(&resumeToken)
		return alive
	}
}
