package coroio

import (
	"errors"
	"testing"
	"time"
)

type testMailbox struct {
	ch chan any
}

func (m *testMailbox) OnNotify(h *Handle, msg any) {
	m.ch <- msg
}

// TestNotifiedRoundTrip exercises WrapNotified/Channel/Send/WaitNotify
// (spec §4.3 "channel"/"wait_notify", scenario S3): a message sent on a
// Sender must reach OnNotify and unblock WaitNotify without ever touching
// the reactor (spec invariant I6).
func TestNotifiedRoundTrip(t *testing.T) {
	received := make(chan any, 1)
	mb := &testMailbox{ch: received}

	err := Start(func(h *Handle) error {
		src := h.WrapNotified(mb)
		sender := src.Channel()
		if err := sender.Send("hello"); err != nil {
			return err
		}
		src.WaitNotify()
		return nil
	}, WithPollTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case msg := <-received:
		if msg != "hello" {
			t.Fatalf("OnNotify got %v, want %q", msg, "hello")
		}
	default:
		t.Fatalf("OnNotify was never called")
	}
}

// TestSpawnOrdering exercises spec §4.3 spawn: a spawned child must not
// run until its parent next yields or returns (scenario S5).
func TestSpawnOrdering(t *testing.T) {
	var order []string

	err := Start(func(h *Handle) error {
		order = append(order, "parent:before-spawn")
		h.Spawn(func(h *Handle) error {
			order = append(order, "child:ran")
			return nil
		})
		order = append(order, "parent:after-spawn")
		return nil
	}, WithPollTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	want := []string{"parent:before-spawn", "parent:after-spawn", "child:ran"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestRootErrorSurfaced verifies Start returns the root coroutine's error,
// the one deliberate deviation from the original (which discards it).
func TestRootErrorSurfaced(t *testing.T) {
	wantErr := errors.New("boom")
	err := Start(func(h *Handle) error {
		return wantErr
	}, WithPollTimeout(5*time.Millisecond))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Start() = %v, want %v", err, wantErr)
	}
}

// TestRootPanicRecovered verifies a panicking coroutine body surfaces as
// an error instead of crashing the runtime (spec §9 panic safety).
func TestRootPanicRecovered(t *testing.T) {
	err := Start(func(h *Handle) error {
		panic("kaboom")
	}, WithPollTimeout(5*time.Millisecond))
	if err == nil {
		t.Fatalf("Start() = nil, want a recovered-panic error")
	}
}

// TestSelectFromForeignIndexPanics verifies SelectFrom panics on an index
// this coroutine does not own (spec §7 kind 5). The panic happens inside
// the coroutine body, where runBody's recover converts it into Start's
// returned error.
func TestSelectFromForeignIndexPanics(t *testing.T) {
	err := Start(func(h *Handle) error {
		h.SelectFrom([]EventSourceIndex{0})
		return nil
	}, WithPollTimeout(5*time.Millisecond))
	if !errors.Is(err, ErrForeignIndex) {
		t.Fatalf("Start() = %v, want an error wrapping ErrForeignIndex", err)
	}
}

// TestTooManySourcesPanics verifies wrapping beyond maxSourcesPerCoroutine
// sources panics with ErrTooManySources (spec §7 kind 2), surfaced the
// same way as above.
func TestTooManySourcesPanics(t *testing.T) {
	err := Start(func(h *Handle) error {
		for i := 0; i < maxSourcesPerCoroutine+1; i++ {
			h.WrapNotified(&testMailbox{ch: make(chan any, 1)})
		}
		return nil
	}, WithPollTimeout(5*time.Millisecond))
	if !errors.Is(err, ErrTooManySources) {
		t.Fatalf("Start() = %v, want an error wrapping ErrTooManySources", err)
	}
}

// reentrantMailbox calls back into a blocking primitive from inside
// OnNotify, which spec §7 kind 5 calls a programmer error.
type reentrantMailbox struct{}

func (reentrantMailbox) OnNotify(h *Handle, msg any) {
	h.Select()
}

// TestReentrantNotifyPanics verifies a blocking call from inside OnNotify
// panics with ErrReentrantNotify (spec §7 kind 5). OnNotify runs on the
// runtime thread, outside any coroutine body's recover, so this panic
// propagates out of Start itself rather than becoming a returned error —
// consistent with spec §7 treating programmer errors as free to panic.
func TestReentrantNotifyPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r != ErrReentrantNotify {
			t.Fatalf("recover() = %v, want ErrReentrantNotify", r)
		}
	}()

	_ = Start(func(h *Handle) error {
		src := h.WrapNotified(reentrantMailbox{})
		if err := src.Send("x"); err != nil {
			return err
		}
		src.WaitNotify()
		return nil
	}, WithPollTimeout(5*time.Millisecond))

	t.Fatalf("Start returned without panicking")
}
