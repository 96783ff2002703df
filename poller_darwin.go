//go:build darwin

package coroio

import (
	"errors"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// kqueueReactor is the Reactor adapter for Darwin/BSD, built on kqueue —
// adapted from the teacher package's poller_darwin.go and wakeup_darwin.go,
// generalized the same way as poller_linux.go's epollReactor: token-keyed
// via kevent's Udata field instead of the teacher's fixed fd-array, and
// edge-triggered + one-shot via EV_CLEAR|EV_ONESHOT instead of its
// level-triggered default.
type kqueueReactor struct {
	kq int

	wakeIdent uint64

	wakeCh chan WakeMessage

	mu      sync.Mutex
	pending []WakeMessage

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func newReactor() (Reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	if _, err := unix.FcntlInt(uintptr(kq), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}

	r := &kqueueReactor{
		kq:         kq,
		wakeIdent:  wakeIdentValue,
		wakeCh:     make(chan WakeMessage, 256),
		shutdownCh: make(chan struct{}),
	}

	wake := unix.Kevent_t{
		Ident:  r.wakeIdent,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{wake}, nil, nil); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}

	go r.forward()

	return r, nil
}

// wakeIdentValue is an identifier reserved for the EVFILT_USER wake event;
// it shares the kqueue's ident namespace with registered fds, but fds are
// always small non-negative integers assigned by the OS, so a sentinel far
// outside that range never collides (mirrors the teacher's wakeupIdent
// constant in wakeup_darwin.go).
const wakeIdentValue = ^uint64(0) - 1

func (r *kqueueReactor) forward() {
	for {
		select {
		case wm, ok := <-r.wakeCh:
			if !ok {
				return
			}
			r.mu.Lock()
			r.pending = append(r.pending, wm)
			r.mu.Unlock()
			r.ping()
		case <-r.shutdownCh:
			return
		}
	}
}

func (r *kqueueReactor) ping() {
	trigger := unix.Kevent_t{
		Ident:  r.wakeIdent,
		Filter: unix.EVFILT_USER,
		Fflags: unix.NOTE_TRIGGER,
	}
	_, _ = unix.Kevent(r.kq, []unix.Kevent_t{trigger}, nil, nil)
}

func (r *kqueueReactor) Register(token Token, fd int, interest Interest) error {
	return r.apply(token, fd, interest, unix.EV_ADD)
}

func (r *kqueueReactor) Reregister(token Token, fd int, interest Interest) error {
	return r.apply(token, fd, interest, unix.EV_ADD)
}

func (r *kqueueReactor) apply(token Token, fd int, interest Interest, flags uint16) error {
	udata := identFromToken(token)
	var changes []unix.Kevent_t
	if interest.Readable || interest.Hangup {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags | unix.EV_CLEAR | unix.EV_ONESHOT,
			Udata:  udata,
		})
	} else {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  unix.EV_DELETE,
		})
	}
	if interest.Writable {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags | unix.EV_CLEAR | unix.EV_ONESHOT,
			Udata:  udata,
		})
	} else {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  unix.EV_DELETE,
		})
	}

	_, err := unix.Kevent(r.kq, changes, nil, nil)
	if errors.Is(err, unix.ENOENT) {
		return nil
	}
	return err
}

func (r *kqueueReactor) Deregister(_ Token, fd int) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	_, err := unix.Kevent(r.kq, changes, nil, nil)
	if errors.Is(err, unix.ENOENT) {
		return nil
	}
	return err
}

func (r *kqueueReactor) Wake() chan<- WakeMessage { return r.wakeCh }

func (r *kqueueReactor) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shutdownCh)
		r.ping()
	})
}

func (r *kqueueReactor) Close() error {
	close(r.wakeCh)
	return unix.Close(r.kq)
}

func (r *kqueueReactor) Run(timeout time.Duration, onReady func(PollEvent), onNotify func(WakeMessage)) error {
	var events [256]unix.Kevent_t
	ts := unix.NsecToTimespec(timeout.Nanoseconds())

	for {
		select {
		case <-r.shutdownCh:
			return nil
		default:
		}

		n, err := unix.Kevent(r.kq, nil, events[:], &ts)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		select {
		case <-r.shutdownCh:
			return nil
		default:
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.Filter == unix.EVFILT_USER {
				r.drainPending(onNotify)
				continue
			}
			onReady(kqueueEventToPollEvent(ev))
		}
	}
}

func (r *kqueueReactor) drainPending(onNotify func(WakeMessage)) {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, wm := range batch {
		onNotify(wm)
	}
}

// identFromToken stashes a Token in kevent's Udata pointer slot without
// ever dereferencing it — Udata is an opaque cookie as far as the kernel
// is concerned, so an integer disguised as a pointer round-trips safely.
func identFromToken(token Token) *byte {
	return (*byte)(unsafe.Pointer(uintptr(token)))
}

func tokenFromUdata(udata *byte) Token {
	return Token(uintptr(unsafe.Pointer(udata)))
}

func kqueueEventToPollEvent(ev unix.Kevent_t) PollEvent {
	tok := tokenFromUdata(ev.Udata)
	pe := PollEvent{Token: tok}
	switch ev.Filter {
	case unix.EVFILT_READ:
		pe.Readable = true
	case unix.EVFILT_WRITE:
		pe.Writable = true
	}
	if ev.Flags&unix.EV_EOF != 0 {
		pe.Hangup = true
	}
	if ev.Flags&unix.EV_ERROR != 0 {
		pe.Error = true
	}
	return pe
}
