package coroio

import "fmt"

// dispatcher is the event-loop-side handler (spec §2 item 6 / §4.5-§4.7).
// It owns nothing beyond a reference to the shared runtime state; all of
// its methods run on the single runtime thread.
type dispatcher struct {
	sh *shared
}

// dispatchReady handles a Ready(token, events) callback from the reactor
// (spec §4.5).
func (d *dispatcher) dispatchReady(ev PollEvent) {
	src, ok := d.sh.sources.Get(ev.Token)
	if !ok {
		// The coroutine that owned this token already finished and
		// deregistered it between event emission and delivery (spec §9).
		d.sh.logger.Trace().Uint64(`token`, uint64(ev.Token)).Log("coroio: dispatch: ignoring ready event for unknown token")
		return
	}

	if ev.Hangup {
		src.peerHup = true
	}

	// Error folds into both directions rather than getting its own branch:
	// the reactor only reports that the fd is in an error state, not what
	// the error is, so the coroutine must be woken to discover it the
	// ordinary way, via the errno its next Read/Write/Accept call gets
	// back (spec §7 kind 1 — I/O errors are returned verbatim from user
	// code, not diagnosed by the dispatcher).
	readable := ev.Readable || ev.Hangup || ev.Error
	writable := ev.Writable || ev.Error
	var mode Mode
	switch {
	case readable && writable:
		mode = ModeBoth
	case readable:
		mode = ModeRead
	case writable:
		mode = ModeWrite
	default:
		panic(fmt.Errorf("coroio: protocol violation: ready event for token=%d with no bits set", ev.Token))
	}

	owner := src.owner
	idx := src.index

	owner.blockedOn &^= 1 << uint(idx)
	owner.state = stateRunning
	owner.lastEvent = LastEvent{Index: idx, Mode: mode}

	d.resumeAndMaintain(owner)
}

// dispatchNotify handles a Notify((token, msg)) callback from the reactor's
// wake channel (spec §4.6).
func (d *dispatcher) dispatchNotify(wm WakeMessage) {
	src, ok := d.sh.sources.Get(wm.Token)
	if !ok || src.kind != kindNotified {
		d.sh.logger.Trace().Uint64(`token`, uint64(wm.Token)).Log("coroio: dispatch: ignoring notify for unknown/non-notified token")
		return
	}

	owner := src.owner
	handle := &Handle{coroutine: owner}
	owner.inNotify = true
	src.notified.OnNotify(handle, wm.Payload)
	owner.inNotify = false

	idx := src.index
	owner.blockedOn &^= 1 << uint(idx)
	owner.state = stateRunning
	// last_event is NOT updated for Notify (spec §4.6).

	d.resumeAndMaintain(owner)
}

// resumeAndMaintain resumes c's coroutine and runs post-resume maintenance
// on whatever it returns control to (spec §4.7).
func (d *dispatcher) resumeAndMaintain(c *Coroutine) {
	c.resume()
	d.afterResume(c)
}

// afterResume is the dispatcher's fix-up pass after any resume that returns
// control: start freshly spawned children, then either finalize (if
// Finished) or arm/disarm sources per the new blocked_on (spec §4.7).
func (d *dispatcher) afterResume(c *Coroutine) {
	children := c.childrenToStart
	c.childrenToStart = nil
	for _, child := range children {
		child.resume()
		d.afterResume(child)
	}

	if c.state == stateFinished {
		d.finalize(c)
		return
	}

	d.armingPass(c)
}

// finalize tears down every source a finished coroutine owns, decrements
// the live-coroutine count, and asks the reactor to shut down once it
// reaches zero (spec §3 Coroutine lifecycle, §4.7).
func (d *dispatcher) finalize(c *Coroutine) {
	for _, tok := range c.sources {
		src, ok := d.sh.sources.Get(tok)
		if !ok {
			continue
		}
		if src.kind == kindEvented && src.registered {
			if err := d.sh.reactor.Deregister(tok, src.FD()); err != nil {
				d.sh.logger.Warning().Uint64(`token`, uint64(tok)).Err(err).Log("coroio: deregister failed during finalize")
			}
		}
		d.sh.sources.Remove(tok)
	}

	d.sh.coroutinesNo--
	if d.sh.coroutinesNo == 0 {
		d.sh.logger.Debug().Log("coroio: shutting down: 0 coroutines left")
		d.sh.reactor.Shutdown()
	}
}

// armingPass implements spec §4.4's suspension/arming protocol for a
// coroutine that just blocked (not finished).
func (d *dispatcher) armingPass(c *Coroutine) {
	mode := c.blockedMode
	for i, tok := range c.sources {
		bit := uint64(1) << uint(i)
		src, ok := d.sh.sources.Get(tok)
		if !ok {
			continue
		}

		switch {
		case c.blockedOn&bit != 0:
			d.arm(src, mode)
		case c.currentlyRegistered&bit != 0:
			d.disarm(src)
		}
	}

	c.currentlyRegistered = c.blockedOn
	c.blockedOn = 0
}

// arm registers or re-registers src for mode, honoring sticky peer-hangup
// (spec §4.4).
func (d *dispatcher) arm(src *EventSource, mode Mode) {
	if src.kind != kindEvented {
		// Notified source: no reactor call at all (spec invariant I6).
		return
	}

	interest := Interest{}
	if !src.peerHup {
		interest.Hangup = true
		if mode.HasRead() {
			interest.Readable = true
		}
	}
	if mode.HasWrite() {
		interest.Writable = true
	}

	var err error
	if !src.registered {
		err = d.sh.reactor.Register(src.token, src.FD(), interest)
		src.registered = true
	} else {
		err = d.sh.reactor.Reregister(src.token, src.FD(), interest)
	}
	if err != nil {
		panic(fmt.Errorf("coroio: reactor arm failed for token=%d: %w", src.token, err))
	}
}

// disarm re-registers src with empty interest, so it stops delivering
// events the owning coroutine no longer cares about (spec §4.4).
func (d *dispatcher) disarm(src *EventSource) {
	if src.kind != kindEvented || !src.registered {
		return
	}
	if err := d.sh.reactor.Reregister(src.token, src.FD(), Interest{}); err != nil {
		panic(fmt.Errorf("coroio: reactor disarm failed for token=%d: %w", src.token, err))
	}
}
