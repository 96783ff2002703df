// Package coroio implements a cooperative coroutine runtime layered on top
// of a single-threaded, edge-triggered, readiness-based I/O reactor.
//
// User code writes straight-line, blocking-style handlers that perform
// network and message I/O. The runtime multiplexes many such handlers onto
// one operating-system thread by suspending each one whenever its current
// I/O source is not ready, and resuming it when the reactor signals
// readiness.
//
// # Model
//
// Exactly one coroutine runs at any instant. A coroutine only yields at one
// of the blocking primitives on [Handle] or [TypedEventSource]: Read,
// Write, Accept, Select (and variants), or WaitNotify. Everything else
// (plain Go function calls, CPU work) runs to completion without giving
// other coroutines a chance to run — blocking on real (non-coroio) I/O from
// inside a coroutine body stalls the whole runtime.
//
// # Usage
//
//	coroio.Start(func(h *coroio.Handle) error {
//	    ln, err := netio.Listen("127.0.0.1:0")
//	    if err != nil {
//	        return err
//	    }
//	    lnSrc := h.Wrap(ln)
//	    for {
//	        raw, err := lnSrc.Accept()
//	        if err != nil {
//	            return err
//	        }
//	        h.Spawn(func(h *coroio.Handle) error {
//	            connSrc := h.Wrap(raw)
//	            buf := make([]byte, 4096)
//	            for {
//	                n, err := connSrc.Read(buf)
//	                if n == 0 || err != nil {
//	                    return err
//	                }
//	                if _, err := connSrc.Write(buf[:n]); err != nil {
//	                    return err
//	                }
//	            }
//	        })
//	    }
//	})
package coroio
