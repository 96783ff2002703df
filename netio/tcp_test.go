//go:build linux || darwin

package netio

import (
	"testing"
	"time"

	"github.com/joeycumines/go-coroio"
)

// TestEchoServer drives a full Listen/Accept/Read/Write/Dial round trip
// through the coroio runtime, the Go analogue of the original's
// examples/mailboxes.rs echo scenario.
func TestEchoServer(t *testing.T) {
	done := make(chan struct{})
	var serverErr error

	go func() {
		defer close(done)
		serverErr = coroio.Start(func(h *coroio.Handle) error {
			ln, err := Listen("127.0.0.1:0")
			if err != nil {
				return err
			}
			defer ln.Close()

			addr, err := ln.Addr()
			if err != nil {
				return err
			}

			lnSrc := h.Wrap(ln)

			h.Spawn(func(h *coroio.Handle) error {
				conn, err := Dial(addr.String())
				if err != nil {
					return err
				}
				connSrc := h.Wrap(conn)
				if _, err := connSrc.Write([]byte("ping")); err != nil {
					return err
				}
				buf := make([]byte, 4)
				if _, err := connSrc.Read(buf); err != nil {
					return err
				}
				if string(buf) != "ping" {
					t.Errorf("expected echoed %q, got %q", "ping", buf)
				}
				return nil
			})

			raw, err := lnSrc.Accept()
			if err != nil {
				return err
			}
			acceptedSrc := h.Wrap(raw)

			buf := make([]byte, 4)
			if _, err := acceptedSrc.Read(buf); err != nil {
				return err
			}
			if _, err := acceptedSrc.Write(buf); err != nil {
				return err
			}
			return nil
		}, coroio.WithPollTimeout(10*time.Millisecond))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("echo scenario timed out")
	}

	if serverErr != nil {
		t.Fatalf("Start returned error: %v", serverErr)
	}
}
