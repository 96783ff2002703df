package coroio

// Sender is a clonable, thread-safe handle that routes messages to one
// particular TypedEventSource's notified object (spec §3 Message, §4.3
// "channel"/"send"). Unlike a TypedEventSource, a Sender carries no
// reference to the owning coroutine and is safe to hand to any goroutine,
// including ones outside the runtime entirely.
type Sender struct {
	token Token
	wake  chan<- WakeMessage
}

// Send enqueues msg for delivery to the Notified source this Sender was
// created from. It returns ErrClosed if the runtime has already shut down.
func (s *Sender) Send(msg any) (err error) {
	defer func() {
		// A send after (or racing) the reactor's Close hits a closed wake
		// channel; recover converts that into ErrClosed instead of a
		// panic, since send-after-shutdown is an expected race for any
		// caller outside the runtime, not a programmer error.
		if recover() != nil {
			err = ErrClosed
		}
	}()
	s.wake <- WakeMessage{Token: s.token, Payload: msg}
	return nil
}
