//go:build !linux && !darwin

package coroio

import "fmt"

// newReactor reports an error on platforms without an epoll/kqueue adapter.
// The teacher package itself only ships Linux and Darwin pollers; porting a
// third (e.g. IOCP for Windows) is out of scope here — see DESIGN.md.
func newReactor() (Reactor, error) {
	return nil, fmt.Errorf("coroio: no reactor implementation for this platform")
}
