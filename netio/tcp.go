// Package netio provides non-blocking TCP primitives implementing
// coroio.Evented, coroio.TryReader, coroio.TryWriter and
// coroio.TryAccepter, grounded on the teacher package's fd_unix.go
// read/write/close wrappers and generalized to full socket lifecycle
// (socket/bind/listen/accept/connect) via golang.org/x/sys/unix, the way
// the original's TCP wrapping in examples/mailboxes.rs exercises mioco's
// Evented contract.
package netio

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-coroio"
)

// TCPListener is a non-blocking TCP listening socket.
type TCPListener struct {
	fd int
}

// Listen creates a non-blocking TCP listener bound to addr (host:port).
func Listen(addr string) (*TCPListener, error) {
	sa, family, err := resolveTCPAddr(addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("netio: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: set nonblock: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: reuseaddr: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: bind: %w", err)
	}
	if err := unix.Listen(fd, 1024); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: listen: %w", err)
	}

	return &TCPListener{fd: fd}, nil
}

// FD implements coroio.Evented.
func (l *TCPListener) FD() int { return l.fd }

// Addr returns the listener's bound local address, reading it back via
// getsockname — the standard way to discover the port the kernel picked for
// an ephemeral (":0") bind, matching the teacher's own integration-test
// style of binding to port 0 and reading back the chosen address.
func (l *TCPListener) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(l.fd)
	if err != nil {
		return nil, fmt.Errorf("netio: getsockname: %w", err)
	}
	return sockaddrToTCPAddr(sa)
}

// TryAccept implements coroio.TryAccepter.
func (l *TCPListener) TryAccept() (coroio.Evented, error) {
	connFd, _, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil, coroio.ErrWouldBlock
		}
		return nil, fmt.Errorf("netio: accept: %w", err)
	}
	return &TCPConn{fd: connFd}, nil
}

// Close releases the listening socket.
func (l *TCPListener) Close() error { return unix.Close(l.fd) }

// TCPConn is a non-blocking TCP connection.
type TCPConn struct {
	fd int
}

// Dial starts a non-blocking connect to addr. The returned conn may not be
// writable yet: wrap it and Write to drive the handshake to completion, the
// same way TryWrite on any non-blocking socket reports ErrWouldBlock until
// the connect finishes (matches BSD sockets' standard non-blocking connect
// contract, which the original's Rust mio layer also relies on).
func Dial(addr string) (*TCPConn, error) {
	sa, family, err := resolveTCPAddr(addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("netio: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: set nonblock: %w", err)
	}

	err = unix.Connect(fd, sa)
	if err != nil && !errors.Is(err, unix.EINPROGRESS) {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: connect: %w", err)
	}

	return &TCPConn{fd: fd}, nil
}

// FD implements coroio.Evented.
func (c *TCPConn) FD() int { return c.fd }

// Addr returns the connection's local address, reading it back via
// getsockname.
func (c *TCPConn) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(c.fd)
	if err != nil {
		return nil, fmt.Errorf("netio: getsockname: %w", err)
	}
	return sockaddrToTCPAddr(sa)
}

// TryRead implements coroio.TryReader.
func (c *TCPConn) TryRead(buf []byte) (int, error) {
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, coroio.ErrWouldBlock
		}
		return 0, fmt.Errorf("netio: read: %w", err)
	}
	return n, nil
}

// TryWrite implements coroio.TryWriter.
func (c *TCPConn) TryWrite(buf []byte) (int, error) {
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, coroio.ErrWouldBlock
		}
		return 0, fmt.Errorf("netio: write: %w", err)
	}
	return n, nil
}

// Close releases the connection's socket.
func (c *TCPConn) Close() error { return unix.Close(c.fd) }

func resolveTCPAddr(addr string) (unix.Sockaddr, int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, 0, fmt.Errorf("netio: resolve %q: %w", addr, err)
	}

	if tcpAddr.IP == nil {
		var sa4 unix.SockaddrInet4
		sa4.Port = tcpAddr.Port
		return &sa4, unix.AF_INET, nil
	}

	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		var sa4 unix.SockaddrInet4
		sa4.Port = tcpAddr.Port
		copy(sa4.Addr[:], ip4)
		return &sa4, unix.AF_INET, nil
	}

	var sa6 unix.SockaddrInet6
	sa6.Port = tcpAddr.Port
	if tcpAddr.IP != nil {
		copy(sa6.Addr[:], tcpAddr.IP.To16())
	}
	return &sa6, unix.AF_INET6, nil
}

// sockaddrToTCPAddr converts a getsockname/getpeername result into a
// *net.TCPAddr, the same shape net.TCPListener.Addr returns.
func sockaddrToTCPAddr(sa unix.Sockaddr) (*net.TCPAddr, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}, nil
	default:
		return nil, fmt.Errorf("netio: unexpected sockaddr type %T", sa)
	}
}
