// Package framesock implements length-prefixed framing over a TCP
// net.Conn, and best-effort datagram send/recv over a UDP net.PacketConn,
// grounded on original_source/src/net_socket.c's net_socket_send/recv.
package framesock

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
)

// ErrPeerClosed is returned when a peer closes the connection mid-frame
// (a recv of 0 bytes in the original C implementation).
var ErrPeerClosed = errors.New("framesock: peer closed connection")

// TCPConn wraps a net.Conn with length-prefixed framing: every message on
// the wire is a big-endian uint32 length followed by exactly that many
// bytes.
type TCPConn struct {
	net.Conn
}

// NewTCPConn wraps an established TCP connection.
func NewTCPConn(c net.Conn) *TCPConn {
	return &TCPConn{Conn: c}
}

// SendFrame writes a length-prefixed message, looping on partial writes
// and retrying on interruptible short writes exactly as
// net_socket_tcp_send does.
func (t *TCPConn) SendFrame(payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if err := t.writeAll(hdr[:]); err != nil {
		return err
	}
	return t.writeAll(payload)
}

func (t *TCPConn) writeAll(b []byte) error {
	for len(b) > 0 {
		n, err := t.Conn.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPeerClosed
		}
		b = b[n:]
	}
	return nil
}

// RecvFrame reads exactly 4 bytes for the length, then exactly that many
// payload bytes, looping on partial reads (net_socket_tcp_recv).
func (t *TCPConn) RecvFrame() ([]byte, error) {
	var hdr [4]byte
	if err := t.readAll(hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])

	payload := make([]byte, n)
	if n > 0 {
		if err := t.readAll(payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (t *TCPConn) readAll(b []byte) error {
	_, err := io.ReadFull(t.Conn, b)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrPeerClosed
	}
	return err
}

// UDPConn wraps a net.PacketConn for best-effort, one-datagram-per-call
// send/recv (net_socket_udp_send/recv). There is no framing: the caller's
// buffer size bounds how much of an oversized datagram is read.
type UDPConn struct {
	net.PacketConn
	addr net.Addr
}

// NewUDPConn wraps a packet connection bound to addr for subsequent sends.
func NewUDPConn(c net.PacketConn, addr net.Addr) *UDPConn {
	return &UDPConn{PacketConn: c, addr: addr}
}

// Send writes one datagram to the configured peer address.
func (u *UDPConn) Send(payload []byte) error {
	n, err := u.WriteTo(payload, u.addr)
	if err != nil {
		return err
	}
	if n <= 0 {
		return ErrPeerClosed
	}
	return nil
}

// Recv reads one datagram into buf, returning the slice actually
// received (clamped to len(buf), matching net_socket_udp_recv).
func (u *UDPConn) Recv(buf []byte) ([]byte, net.Addr, error) {
	n, addr, err := u.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, addr, ErrPeerClosed
	}
	return buf[:n], addr, nil
}
