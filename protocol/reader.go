package protocol

import (
	"bytes"
	"encoding/binary"
	"net/netip"
)

// Reader is a cursor over a borrowed byte slice. The first failing read records an error, after which
// every read is a no-op that leaves its target zeroed. Callers check Err once decoding is done.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Err returns the first error encountered while reading, if any.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// EOF reports whether the reader has consumed every byte or has failed.
func (r *Reader) EOF() bool {
	return r.err != nil || r.off >= len(r.buf)
}

// Next consumes n bytes and returns a copy of them, so the result stays valid after the underlying
// buffer is reused.
func (r *Reader) Next(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

// Uint8 ...
func (r *Reader) Uint8(x *uint8) {
	if b := r.take(1); b != nil {
		*x = b[0]
		return
	}
	*x = 0
}

// Bool ...
func (r *Reader) Bool(x *bool) {
	var v uint8
	r.Uint8(&v)
	*x = v != 0
}

// Uint16 ...
func (r *Reader) Uint16(x *uint16) {
	if b := r.take(2); b != nil {
		*x = binary.BigEndian.Uint16(b)
		return
	}
	*x = 0
}

// Uint32 ...
func (r *Reader) Uint32(x *uint32) {
	if b := r.take(4); b != nil {
		*x = binary.BigEndian.Uint32(b)
		return
	}
	*x = 0
}

// Int64 ...
func (r *Reader) Int64(x *int64) {
	if b := r.take(8); b != nil {
		*x = int64(binary.BigEndian.Uint64(b))
		return
	}
	*x = 0
}

// Uint24 reads a little-endian triad.
func (r *Reader) Uint24(x *uint32) {
	if b := r.take(3); b != nil {
		*x = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		return
	}
	*x = 0
}

// String reads a string prefixed with its length as a uint16.
func (r *Reader) String(x *string) {
	var length uint16
	r.Uint16(&length)
	if b := r.take(int(length)); b != nil {
		*x = string(b)
		return
	}
	*x = ""
}

// Magic consumes the offline message magic and fails with ErrInvalidMagic if it does not match.
func (r *Reader) Magic() {
	b := r.take(len(Magic))
	if b == nil {
		return
	}
	if !bytes.Equal(b, Magic[:]) {
		r.fail(ErrInvalidMagic)
	}
}

// Address reads a RakNet system address.
func (r *Reader) Address(x *netip.AddrPort) {
	*x = netip.AddrPort{}

	var version uint8
	r.Uint8(&version)
	switch version {
	case 4:
		b := r.take(4)
		if b == nil {
			return
		}
		ip := [4]byte{^b[0], ^b[1], ^b[2], ^b[3]}
		var port uint16
		r.Uint16(&port)
		if r.err == nil {
			*x = netip.AddrPortFrom(netip.AddrFrom4(ip), port)
		}
	case 6:
		// Address family, little endian.
		r.take(2)
		var port uint16
		var flowInfo, scopeID uint32
		r.Uint16(&port)
		r.Uint32(&flowInfo)
		b := r.take(16)
		r.Uint32(&scopeID)
		if r.err == nil {
			*x = netip.AddrPortFrom(netip.AddrFrom16([16]byte(b)), port)
		}
	default:
		if r.err == nil {
			r.fail(ErrInvalidAddress)
		}
	}
}

// Padding consumes the rest of the buffer and derives the MTU from the full packet length.
func (r *Reader) Padding(mtu *uint16) {
	if r.err != nil {
		*mtu = 0
		return
	}
	*mtu = uint16(len(r.buf) + UDPHeaderSize)
	r.off = len(r.buf)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.fail(ErrUnexpectedEOF)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
