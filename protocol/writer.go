package protocol

import (
	"bytes"
	"encoding/binary"
	"net/netip"
)

// Writer appends RakNet primitives to a bytes.Buffer.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter returns a Writer appending to buf.
func NewWriter(buf *bytes.Buffer) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes written to the underlying buffer.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Append writes p as is.
func (w *Writer) Append(p []byte) {
	w.buf.Write(p)
}

// Uint8 ...
func (w *Writer) Uint8(x *uint8) {
	w.buf.WriteByte(*x)
}

// Bool ...
func (w *Writer) Bool(x *bool) {
	if *x {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// Uint16 ...
func (w *Writer) Uint16(x *uint16) {
	w.buf.Write(binary.BigEndian.AppendUint16(nil, *x))
}

// Uint32 ...
func (w *Writer) Uint32(x *uint32) {
	w.buf.Write(binary.BigEndian.AppendUint32(nil, *x))
}

// Int64 ...
func (w *Writer) Int64(x *int64) {
	w.buf.Write(binary.BigEndian.AppendUint64(nil, uint64(*x)))
}

// Uint24 writes the low 24 bits of x as a little-endian triad. Higher bits are discarded.
func (w *Writer) Uint24(x *uint32) {
	v := *x
	w.buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
}

// String writes s prefixed with its length as a uint16. Strings longer than 65535 bytes are truncated.
func (w *Writer) String(x *string) {
	s := *x
	if len(s) > 0xffff {
		s = s[:0xffff]
	}
	length := uint16(len(s))
	w.Uint16(&length)
	w.buf.WriteString(s)
}

// Magic writes the offline message magic.
func (w *Writer) Magic() {
	w.buf.Write(Magic[:])
}

// Address writes a RakNet system address. IPv4-mapped IPv6 addresses are written as IPv4.
func (w *Writer) Address(x *netip.AddrPort) {
	addr := x.Addr().Unmap()
	port := x.Port()
	if !addr.IsValid() {
		addr = netip.IPv4Unspecified()
	}
	if addr.Is4() {
		ip := addr.As4()
		w.buf.Write([]byte{4, ^ip[0], ^ip[1], ^ip[2], ^ip[3]})
		w.Uint16(&port)
		return
	}

	var flowInfo, scopeID uint32
	ip := addr.As16()
	w.buf.WriteByte(6)
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, 23))
	w.Uint16(&port)
	w.Uint32(&flowInfo)
	w.buf.Write(ip[:])
	w.Uint32(&scopeID)
}

// Padding writes zero bytes until the packet, counting the IP and UDP headers, is mtu bytes long.
func (w *Writer) Padding(mtu *uint16) {
	if n := int(*mtu) - UDPHeaderSize - w.buf.Len(); n > 0 {
		w.buf.Write(make([]byte, n))
	}
}
