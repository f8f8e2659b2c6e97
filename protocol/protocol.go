// Package protocol implements the byte cursor shared by every RakNet codec in this module.
//
// Multi-byte integers are big endian, except for the 24-bit triads used by datagrams and frames,
// which are little endian.
package protocol

import (
	"errors"
	"net/netip"
)

var (
	// ErrUnexpectedEOF is returned when a read would go past the end of the buffer.
	ErrUnexpectedEOF = errors.New("protocol: unexpected end of data")
	// ErrInvalidMagic is returned when the offline message magic does not match.
	ErrInvalidMagic = errors.New("protocol: invalid offline message magic")
	// ErrInvalidAddress is returned when a system address has an unknown IP version.
	ErrInvalidAddress = errors.New("protocol: invalid system address")
)

// Magic is the offline message identifier carried by every unconnected packet.
var Magic = [16]byte{0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe, 0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78}

// UDPHeaderSize is the IP (20 bytes) and UDP (8 bytes) header overhead counted towards an MTU.
const UDPHeaderSize = 20 + 8

// MaxUint24 is the largest value a triad can hold.
const MaxUint24 = 1<<24 - 1

// IO is implemented by both Reader and Writer, so that a single Marshal method can encode and decode
// a packet.
type IO interface {
	Uint8(x *uint8)
	Bool(x *bool)
	Uint16(x *uint16)
	Uint32(x *uint32)
	Int64(x *int64)
	Uint24(x *uint32)
	String(x *string)
	Magic()
	Address(x *netip.AddrPort)
	// Padding reads or writes the zero padding that fills an MTU discovery packet up to mtu bytes,
	// counting the IP and UDP headers.
	Padding(mtu *uint16)
}
