// Package datagram implements the framing of connected RakNet traffic: a header flags byte, a 24-bit
// sequence number and the encapsulated frames carried in one UDP payload.
package datagram

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cooldogedev/rakserver/protocol"
)

const (
	// FlagValid is set on every connected datagram, including ACK and NACK receipts.
	FlagValid          byte = 0x80
	FlagACK            byte = 0x40
	FlagNACK           byte = 0x20
	FlagPacketPair     byte = 0x10
	FlagContinuousSend byte = 0x08
	FlagNeedsBAndAS    byte = 0x04
)

// HeaderSize is the size of the flags byte and sequence number.
const HeaderSize = 1 + 3

var (
	ErrShortDatagram = errors.New("datagram: shorter than header")
	ErrNotDatagram   = errors.New("datagram: valid flag not set")
	// ErrAcknowledgement is returned when decoding an ACK or NACK receipt as a datagram.
	ErrAcknowledgement = errors.New("datagram: acknowledgement receipt")
)

// Datagram is a sequenced container of encapsulated units sent over an established session.
type Datagram struct {
	PacketPair     bool
	ContinuousSend bool
	NeedsBAndAS    bool

	// SequenceNumber is written as a 24-bit triad. Only its low 24 bits are encoded; wrapping the
	// counter is up to the sender.
	SequenceNumber uint32
	// Units are written and delivered in order.
	Units []Unit
}

// IsDatagram reports whether b starts like a connected datagram rather than an unconnected packet.
func IsDatagram(b []byte) bool {
	return len(b) > 0 && b[0]&FlagValid != 0
}

// Flags returns the header flags byte. FlagValid is always set.
func (d *Datagram) Flags() byte {
	flags := FlagValid
	if d.PacketPair {
		flags |= FlagPacketPair
	}
	if d.ContinuousSend {
		flags |= FlagContinuousSend
	}
	if d.NeedsBAndAS {
		flags |= FlagNeedsBAndAS
	}
	return flags
}

// Len returns the encoded size of the datagram.
func (d *Datagram) Len() int {
	n := HeaderSize
	for _, u := range d.Units {
		n += u.Len()
	}
	return n
}

// Write encodes the datagram to w.
func (d *Datagram) Write(w *protocol.Writer) {
	flags := d.Flags()
	w.Uint8(&flags)
	w.Uint24(&d.SequenceNumber)
	for _, u := range d.Units {
		u.Write(w)
	}
}

// Validate checks every unit that can refuse to be encoded and returns the first error.
func (d *Datagram) Validate() error {
	for i, u := range d.Units {
		if v, ok := u.(validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("datagram %d: unit %d: %w", d.SequenceNumber, i, err)
			}
		}
	}
	return nil
}

// Marshal validates the datagram and encodes it into a new byte slice.
func (d *Datagram) Marshal() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d.Encode(), nil
}

// Encode encodes the datagram into a new byte slice without validating its units; see Marshal.
func (d *Datagram) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, d.Len()))
	d.Write(protocol.NewWriter(buf))
	return buf.Bytes()
}

// Decode decodes a datagram from b, reading its units with dec. Units are read until b is exhausted
// or dec returns a unit of zero length, which is not included in the result. If a unit is cut short,
// the units decoded before it are returned together with an error. Decode does not retain b.
func Decode(b []byte, dec UnitDecoder) (*Datagram, error) {
	if len(b) < HeaderSize {
		return nil, ErrShortDatagram
	}

	r := protocol.NewReader(b)
	var flags uint8
	r.Uint8(&flags)
	if flags&FlagValid == 0 {
		return nil, ErrNotDatagram
	}
	if flags&(FlagACK|FlagNACK) != 0 {
		return nil, ErrAcknowledgement
	}

	d := &Datagram{
		PacketPair:     flags&FlagPacketPair != 0,
		ContinuousSend: flags&FlagContinuousSend != 0,
		NeedsBAndAS:    flags&FlagNeedsBAndAS != 0,
	}
	r.Uint24(&d.SequenceNumber)

	for !r.EOF() {
		u := dec(r)
		if u == nil || u.Len() == 0 {
			break
		}
		d.Units = append(d.Units, u)
	}
	if err := r.Err(); err != nil {
		return d, fmt.Errorf("datagram %d: decode unit %d: %w", d.SequenceNumber, len(d.Units), err)
	}
	return d, nil
}
