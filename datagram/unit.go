package datagram

import "github.com/cooldogedev/rakserver/protocol"

// Unit is one encapsulated message carried by a Datagram. Its length on the wire must follow from its
// own header.
type Unit interface {
	// Len returns the number of bytes the unit occupies on the wire. A zero length marks the end of
	// the units in a datagram.
	Len() int
	// Write encodes the unit to w.
	Write(w *protocol.Writer)
}

// validator is implemented by units that can refuse to be encoded, such as a Frame with too much content.
type validator interface {
	Validate() error
}

// UnitDecoder reads one unit from r, advancing it by exactly the bytes the unit occupies. It returns End
// if no unit could be read.
type UnitDecoder func(r *protocol.Reader) Unit

// End is the zero-length unit returned by a UnitDecoder when no further unit can be read.
var End Unit = end{}

type end struct{}

// Len ...
func (end) Len() int { return 0 }

// Write ...
func (end) Write(*protocol.Writer) {}
