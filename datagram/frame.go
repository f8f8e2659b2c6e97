package datagram

import (
	"errors"
	"fmt"

	"github.com/cooldogedev/rakserver/protocol"
)

// MaxFrameContent is the largest content a Frame can carry: its length is written in bits as a uint16.
const MaxFrameContent = 0xffff >> 3

// ErrFrameTooLarge is returned by Frame.Validate for content longer than MaxFrameContent.
var ErrFrameTooLarge = errors.New("datagram: frame content too large")

// Reliability is the delivery guarantee of a Frame, stored in the top three bits of its header.
type Reliability uint8

const (
	Unreliable Reliability = iota
	UnreliableSequenced
	Reliable
	ReliableOrdered
	ReliableSequenced
	UnreliableWithAckReceipt
	ReliableWithAckReceipt
	ReliableOrderedWithAckReceipt
)

// Reliable reports whether frames of this reliability carry a message index.
func (r Reliability) Reliable() bool {
	switch r {
	case Reliable, ReliableOrdered, ReliableSequenced, ReliableWithAckReceipt, ReliableOrderedWithAckReceipt:
		return true
	}
	return false
}

// Sequenced reports whether frames of this reliability carry a sequence index.
func (r Reliability) Sequenced() bool {
	return r == UnreliableSequenced || r == ReliableSequenced
}

// Ordered reports whether frames of this reliability carry an order index and channel. Sequenced frames
// are ordered too.
func (r Reliability) Ordered() bool {
	switch r {
	case UnreliableSequenced, ReliableOrdered, ReliableSequenced, ReliableOrderedWithAckReceipt:
		return true
	}
	return false
}

const (
	frameSplitFlag       = 0x10
	frameReliabilityBits = 5
)

// Split describes the position of a Frame within a message split over several frames.
type Split struct {
	Count uint32
	ID    uint16
	Index uint32
}

// Frame is an encapsulated message. The fields that are present on the wire depend on its Reliability
// and on whether it is part of a split message.
type Frame struct {
	Reliability   Reliability
	MessageIndex  uint32
	SequenceIndex uint32
	OrderIndex    uint32
	OrderChannel  uint8
	Split         *Split
	Content       []byte
}

// Validate returns ErrFrameTooLarge if the content does not fit the length field of the frame header.
func (f *Frame) Validate() error {
	if len(f.Content) > MaxFrameContent {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(f.Content), MaxFrameContent)
	}
	return nil
}

// Len returns the encoded size of the frame. Like Write, it counts at most MaxFrameContent bytes of
// content.
func (f *Frame) Len() int {
	n := 1 + 2
	if f.Reliability.Reliable() {
		n += 3
	}
	if f.Reliability.Sequenced() {
		n += 3
	}
	if f.Reliability.Ordered() {
		n += 3 + 1
	}
	if f.Split != nil {
		n += 4 + 2 + 4
	}
	return n + len(f.content())
}

// Write encodes the frame to w. Content beyond MaxFrameContent is not written; callers that must not
// lose content check Validate first.
func (f *Frame) Write(w *protocol.Writer) {
	content := f.content()
	header := uint8(f.Reliability) << frameReliabilityBits
	if f.Split != nil {
		header |= frameSplitFlag
	}
	w.Uint8(&header)

	bits := uint16(len(content)) << 3
	w.Uint16(&bits)
	if f.Reliability.Reliable() {
		w.Uint24(&f.MessageIndex)
	}
	if f.Reliability.Sequenced() {
		w.Uint24(&f.SequenceIndex)
	}
	if f.Reliability.Ordered() {
		w.Uint24(&f.OrderIndex)
		w.Uint8(&f.OrderChannel)
	}
	if f.Split != nil {
		w.Uint32(&f.Split.Count)
		w.Uint16(&f.Split.ID)
		w.Uint32(&f.Split.Index)
	}
	w.Append(content)
}

func (f *Frame) content() []byte {
	if len(f.Content) > MaxFrameContent {
		return f.Content[:MaxFrameContent]
	}
	return f.Content
}

// DecodeFrame is the UnitDecoder for Frames. A frame with no content marks the end of the frames in a
// datagram, as does a frame cut short, in which case the reader holds the error.
func DecodeFrame(r *protocol.Reader) Unit {
	var header uint8
	r.Uint8(&header)

	var bits uint16
	r.Uint16(&bits)
	length := (int(bits) + 7) >> 3
	if r.Err() != nil || length == 0 {
		return End
	}

	f := &Frame{Reliability: Reliability(header >> frameReliabilityBits)}
	if f.Reliability.Reliable() {
		r.Uint24(&f.MessageIndex)
	}
	if f.Reliability.Sequenced() {
		r.Uint24(&f.SequenceIndex)
	}
	if f.Reliability.Ordered() {
		r.Uint24(&f.OrderIndex)
		r.Uint8(&f.OrderChannel)
	}
	if header&frameSplitFlag != 0 {
		f.Split = &Split{}
		r.Uint32(&f.Split.Count)
		r.Uint16(&f.Split.ID)
		r.Uint32(&f.Split.Index)
	}
	f.Content = r.Next(length)
	if r.Err() != nil {
		return End
	}
	return f
}
