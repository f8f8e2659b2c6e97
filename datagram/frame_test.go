package datagram

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/cooldogedev/rakserver/protocol"
)

func TestFrameRoundTrip(t *testing.T) {
	content := []byte{0xfe, 0x01, 0x02, 0x03}
	for r := Unreliable; r <= ReliableOrderedWithAckReceipt; r++ {
		for _, split := range []*Split{nil, {Count: 3, ID: 9, Index: 2}} {
			f := &Frame{Reliability: r, Split: split, Content: content}
			if r.Reliable() {
				f.MessageIndex = 0x010203
			}
			if r.Sequenced() {
				f.SequenceIndex = 0x040506
			}
			if r.Ordered() {
				f.OrderIndex = 0x070809
				f.OrderChannel = 3
			}

			buf := &bytes.Buffer{}
			f.Write(protocol.NewWriter(buf))
			if buf.Len() != f.Len() {
				t.Fatalf("reliability %d: Len() = %d, wrote %d bytes", r, f.Len(), buf.Len())
			}

			rd := protocol.NewReader(buf.Bytes())
			out := DecodeFrame(rd)
			if rd.Err() != nil {
				t.Fatalf("reliability %d: %v", r, rd.Err())
			}
			if rd.Remaining() != 0 {
				t.Fatalf("reliability %d: %d bytes left unread", r, rd.Remaining())
			}
			if !reflect.DeepEqual(out, f) {
				t.Fatalf("reliability %d: got %+v want %+v", r, out, f)
			}
		}
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	f := &Frame{Reliability: ReliableOrdered, MessageIndex: 1, OrderIndex: 2, Content: []byte{0xaa}}
	buf := &bytes.Buffer{}
	f.Write(protocol.NewWriter(buf))
	want := []byte{
		0x60,       // reliable ordered, not split
		0x00, 0x08, // one byte, in bits
		0x01, 0x00, 0x00, // message index
		0x02, 0x00, 0x00, // order index
		0x00, // order channel
		0xaa,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x want %x", buf.Bytes(), want)
	}
}

func TestDecodeFrameEmptyContentIsEnd(t *testing.T) {
	rd := protocol.NewReader([]byte{0x00, 0x00, 0x00, 0xff})
	if u := DecodeFrame(rd); u.Len() != 0 {
		t.Fatalf("expected End, got %+v", u)
	}
	if rd.Err() != nil {
		t.Fatalf("padding must not be an error: %v", rd.Err())
	}
}

func TestDecodeFrameTruncated(t *testing.T) {
	f := &Frame{Reliability: ReliableOrdered, Split: &Split{Count: 2}, Content: []byte("payload")}
	buf := &bytes.Buffer{}
	f.Write(protocol.NewWriter(buf))
	b := buf.Bytes()
	for n := 3; n < len(b); n++ {
		rd := protocol.NewReader(b[:n])
		if u := DecodeFrame(rd); u.Len() != 0 {
			t.Fatalf("length %d: expected End, got %+v", n, u)
		}
		if rd.Err() == nil {
			t.Fatalf("length %d: expected an error", n)
		}
	}
}

func TestDatagramWithFrames(t *testing.T) {
	frames := []Unit{
		&Frame{Reliability: Unreliable, Content: []byte{1}},
		&Frame{Reliability: ReliableOrdered, MessageIndex: 4, OrderIndex: 4, Content: []byte{2, 2}},
		&Frame{Reliability: Reliable, MessageIndex: 5, Split: &Split{Count: 2, ID: 1, Index: 1}, Content: []byte{3, 3, 3}},
	}
	d := &Datagram{SequenceNumber: 12, NeedsBAndAS: true, Units: frames}
	out, err := Decode(d.Encode(), DecodeFrame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, d) {
		t.Fatalf("got %+v want %+v", out, d)
	}
}

func TestFrameContentLimit(t *testing.T) {
	fits := &Frame{Reliability: Reliable, Content: bytes.Repeat([]byte{0xaa}, MaxFrameContent)}
	if err := fits.Validate(); err != nil {
		t.Fatalf("frame at the limit rejected: %v", err)
	}
	b, err := (&Datagram{Units: []Unit{fits}}).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Decode(b, DecodeFrame)
	if err != nil || len(out.Units) != 1 {
		t.Fatalf("decode: %v, %d units", err, len(out.Units))
	}
	if got := out.Units[0].(*Frame).Content; !bytes.Equal(got, fits.Content) {
		t.Fatalf("content changed in round trip: %d bytes", len(got))
	}

	tooLarge := &Frame{Reliability: Reliable, Content: make([]byte, MaxFrameContent+1)}
	if err := tooLarge.Validate(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	d := &Datagram{Units: []Unit{tooLarge}}
	if _, err := d.Marshal(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge from Marshal, got %v", err)
	}

	// Len and Write agree even when the frame is written without validation.
	buf := &bytes.Buffer{}
	tooLarge.Write(protocol.NewWriter(buf))
	if buf.Len() != tooLarge.Len() {
		t.Fatalf("Len() = %d, wrote %d bytes", tooLarge.Len(), buf.Len())
	}
	if u := DecodeFrame(protocol.NewReader(buf.Bytes())); u.Len() == 0 {
		t.Fatalf("oversized frame decoded to End")
	}
}
