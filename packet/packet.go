package packet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cooldogedev/rakserver/internal"
	"github.com/cooldogedev/rakserver/protocol"
)

// ErrUnknownPacket is returned by Decode for an ID that has no factory in the pool.
var ErrUnknownPacket = errors.New("packet: unknown packet ID")

// Packet represents an unconnected RakNet packet. It defines methods for identifying the packet and
// for marshalling its body, which is used for both encoding and decoding.
type Packet interface {
	// ID returns the identifier written as the first byte of the packet.
	ID() byte
	// Marshal reads or writes the body of the packet, excluding the ID, using io.
	Marshal(io protocol.IO)
}

// Encode encodes pk into a new byte slice that starts with the packet ID.
func Encode(pk Packet) []byte {
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	w := protocol.NewWriter(buf)
	id := pk.ID()
	w.Uint8(&id)
	pk.Marshal(w)
	return bytes.Clone(buf.Bytes())
}

// Decode decodes the packet in b using the packets registered in pool. Trailing bytes after the body
// are ignored. Decode does not retain b.
func Decode(b []byte, pool Pool) (Packet, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("read packet ID: %w", protocol.ErrUnexpectedEOF)
	}

	factory, ok := pool[b[0]]
	if !ok {
		return nil, fmt.Errorf("%w 0x%02x", ErrUnknownPacket, b[0])
	}

	r := protocol.NewReader(b)
	var id uint8
	r.Uint8(&id)

	pk := factory()
	pk.Marshal(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode packet 0x%02x: %w", id, err)
	}
	return pk, nil
}
