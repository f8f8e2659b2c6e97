package packet

import (
	"bytes"
	"errors"
	"net/netip"
	"reflect"
	"testing"

	"github.com/cooldogedev/rakserver/protocol"
)

func TestControlPacketRoundTrip(t *testing.T) {
	pool := NewPool()
	tests := []struct {
		name string
		pk   Packet
	}{
		{"unconnected ping", &UnconnectedPing{PingID: 42, ClientGUID: -7}},
		{"unconnected ping open connections", &UnconnectedPing{PingID: 1 << 40, ClientGUID: 99, OpenConnections: true}},
		{"unconnected pong", &UnconnectedPong{PingID: 42, ServerGUID: 1234, Data: []byte("MCPE;Server;766;1.21.50;0;20;")}},
		{"incompatible protocol version", &IncompatibleProtocolVersion{ServerProtocol: ProtocolVersion, ServerGUID: 1234}},
		{"open connection request 1", &OpenConnectionRequest1{Protocol: ProtocolVersion, MTU: 1492}},
		{"open connection reply 1", &OpenConnectionReply1{ServerGUID: 1234, MTU: 1400}},
		{"open connection reply 1 secure", &OpenConnectionReply1{ServerGUID: 1234, Secure: true, Cookie: 0xcafebabe, MTU: 1400}},
		{"open connection request 2", &OpenConnectionRequest2{ServerAddress: netip.MustParseAddrPort("10.0.0.2:19132"), MTU: 1400, ClientGUID: 77}},
		{"open connection request 2 ipv6", &OpenConnectionRequest2{ServerAddress: netip.MustParseAddrPort("[2001:db8::2]:19133"), MTU: 1200, ClientGUID: 77}},
		{"open connection reply 2", &OpenConnectionReply2{ServerGUID: 1234, ClientAddress: netip.MustParseAddrPort("10.0.0.3:50000"), MTU: 1400}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := Encode(tc.pk)
			if b[0] != tc.pk.ID() {
				t.Fatalf("first byte %#x does not match ID %#x", b[0], tc.pk.ID())
			}
			out, err := Decode(b, pool)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(out, tc.pk) {
				t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", out, tc.pk)
			}
		})
	}
}

func TestUnconnectedPingWireFormat(t *testing.T) {
	b := Encode(&UnconnectedPing{PingID: 42, ClientGUID: 1})
	if len(b) != 1+8+16+8 {
		t.Fatalf("unexpected length %d", len(b))
	}
	if b[0] != 0x01 {
		t.Fatalf("unexpected ID %#x", b[0])
	}
	if !bytes.Equal(b[1:9], []byte{0, 0, 0, 0, 0, 0, 0, 42}) {
		t.Fatalf("ping ID must be big endian: %x", b[1:9])
	}
	if !bytes.Equal(b[9:25], protocol.Magic[:]) {
		t.Fatalf("magic missing: %x", b[9:25])
	}
}

func TestOpenConnectionRequest1PadsToMTU(t *testing.T) {
	b := Encode(&OpenConnectionRequest1{Protocol: ProtocolVersion, MTU: 1200})
	if len(b)+protocol.UDPHeaderSize != 1200 {
		t.Fatalf("expected packet of %d bytes, got %d", 1200-protocol.UDPHeaderSize, len(b))
	}
	if b[17] != ProtocolVersion {
		t.Fatalf("protocol byte misplaced: %#x", b[17])
	}
}

func TestDecodeUnknownID(t *testing.T) {
	_, err := Decode([]byte{0x42, 0x00}, NewPool())
	if !errors.Is(err, ErrUnknownPacket) {
		t.Fatalf("expected ErrUnknownPacket, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(nil, NewPool())
	if !errors.Is(err, protocol.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	b := Encode(&OpenConnectionRequest2{ServerAddress: netip.MustParseAddrPort("10.0.0.2:19132"), MTU: 1400, ClientGUID: 77})
	for n := 1; n < len(b); n++ {
		if _, err := Decode(b[:n], NewPool()); !errors.Is(err, protocol.ErrUnexpectedEOF) {
			t.Fatalf("length %d: expected ErrUnexpectedEOF, got %v", n, err)
		}
	}
}

func TestDecodeBadMagic(t *testing.T) {
	b := Encode(&UnconnectedPing{PingID: 1})
	b[9] ^= 0xff
	if _, err := Decode(b, NewPool()); !errors.Is(err, protocol.ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestDecodeDoesNotRetainInput(t *testing.T) {
	b := Encode(&UnconnectedPong{PingID: 1, Data: []byte("MCPE;a;1;1;0;1;")})
	pk, err := Decode(b, NewPool())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range b {
		b[i] = 0
	}
	if string(pk.(*UnconnectedPong).Data) != "MCPE;a;1;1;0;1;" {
		t.Fatalf("decoded data aliases the input buffer")
	}
}

func TestPoolIsACopy(t *testing.T) {
	pool := NewPool()
	delete(pool, IDUnconnectedPing)
	if _, ok := NewPool()[IDUnconnectedPing]; !ok {
		t.Fatalf("modifying a pool must not affect the registered packets")
	}
}
