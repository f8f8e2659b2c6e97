package packet

import "github.com/cooldogedev/rakserver/protocol"

// OpenConnectionRequest1 is the first packet of the open connection handshake. The client pads it with
// zeroes so that its size, including the IP and UDP headers, equals the MTU it wants to try.
type OpenConnectionRequest1 struct {
	// Protocol is the RakNet protocol version of the client.
	Protocol byte
	// MTU is the MTU size the client is probing for.
	MTU uint16
}

// ID ...
func (pk *OpenConnectionRequest1) ID() byte {
	return IDOpenConnectionRequest1
}

// Marshal ...
func (pk *OpenConnectionRequest1) Marshal(io protocol.IO) {
	io.Magic()
	io.Uint8(&pk.Protocol)
	io.Padding(&pk.MTU)
}
