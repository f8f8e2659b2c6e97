package packet

import (
	"net/netip"

	"github.com/cooldogedev/rakserver/protocol"
)

// OpenConnectionRequest2 is the second packet of the open connection handshake. A server that has not
// asked for a cookie creates a session for the sender once it receives this packet.
type OpenConnectionRequest2 struct {
	// ServerAddress is the address of the server as seen by the client. Its port is the port the
	// client connected to.
	ServerAddress netip.AddrPort
	MTU           uint16
	ClientGUID    int64
}

// ID ...
func (pk *OpenConnectionRequest2) ID() byte {
	return IDOpenConnectionRequest2
}

// Marshal ...
func (pk *OpenConnectionRequest2) Marshal(io protocol.IO) {
	io.Magic()
	io.Address(&pk.ServerAddress)
	io.Uint16(&pk.MTU)
	io.Int64(&pk.ClientGUID)
}
