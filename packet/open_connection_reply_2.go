package packet

import (
	"net/netip"

	"github.com/cooldogedev/rakserver/protocol"
)

// OpenConnectionReply2 completes the open connection handshake.
type OpenConnectionReply2 struct {
	ServerGUID int64
	// ClientAddress is the address the server received the request from.
	ClientAddress netip.AddrPort
	MTU           uint16
	Secure        bool
}

// ID ...
func (pk *OpenConnectionReply2) ID() byte {
	return IDOpenConnectionReply2
}

// Marshal ...
func (pk *OpenConnectionReply2) Marshal(io protocol.IO) {
	io.Magic()
	io.Int64(&pk.ServerGUID)
	io.Address(&pk.ClientAddress)
	io.Uint16(&pk.MTU)
	io.Bool(&pk.Secure)
}
