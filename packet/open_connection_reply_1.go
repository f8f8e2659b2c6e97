package packet

import "github.com/cooldogedev/rakserver/protocol"

// OpenConnectionReply1 accepts the protocol version of an OpenConnectionRequest1 and tells the client
// the MTU size the server agreed on.
type OpenConnectionReply1 struct {
	ServerGUID int64
	// Secure is set if the server requires a cookie in the second request. Cookie is only present
	// on the wire if Secure is set.
	Secure bool
	Cookie uint32
	MTU    uint16
}

// ID ...
func (pk *OpenConnectionReply1) ID() byte {
	return IDOpenConnectionReply1
}

// Marshal ...
func (pk *OpenConnectionReply1) Marshal(io protocol.IO) {
	io.Magic()
	io.Int64(&pk.ServerGUID)
	io.Bool(&pk.Secure)
	if pk.Secure {
		io.Uint32(&pk.Cookie)
	}
	io.Uint16(&pk.MTU)
}
