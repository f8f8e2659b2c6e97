package packet

import "github.com/cooldogedev/rakserver/protocol"

// IncompatibleProtocolVersion is sent in reply to an OpenConnectionRequest1 whose protocol version
// differs from the one supported by the server.
type IncompatibleProtocolVersion struct {
	// ServerProtocol is the protocol version supported by the server.
	ServerProtocol byte
	// ServerGUID is the GUID of the server.
	ServerGUID int64
}

// ID ...
func (pk *IncompatibleProtocolVersion) ID() byte {
	return IDIncompatibleProtocolVersion
}

// Marshal ...
func (pk *IncompatibleProtocolVersion) Marshal(io protocol.IO) {
	io.Uint8(&pk.ServerProtocol)
	io.Magic()
	io.Int64(&pk.ServerGUID)
}
