package packet

import "github.com/cooldogedev/rakserver/protocol"

// UnconnectedPing is sent by clients to discover servers and query their status before connecting.
type UnconnectedPing struct {
	// PingID identifies the ping and is echoed back in the pong. Clients usually send the time in
	// milliseconds at which the ping was sent.
	PingID int64
	// ClientGUID is the random GUID of the client.
	ClientGUID int64
	// OpenConnections is set for pings that only expect an answer from servers with free slots.
	OpenConnections bool
}

// ID ...
func (pk *UnconnectedPing) ID() byte {
	if pk.OpenConnections {
		return IDUnconnectedPingOpenConnections
	}
	return IDUnconnectedPing
}

// Marshal ...
func (pk *UnconnectedPing) Marshal(io protocol.IO) {
	io.Int64(&pk.PingID)
	io.Magic()
	io.Int64(&pk.ClientGUID)
}
