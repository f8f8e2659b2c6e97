package packet

import "github.com/cooldogedev/rakserver/protocol"

// UnconnectedPong answers an UnconnectedPing.
type UnconnectedPong struct {
	// PingID is the PingID of the ping being answered.
	PingID int64
	// ServerGUID is the GUID of the server.
	ServerGUID int64
	// Data is the server advertisement. See Advertisement for its format.
	Data []byte
}

// ID ...
func (pk *UnconnectedPong) ID() byte {
	return IDUnconnectedPong
}

// Marshal ...
func (pk *UnconnectedPong) Marshal(io protocol.IO) {
	io.Int64(&pk.PingID)
	io.Int64(&pk.ServerGUID)
	io.Magic()

	data := string(pk.Data)
	io.String(&data)
	pk.Data = []byte(data)
}
