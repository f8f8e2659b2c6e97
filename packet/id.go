package packet

const (
	IDUnconnectedPing                byte = 0x01
	IDUnconnectedPingOpenConnections byte = 0x02
	IDOpenConnectionRequest1         byte = 0x05
	IDOpenConnectionReply1           byte = 0x06
	IDOpenConnectionRequest2         byte = 0x07
	IDOpenConnectionReply2           byte = 0x08
	IDIncompatibleProtocolVersion    byte = 0x19
	IDUnconnectedPong                byte = 0x1c
)

// ProtocolVersion is the RakNet protocol version supported by this server. Open connection requests
// carrying any other version are answered with IncompatibleProtocolVersion.
const ProtocolVersion byte = 11
