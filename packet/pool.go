package packet

// packets maps packet IDs to their respective factory functions.
var packets = map[byte]func() Packet{}

// Register registers a packet factory function for a given ID.
func Register(id byte, factory func() Packet) {
	packets[id] = factory
}

// Pool is a map holding packet factory functions indexed by their ID.
type Pool map[byte]func() Packet

// NewPool creates a new Pool populated with registered packet factories.
func NewPool() Pool {
	pool := Pool{}
	for id, factory := range packets {
		pool[id] = factory
	}
	return pool
}

func init() {
	Register(IDUnconnectedPing, func() Packet { return &UnconnectedPing{} })
	Register(IDUnconnectedPingOpenConnections, func() Packet { return &UnconnectedPing{OpenConnections: true} })
	Register(IDUnconnectedPong, func() Packet { return &UnconnectedPong{} })
	Register(IDIncompatibleProtocolVersion, func() Packet { return &IncompatibleProtocolVersion{} })
	Register(IDOpenConnectionRequest1, func() Packet { return &OpenConnectionRequest1{} })
	Register(IDOpenConnectionReply1, func() Packet { return &OpenConnectionReply1{} })
	Register(IDOpenConnectionRequest2, func() Packet { return &OpenConnectionRequest2{} })
	Register(IDOpenConnectionReply2, func() Packet { return &OpenConnectionReply2{} })
}
