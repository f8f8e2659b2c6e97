package transport

import "net"

// Transport defines an interface for opening the packet connection a server receives datagrams on.
type Transport interface {
	// Listen opens a packet connection bound to the specified address.
	// It returns an error if the address cannot be bound.
	Listen(addr string) (net.PacketConn, error)
}
