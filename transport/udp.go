package transport

import "net"

// UDP implements the Transport interface on top of a plain UDP socket.
type UDP struct {
	readBuffer  int
	writeBuffer int
}

// NewUDP creates a new UDP transport instance.
func NewUDP() *UDP {
	return &UDP{
		readBuffer:  1024 * 1024 * 8,
		writeBuffer: 1024 * 1024 * 8,
	}
}

// Listen ...
func (u *UDP) Listen(addr string) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}

	if udpConn, ok := conn.(*net.UDPConn); ok {
		_ = udpConn.SetReadBuffer(u.readBuffer)
		_ = udpConn.SetWriteBuffer(u.writeBuffer)
	}
	return conn, nil
}
