// Package handshake answers unconnected RakNet packets: status pings and the two step open connection
// handshake that turns a peer into an established session.
package handshake

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/cooldogedev/rakserver/metrics"
	"github.com/cooldogedev/rakserver/packet"
)

// ErrMTUTooSmall is returned for an OpenConnectionRequest2 whose MTU is below the configured minimum.
var ErrMTUTooSmall = errors.New("handshake: mtu too small")

// Server is the part of the server the dispatcher reads status from, registers clients with and sends
// replies through.
type Server interface {
	// Send writes b to addr. It must not block on the peer.
	Send(b []byte, addr netip.AddrPort) error
	GUID() int64
	Name() string
	SubName() string
	MaxPlayers() int
	PlayerCount() int
	// AddClient creates and registers a session for addr unless one exists, and reports whether it
	// did. It must be safe for concurrent use.
	AddClient(addr netip.AddrPort, mtu uint16, clientGUID int64) bool
	// ClientMTU returns the MTU of the session registered for addr.
	ClientMTU(addr netip.AddrPort) (uint16, bool)
}

// Config ...
type Config struct {
	// MinMTU and MaxMTU bound the MTU negotiated with clients.
	MinMTU uint16
	MaxMTU uint16
	// ResendOpenConnectionReply makes the dispatcher answer a repeated OpenConnectionRequest2 from a
	// client that already has a session with the reply it would have received the first time. When
	// unset, repeated requests are dropped silently.
	ResendOpenConnectionReply bool
	// GameMode and the ports are advertised in pongs.
	GameMode string
	PortV4   uint16
	PortV6   uint16
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		MinMTU:   400,
		MaxMTU:   1492,
		GameMode: "Survival",
	}
}

// Dispatcher routes unconnected packets to their handler by packet ID. It keeps no state of its own
// between packets; the session registry behind Server is the only state it reads or changes.
type Dispatcher struct {
	server  Server
	pool    packet.Pool
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(server Server, config Config, logger *slog.Logger, metrics *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		server:  server,
		pool:    packet.NewPool(),
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// HandleUnconnectedPacket handles one unconnected packet received from addr. Unknown packet IDs are
// logged and dropped. An error is returned if the packet is malformed or the reply could not be sent;
// in either case nothing else is affected.
func (d *Dispatcher) HandleUnconnectedPacket(b []byte, addr netip.AddrPort) error {
	if len(b) == 0 {
		return nil
	}
	if _, ok := d.pool[b[0]]; !ok {
		d.metrics.UnhandledPacket()
		d.logger.Debug("unimplemented unconnected packet", "id", fmt.Sprintf("0x%02x", b[0]), "addr", addr)
		return nil
	}

	pk, err := packet.Decode(b, d.pool)
	if err != nil {
		d.metrics.MalformedPacket("unconnected")
		return fmt.Errorf("handle unconnected packet from %s: %w", addr, err)
	}

	switch pk := pk.(type) {
	case *packet.UnconnectedPing:
		d.metrics.UnconnectedPacket("unconnected_ping")
		return d.handleUnconnectedPing(pk, addr)
	case *packet.OpenConnectionRequest1:
		d.metrics.UnconnectedPacket("open_connection_request_1")
		return d.handleOpenConnectionRequest1(pk, addr)
	case *packet.OpenConnectionRequest2:
		d.metrics.UnconnectedPacket("open_connection_request_2")
		return d.handleOpenConnectionRequest2(pk, addr)
	default:
		d.metrics.UnhandledPacket()
		d.logger.Debug("unexpected unconnected packet", "id", fmt.Sprintf("0x%02x", pk.ID()), "addr", addr)
		return nil
	}
}

func (d *Dispatcher) handleUnconnectedPing(pk *packet.UnconnectedPing, addr netip.AddrPort) error {
	playerCount, maxPlayers := d.server.PlayerCount(), d.server.MaxPlayers()
	if pk.OpenConnections && playerCount >= maxPlayers {
		return nil
	}

	ad := packet.NewAdvertisement(d.server.Name(), playerCount, maxPlayers, d.server.GUID())
	ad.SubName = d.server.SubName()
	if d.config.GameMode != "" {
		ad.GameMode = d.config.GameMode
	}
	ad.PortV4, ad.PortV6 = d.config.PortV4, d.config.PortV6
	return d.send(&packet.UnconnectedPong{
		PingID:     pk.PingID,
		ServerGUID: d.server.GUID(),
		Data:       ad.Bytes(),
	}, addr)
}

func (d *Dispatcher) handleOpenConnectionRequest1(pk *packet.OpenConnectionRequest1, addr netip.AddrPort) error {
	if pk.Protocol != packet.ProtocolVersion {
		d.metrics.IncompatibleProtocol()
		d.logger.Debug("incompatible protocol version", "addr", addr, "protocol", pk.Protocol)
		return d.send(&packet.IncompatibleProtocolVersion{
			ServerProtocol: packet.ProtocolVersion,
			ServerGUID:     d.server.GUID(),
		}, addr)
	}

	return d.send(&packet.OpenConnectionReply1{
		ServerGUID: d.server.GUID(),
		MTU:        min(pk.MTU, d.config.MaxMTU),
	}, addr)
}

func (d *Dispatcher) handleOpenConnectionRequest2(pk *packet.OpenConnectionRequest2, addr netip.AddrPort) error {
	mtu := min(pk.MTU, d.config.MaxMTU)
	if mtu < d.config.MinMTU {
		d.metrics.RejectedHandshake()
		return fmt.Errorf("open connection request 2 from %s: %w: %d", addr, ErrMTUTooSmall, pk.MTU)
	}

	if !d.server.AddClient(addr, mtu, pk.ClientGUID) {
		d.metrics.DuplicateHandshake()
		if !d.config.ResendOpenConnectionReply {
			return nil
		}
		if mtu, ok := d.server.ClientMTU(addr); ok {
			return d.sendOpenConnectionReply2(addr, mtu)
		}
		return nil
	}

	d.logger.Debug("created client", "addr", addr, "mtu", mtu)
	return d.sendOpenConnectionReply2(addr, mtu)
}

func (d *Dispatcher) sendOpenConnectionReply2(addr netip.AddrPort, mtu uint16) error {
	return d.send(&packet.OpenConnectionReply2{
		ServerGUID:    d.server.GUID(),
		ClientAddress: addr,
		MTU:           mtu,
	}, addr)
}

func (d *Dispatcher) send(pk packet.Packet, addr netip.AddrPort) error {
	if err := d.server.Send(packet.Encode(pk), addr); err != nil {
		return fmt.Errorf("send packet 0x%02x to %s: %w", pk.ID(), addr, err)
	}
	return nil
}
