package handshake

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"testing"

	"github.com/cooldogedev/rakserver/packet"
	"github.com/cooldogedev/rakserver/protocol"
)

var clientAddr = netip.MustParseAddrPort("192.168.0.10:54321")

type reply struct {
	pk   packet.Packet
	addr netip.AddrPort
}

type fakeServer struct {
	mu         sync.Mutex
	replies    []reply
	clients    map[netip.AddrPort]uint16
	players    int
	maxPlayers int
	sendErr    error
}

func newFakeServer() *fakeServer {
	return &fakeServer{clients: map[netip.AddrPort]uint16{}, maxPlayers: 20}
}

func (s *fakeServer) Send(b []byte, addr netip.AddrPort) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	pk, err := packet.Decode(b, packet.NewPool())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply{pk: pk, addr: addr})
	return nil
}

func (s *fakeServer) GUID() int64      { return 1001 }
func (s *fakeServer) Name() string     { return "Test Server" }
func (s *fakeServer) SubName() string  { return "Lobby" }
func (s *fakeServer) MaxPlayers() int  { return s.maxPlayers }
func (s *fakeServer) PlayerCount() int { return s.players }

func (s *fakeServer) AddClient(addr netip.AddrPort, mtu uint16, _ int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[addr]; ok {
		return false
	}
	s.clients[addr] = mtu
	return true
}

func (s *fakeServer) ClientMTU(addr netip.AddrPort) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mtu, ok := s.clients[addr]
	return mtu, ok
}

func newTestDispatcher(server Server, config Config) *Dispatcher {
	return NewDispatcher(server, config, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestUnconnectedPingReturnsPong(t *testing.T) {
	server := newFakeServer()
	server.players = 3
	d := newTestDispatcher(server, DefaultConfig())

	if err := d.HandleUnconnectedPacket(packet.Encode(&packet.UnconnectedPing{PingID: 42, ClientGUID: 7}), clientAddr); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(server.replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(server.replies))
	}
	r := server.replies[0]
	pong, ok := r.pk.(*packet.UnconnectedPong)
	if !ok {
		t.Fatalf("expected pong, got %T", r.pk)
	}
	if r.addr != clientAddr {
		t.Fatalf("reply sent to %v", r.addr)
	}
	if pong.PingID != 42 || pong.ServerGUID != 1001 {
		t.Fatalf("unexpected pong %+v", pong)
	}

	var ad packet.Advertisement
	if err := ad.UnmarshalText(pong.Data); err != nil {
		t.Fatalf("advertisement: %v", err)
	}
	if ad.ServerName != "Test Server" || ad.MaxPlayers != 20 || ad.PlayerCount != 3 || ad.ServerGUID != 1001 || ad.SubName != "Lobby" {
		t.Fatalf("unexpected advertisement %+v", ad)
	}
}

func TestOpenConnectionsPingWhenFull(t *testing.T) {
	server := newFakeServer()
	server.players, server.maxPlayers = 5, 5
	d := newTestDispatcher(server, DefaultConfig())

	_ = d.HandleUnconnectedPacket(packet.Encode(&packet.UnconnectedPing{PingID: 1, OpenConnections: true}), clientAddr)
	if len(server.replies) != 0 {
		t.Fatalf("full server answered an open connections ping")
	}
	_ = d.HandleUnconnectedPacket(packet.Encode(&packet.UnconnectedPing{PingID: 1}), clientAddr)
	if len(server.replies) != 1 {
		t.Fatalf("full server must still answer regular pings")
	}
}

func TestIncompatibleProtocol(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())

	for _, version := range []byte{0, 9, 10, packet.ProtocolVersion + 1} {
		req := packet.Encode(&packet.OpenConnectionRequest1{Protocol: version, MTU: 1492})
		if err := d.HandleUnconnectedPacket(req, clientAddr); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	for _, r := range server.replies {
		pk, ok := r.pk.(*packet.IncompatibleProtocolVersion)
		if !ok {
			t.Fatalf("expected IncompatibleProtocolVersion, got %T", r.pk)
		}
		if pk.ServerProtocol != packet.ProtocolVersion || pk.ServerGUID != 1001 {
			t.Fatalf("unexpected reply %+v", pk)
		}
	}
	if len(server.replies) != 4 {
		t.Fatalf("expected 4 replies, got %d", len(server.replies))
	}
	if len(server.clients) != 0 {
		t.Fatalf("incompatible request created a session")
	}
}

func TestOpenConnectionRequest1NegotiatesMTU(t *testing.T) {
	tests := []struct {
		request, want uint16
	}{
		{1400, 1400},
		{1492, 1492},
		{1500, 1492},
	}
	for _, tc := range tests {
		server := newFakeServer()
		d := newTestDispatcher(server, DefaultConfig())
		if err := d.HandleUnconnectedPacket(packet.Encode(&packet.OpenConnectionRequest1{Protocol: packet.ProtocolVersion, MTU: tc.request}), clientAddr); err != nil {
			t.Fatalf("handle: %v", err)
		}
		pk, ok := server.replies[0].pk.(*packet.OpenConnectionReply1)
		if !ok {
			t.Fatalf("expected OpenConnectionReply1, got %T", server.replies[0].pk)
		}
		if pk.MTU != tc.want || pk.ServerGUID != 1001 || pk.Secure {
			t.Fatalf("request %d: unexpected reply %+v", tc.request, pk)
		}
	}
}

func TestOpenConnectionRequest2CreatesSession(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())

	req := packet.Encode(&packet.OpenConnectionRequest2{ServerAddress: netip.MustParseAddrPort("192.168.0.1:19132"), MTU: 1400, ClientGUID: 9})
	if err := d.HandleUnconnectedPacket(req, clientAddr); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if mtu, ok := server.clients[clientAddr]; !ok || mtu != 1400 {
		t.Fatalf("session not created with mtu 1400: %v %v", mtu, ok)
	}
	pk, ok := server.replies[0].pk.(*packet.OpenConnectionReply2)
	if !ok {
		t.Fatalf("expected OpenConnectionReply2, got %T", server.replies[0].pk)
	}
	if pk.MTU != 1400 || pk.ClientAddress != clientAddr || pk.ServerGUID != 1001 {
		t.Fatalf("unexpected reply %+v", pk)
	}
}

func TestDuplicateOpenConnectionRequest2(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())
	req := packet.Encode(&packet.OpenConnectionRequest2{MTU: 1400, ClientGUID: 9})

	for i := 0; i < 2; i++ {
		if err := d.HandleUnconnectedPacket(req, clientAddr); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(server.clients) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(server.clients))
	}
	if len(server.replies) != 1 {
		t.Fatalf("duplicate request must not be answered, got %d replies", len(server.replies))
	}
}

func TestDuplicateOpenConnectionRequest2Resend(t *testing.T) {
	server := newFakeServer()
	config := DefaultConfig()
	config.ResendOpenConnectionReply = true
	d := newTestDispatcher(server, config)

	_ = d.HandleUnconnectedPacket(packet.Encode(&packet.OpenConnectionRequest2{MTU: 1400}), clientAddr)
	_ = d.HandleUnconnectedPacket(packet.Encode(&packet.OpenConnectionRequest2{MTU: 1200}), clientAddr)

	if len(server.clients) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(server.clients))
	}
	if len(server.replies) != 2 {
		t.Fatalf("expected the reply to be resent, got %d replies", len(server.replies))
	}
	pk := server.replies[1].pk.(*packet.OpenConnectionReply2)
	if pk.MTU != 1400 {
		t.Fatalf("resent reply must carry the session MTU, got %d", pk.MTU)
	}
}

func TestConcurrentOpenConnectionRequest2(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())
	req := packet.Encode(&packet.OpenConnectionRequest2{MTU: 1400})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.HandleUnconnectedPacket(req, clientAddr)
		}()
	}
	wg.Wait()
	if len(server.clients) != 1 || len(server.replies) != 1 {
		t.Fatalf("expected one session and one reply, got %d sessions and %d replies", len(server.clients), len(server.replies))
	}
}

func TestOpenConnectionRequest2MTUTooSmall(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())

	err := d.HandleUnconnectedPacket(packet.Encode(&packet.OpenConnectionRequest2{MTU: 300}), clientAddr)
	if !errors.Is(err, ErrMTUTooSmall) {
		t.Fatalf("expected ErrMTUTooSmall, got %v", err)
	}
	if len(server.clients) != 0 || len(server.replies) != 0 {
		t.Fatalf("rejected request created state or a reply")
	}
}

func TestUnknownPacketIsDropped(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())

	for _, b := range [][]byte{{0x42}, {0x09, 0x00}, {}} {
		if err := d.HandleUnconnectedPacket(b, clientAddr); err != nil {
			t.Fatalf("unknown packet %x returned %v", b, err)
		}
	}
	// A pong is a known packet but not something a server answers.
	if err := d.HandleUnconnectedPacket(packet.Encode(&packet.UnconnectedPong{PingID: 1}), clientAddr); err != nil {
		t.Fatalf("pong returned %v", err)
	}
	if len(server.replies) != 0 {
		t.Fatalf("unhandled packets were answered")
	}
}

func TestMalformedPacket(t *testing.T) {
	server := newFakeServer()
	d := newTestDispatcher(server, DefaultConfig())

	ping := packet.Encode(&packet.UnconnectedPing{PingID: 42})
	if err := d.HandleUnconnectedPacket(ping[:10], clientAddr); !errors.Is(err, protocol.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	ping[12] ^= 0xff
	if err := d.HandleUnconnectedPacket(ping, clientAddr); !errors.Is(err, protocol.ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
	if len(server.replies) != 0 {
		t.Fatalf("malformed packets were answered")
	}
}

func TestSendError(t *testing.T) {
	server := newFakeServer()
	server.sendErr = errors.New("socket closed")
	d := newTestDispatcher(server, DefaultConfig())

	err := d.HandleUnconnectedPacket(packet.Encode(&packet.UnconnectedPing{PingID: 1}), clientAddr)
	if !errors.Is(err, server.sendErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}
