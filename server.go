package rakserver

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/cooldogedev/rakserver/datagram"
	"github.com/cooldogedev/rakserver/handshake"
	"github.com/cooldogedev/rakserver/metrics"
	"github.com/cooldogedev/rakserver/protocol"
	"github.com/cooldogedev/rakserver/session"
	tr "github.com/cooldogedev/rakserver/transport"
	"github.com/sandertv/gophertunnel/minecraft"
)

// maxPacketSize is the smallest buffer packets are read into. It fits any datagram a peer may send
// within the largest MTU a client probes with. Servers allowing a larger MTU read into a buffer of that
// MTU minus the IP and UDP headers, so an OpenConnectionRequest1 up to the MTU is never truncated.
const maxPacketSize = 1500

// Server answers unconnected RakNet packets on a UDP socket and routes connected datagrams to the
// sessions established through the open connection handshake.
type Server struct {
	transport tr.Transport
	status    minecraft.ServerStatusProvider

	conn       net.PacketConn
	connMu     sync.RWMutex
	registry   *session.Registry
	dispatcher *handshake.Dispatcher
	blocked    *blocklist
	guid       int64
	readSize   int
	expireOnce sync.Once

	sessions chan *session.Session
	closed   chan struct{}
	once     sync.Once

	logger  *slog.Logger
	metrics *metrics.Metrics
	opts    Opts
}

// NewServer creates a server. opts, status and metrics may be nil, in which case defaults are used and
// no metrics are recorded.
func NewServer(logger *slog.Logger, opts *Opts, status minecraft.ServerStatusProvider, m *metrics.Metrics) *Server {
	if opts == nil {
		opts = DefaultOpts()
	}

	if status == nil {
		status = NewStatusProvider("RakNet Server", "")
	}

	s := &Server{
		transport: tr.NewUDP(),
		status:    status,

		registry: session.NewRegistry(),
		blocked:  newBlocklist(opts.BlockedAddresses),
		guid:     rand.Int64(),
		readSize: readBufferSize(opts.MaxMTU),

		sessions: make(chan *session.Session, 64),
		closed:   make(chan struct{}),

		logger:  logger,
		metrics: m,
		opts:    *opts,
	}
	port := listenPort(opts.Addr)
	s.dispatcher = handshake.NewDispatcher(s, opts.handshakeConfig(port, port), logger, m)
	m.TrackSessions(s.registry.Len)
	return s
}

// Listen binds the configured address and serves it in the background.
func (s *Server) Listen() error {
	conn, err := s.transport.Listen(s.opts.Addr)
	if err != nil {
		s.logger.Error("failed to listen", "err", err)
		return err
	}

	s.setConn(conn)
	s.logger.Info("started listening", "addr", conn.LocalAddr())
	go func() {
		if err := s.Serve(conn); err != nil {
			s.logger.Error("stopped serving", "err", err)
		}
	}()
	return nil
}

// Serve reads packets from conn until it is closed. It returns nil once the server or conn is closed.
func (s *Server) Serve(conn net.PacketConn) error {
	s.startExpiry()
	s.setConn(conn)

	buf := make([]byte, s.readSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.isClosed() {
				return nil
			}
			s.logger.Debug("failed to read packet", "err", err)
			continue
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		ap := udpAddr.AddrPort()
		s.handlePacket(buf[:n], netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()))
	}
}

func (s *Server) handlePacket(b []byte, addr netip.AddrPort) {
	if len(b) == 0 {
		return
	}

	if s.blocked.has(addr.Addr()) {
		s.metrics.BlockedPacket()
		return
	}

	if datagram.IsDatagram(b) {
		sess := s.registry.GetSession(addr)
		if sess == nil {
			return
		}

		s.metrics.Datagram()
		if err := sess.HandleDatagram(b); err != nil && !errors.Is(err, session.ErrSessionClosed) {
			s.metrics.MalformedPacket("datagram")
			s.logger.Debug("failed to handle datagram", "addr", addr, "err", err)
		}
		return
	}

	if err := s.dispatcher.HandleUnconnectedPacket(b, addr); err != nil {
		s.logger.Debug("failed to handle unconnected packet", "addr", addr, "err", err)
	}
}

// startExpiry starts the loop closing idle sessions unless it is already running or sessions never
// expire. It reports whether the loop was started.
func (s *Server) startExpiry() bool {
	if s.opts.SessionTimeout <= 0 {
		return false
	}

	var started bool
	s.expireOnce.Do(func() {
		started = true
		go s.expire(time.Duration(s.opts.SessionTimeout) * time.Millisecond)
	})
	return started
}

func (s *Server) expire(timeout time.Duration) {
	ticker := time.NewTicker(min(timeout, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-s.closed:
			return
		case now := <-ticker.C:
			s.expireSessions(now, timeout)
		}
	}
}

func (s *Server) expireSessions(now time.Time, timeout time.Duration) {
	for _, sess := range s.registry.GetSessions() {
		if now.Sub(sess.LastActivity()) >= timeout {
			s.logger.Debug("session timed out", "addr", sess.Addr())
			sess.Close()
		}
	}
}

// Accept waits for the next session established through the handshake. It returns net.ErrClosed once
// the server is closed.
func (s *Server) Accept() (*session.Session, error) {
	select {
	case sess := <-s.sessions:
		return sess, nil
	case <-s.closed:
		return nil, net.ErrClosed
	}
}

// Send writes b to addr through the server's socket.
func (s *Server) Send(b []byte, addr netip.AddrPort) error {
	conn := s.getConn()
	if conn == nil {
		return net.ErrClosed
	}

	_, err := conn.WriteTo(b, net.UDPAddrFromAddrPort(addr))
	return err
}

func (s *Server) GUID() int64 {
	return s.guid
}

func (s *Server) Name() string {
	return s.currentStatus().ServerName
}

func (s *Server) SubName() string {
	return s.currentStatus().ServerSubName
}

func (s *Server) MaxPlayers() int {
	return s.currentStatus().MaxPlayers
}

func (s *Server) PlayerCount() int {
	return s.currentStatus().PlayerCount
}

func (s *Server) currentStatus() minecraft.ServerStatus {
	return s.status.ServerStatus(s.registry.Len(), s.opts.MaxPlayers)
}

// HasClient reports whether a session is registered for addr.
func (s *Server) HasClient(addr netip.AddrPort) bool {
	return s.registry.HasSession(addr)
}

// AddClient creates and registers a session for addr unless one already exists. New sessions are
// queued for Accept; if nobody is accepting and the queue is full, the session stays registered but is
// not queued.
func (s *Server) AddClient(addr netip.AddrPort, mtu uint16, clientGUID int64) bool {
	sess := session.NewSession(addr, mtu, clientGUID, s, s.logger, s.registry)
	if !s.registry.AddSession(sess) {
		return false
	}

	s.metrics.SessionCreated()
	select {
	case s.sessions <- sess:
	default:
		s.logger.Warn("accept queue full", "addr", addr)
	}
	return true
}

// ClientMTU returns the MTU of the session registered for addr.
func (s *Server) ClientMTU(addr netip.AddrPort) (uint16, bool) {
	sess := s.registry.GetSession(addr)
	if sess == nil {
		return 0, false
	}
	return sess.MTU(), true
}

// Block drops every packet from ip until Unblock is called. Sessions already established by ip are
// closed.
func (s *Server) Block(ip netip.Addr) {
	s.blocked.add(ip)
	for _, sess := range s.registry.GetSessions() {
		if sess.Addr().Addr().Unmap() == ip.Unmap() {
			sess.Close()
		}
	}
}

func (s *Server) Unblock(ip netip.Addr) {
	s.blocked.remove(ip)
}

// Blocked returns the blocked IP addresses.
func (s *Server) Blocked() []string {
	return s.blocked.list()
}

// Addr returns the local address of the socket, or nil if the server is not serving.
func (s *Server) Addr() net.Addr {
	conn := s.getConn()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

func (s *Server) Opts() Opts {
	return s.opts
}

func (s *Server) Registry() *session.Registry {
	return s.registry
}

func (s *Server) Transport() tr.Transport {
	return s.transport
}

// SetTransport replaces the transport Listen binds with. It must be called before Listen.
func (s *Server) SetTransport(transport tr.Transport) {
	s.transport = transport
}

// Close closes every session and the socket.
func (s *Server) Close() (err error) {
	s.once.Do(func() {
		close(s.closed)
		for _, sess := range s.registry.GetSessions() {
			sess.Close()
		}

		if conn := s.getConn(); conn != nil {
			err = conn.Close()
		}
	})
	return err
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) setConn(conn net.PacketConn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conn = conn
}

func (s *Server) getConn() net.PacketConn {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

func readBufferSize(maxMTU uint16) int {
	return max(maxPacketSize, int(maxMTU)-protocol.UDPHeaderSize)
}

func listenPort(addr string) uint16 {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}

	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}
