package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cooldogedev/rakserver/datagram"
	"github.com/cooldogedev/rakserver/protocol"
)

var (
	ErrDatagramTooLarge = errors.New("session: datagram exceeds MTU")
	ErrSessionClosed    = errors.New("session: closed")
)

// Sender writes a UDP payload to addr.
type Sender interface {
	Send(b []byte, addr netip.AddrPort) error
}

// Session is the server side state of a peer that completed the open connection handshake.
type Session struct {
	addr       netip.AddrPort
	mtu        uint16
	clientGUID int64

	sender   Sender
	logger   *slog.Logger
	registry *Registry

	processor   Processor
	processorMu sync.RWMutex

	sequence     atomic.Uint32
	lastActivity atomic.Int64

	once   sync.Once
	closed atomic.Bool
}

// NewSession creates a session for the peer at addr using the MTU negotiated during the handshake.
// The session is not registered until it is passed to Registry.AddSession.
func NewSession(addr netip.AddrPort, mtu uint16, clientGUID int64, sender Sender, logger *slog.Logger, registry *Registry) *Session {
	s := &Session{
		addr:       addr,
		mtu:        mtu,
		clientGUID: clientGUID,

		sender:   sender,
		logger:   logger,
		registry: registry,

		processor: NopProcessor{},
	}
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

// HandleDatagram decodes a connected datagram received from the peer and passes its frames to the
// processor. Frames decoded before a malformed one are still delivered. ACK and NACK receipts are
// ignored.
func (s *Session) HandleDatagram(b []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.lastActivity.Store(time.Now().UnixNano())

	d, err := datagram.Decode(b, datagram.DecodeFrame)
	if errors.Is(err, datagram.ErrAcknowledgement) {
		return nil
	}
	if d == nil {
		return err
	}

	processor := s.Processor()
	ctx := NewContext()
	for _, u := range d.Units {
		frame, ok := u.(*datagram.Frame)
		if !ok {
			continue
		}
		processor.ProcessFrame(ctx, s, frame)
		if ctx.Cancelled() {
			break
		}
	}
	return err
}

// WriteDatagram sends units to the peer in a single datagram with the next sequence number. It fails
// with ErrDatagramTooLarge if the datagram does not fit in the negotiated MTU, and with
// datagram.ErrFrameTooLarge if a frame cannot be encoded. A rejected datagram uses no sequence number.
func (s *Session) WriteDatagram(units ...datagram.Unit) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	d := &datagram.Datagram{Units: units}
	if err := d.Validate(); err != nil {
		return err
	}
	if size, limit := d.Len(), int(s.mtu)-protocol.UDPHeaderSize; size > limit {
		return fmt.Errorf("%w: %d > %d", ErrDatagramTooLarge, size, limit)
	}
	d.SequenceNumber = (s.sequence.Add(1) - 1) & protocol.MaxUint24
	return s.sender.Send(d.Encode(), s.addr)
}

// Addr returns the address of the peer.
func (s *Session) Addr() netip.AddrPort {
	return s.addr
}

// MTU returns the MTU negotiated during the handshake.
func (s *Session) MTU() uint16 {
	return s.mtu
}

// ClientGUID returns the GUID the client sent in its second open connection request.
func (s *Session) ClientGUID() int64 {
	return s.clientGUID
}

// LastActivity returns the time the session was created or last received a datagram.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) Processor() Processor {
	s.processorMu.RLock()
	defer s.processorMu.RUnlock()
	return s.processor
}

func (s *Session) SetProcessor(processor Processor) {
	s.processorMu.Lock()
	defer s.processorMu.Unlock()
	s.processor = processor
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close removes the session from its registry and notifies the processor. Subsequent calls are no-ops.
func (s *Session) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.registry.RemoveSession(s)
		s.Processor().ProcessClose(s)
		s.logger.Debug("closed session", "addr", s.addr)
	})
}
