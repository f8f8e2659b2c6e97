package main

import (
	"log/slog"
	"os"

	"github.com/cooldogedev/rakserver"
	"github.com/cooldogedev/rakserver/datagram"
	"github.com/cooldogedev/rakserver/session"
)

// echoProcessor sends every frame it receives back to the peer unchanged.
type echoProcessor struct {
	session.NopProcessor
	logger *slog.Logger
}

func (p *echoProcessor) ProcessFrame(_ *session.Context, s *session.Session, frame *datagram.Frame) {
	if err := s.WriteDatagram(frame); err != nil {
		p.logger.Error("failed to echo frame", "addr", s.Addr(), "err", err)
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	server := rakserver.NewServer(logger, nil, rakserver.NewStatusProvider("RakNet Server", "Echo"), nil)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", "err", err)
		return
	}

	for {
		s, err := server.Accept()
		if err != nil {
			logger.Error("failed to accept session", "err", err)
			return
		}
		s.SetProcessor(&echoProcessor{logger: logger})
	}
}
