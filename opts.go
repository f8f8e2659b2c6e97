package rakserver

import "github.com/cooldogedev/rakserver/handshake"

type Opts struct {
	// Addr is the address to listen on.
	Addr string `toml:"addr"`
	// MaxPlayers is the player limit advertised in pongs. Open connection pings are not answered once the
	// number of sessions reaches it.
	MaxPlayers int `toml:"max_players"`
	// GameMode is the game mode advertised in pongs.
	GameMode string `toml:"game_mode"`
	// MinMTU and MaxMTU bound the MTU negotiated during the open connection handshake.
	MinMTU uint16 `toml:"min_mtu"`
	MaxMTU uint16 `toml:"max_mtu"`
	// SessionTimeout is the time in milliseconds after which a session that has not received a datagram is
	// closed. Sessions never expire if it is zero.
	SessionTimeout int64 `toml:"session_timeout"`
	// ResendOpenConnectionReply makes the server answer a repeated open connection request from a client
	// that already has a session instead of dropping it.
	ResendOpenConnectionReply bool `toml:"resend_open_connection_reply"`
	// BlockedAddresses holds IP addresses whose packets are dropped before they are decoded.
	BlockedAddresses []string `toml:"blocked_addresses"`
}

func DefaultOpts() *Opts {
	return &Opts{
		Addr:           ":19132",
		MaxPlayers:     100,
		GameMode:       "Survival",
		MinMTU:         400,
		MaxMTU:         1492,
		SessionTimeout: 10000,
	}
}

func (opts *Opts) handshakeConfig(portV4, portV6 uint16) handshake.Config {
	config := handshake.DefaultConfig()
	if opts.MinMTU != 0 {
		config.MinMTU = opts.MinMTU
	}
	if opts.MaxMTU != 0 {
		config.MaxMTU = opts.MaxMTU
	}
	if opts.GameMode != "" {
		config.GameMode = opts.GameMode
	}
	config.ResendOpenConnectionReply = opts.ResendOpenConnectionReply
	config.PortV4, config.PortV6 = portV4, portV6
	return config
}
