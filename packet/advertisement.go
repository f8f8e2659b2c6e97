package packet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	mcprotocol "github.com/sandertv/gophertunnel/minecraft/protocol"
)

// ErrInvalidAdvertisement is returned when pong data cannot be parsed as an Advertisement.
var ErrInvalidAdvertisement = errors.New("packet: invalid server advertisement")

// Advertisement is the server status carried in the Data field of an UnconnectedPong, in the format
// Bedrock Edition clients display in their server list:
//
//	MCPE;name;protocol;version;players;max;guid;subName;gameMode;gameModeNumeric;portV4;portV6;
type Advertisement struct {
	Edition         string
	ServerName      string
	ProtocolVersion int32
	GameVersion     string
	PlayerCount     int
	MaxPlayers      int
	ServerGUID      int64
	SubName         string
	GameMode        string
	GameModeNumeric int
	PortV4          uint16
	PortV6          uint16
}

// NewAdvertisement returns an Advertisement for the current Bedrock protocol.
func NewAdvertisement(serverName string, playerCount, maxPlayers int, serverGUID int64) Advertisement {
	return Advertisement{
		Edition:         "MCPE",
		ServerName:      serverName,
		ProtocolVersion: mcprotocol.CurrentProtocol,
		GameVersion:     mcprotocol.CurrentVersion,
		PlayerCount:     playerCount,
		MaxPlayers:      maxPlayers,
		ServerGUID:      serverGUID,
		GameMode:        "Survival",
		GameModeNumeric: 1,
	}
}

// MarshalText implements encoding.TextMarshaler. It never fails; see Bytes.
func (a Advertisement) MarshalText() ([]byte, error) {
	return a.Bytes(), nil
}

// Bytes encodes the advertisement. Semicolons in text fields would break the format and are removed.
func (a Advertisement) Bytes() []byte {
	fields := []string{
		clean(a.Edition),
		clean(a.ServerName),
		strconv.Itoa(int(a.ProtocolVersion)),
		clean(a.GameVersion),
		strconv.Itoa(a.PlayerCount),
		strconv.Itoa(a.MaxPlayers),
		strconv.FormatInt(a.ServerGUID, 10),
		clean(a.SubName),
		clean(a.GameMode),
		strconv.Itoa(a.GameModeNumeric),
		strconv.Itoa(int(a.PortV4)),
		strconv.Itoa(int(a.PortV6)),
	}
	return []byte(strings.Join(fields, ";") + ";")
}

// UnmarshalText parses pong data. Only the edition, name, protocol, version and player counts are
// required; the remaining fields are optional.
func (a *Advertisement) UnmarshalText(data []byte) error {
	fields := strings.Split(strings.TrimSuffix(string(data), ";"), ";")
	if len(fields) < 6 {
		return fmt.Errorf("%w: %d fields", ErrInvalidAdvertisement, len(fields))
	}

	var out Advertisement
	out.Edition = fields[0]
	out.ServerName = fields[1]
	out.GameVersion = fields[3]

	protocolVersion, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: protocol: %v", ErrInvalidAdvertisement, err)
	}
	out.ProtocolVersion = int32(protocolVersion)
	if out.PlayerCount, err = strconv.Atoi(fields[4]); err != nil {
		return fmt.Errorf("%w: player count: %v", ErrInvalidAdvertisement, err)
	}
	if out.MaxPlayers, err = strconv.Atoi(fields[5]); err != nil {
		return fmt.Errorf("%w: max players: %v", ErrInvalidAdvertisement, err)
	}

	optional := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	out.ServerGUID, _ = strconv.ParseInt(optional(6), 10, 64)
	out.SubName = optional(7)
	out.GameMode = optional(8)
	out.GameModeNumeric, _ = strconv.Atoi(optional(9))
	portV4, _ := strconv.ParseUint(optional(10), 10, 16)
	portV6, _ := strconv.ParseUint(optional(11), 10, 16)
	out.PortV4, out.PortV6 = uint16(portV4), uint16(portV6)

	*a = out
	return nil
}

func clean(s string) string {
	return strings.ReplaceAll(s, ";", "")
}
