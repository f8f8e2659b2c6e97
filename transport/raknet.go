package transport

import (
	"context"
	"fmt"

	"github.com/cooldogedev/rakserver/packet"
	"github.com/sandertv/go-raknet"
)

// RakNet queries RakNet servers for their status from the client side.
type RakNet struct{}

func NewRakNet() *RakNet {
	return &RakNet{}
}

// Ping sends an unconnected ping to addr and returns the raw pong data.
func (r *RakNet) Ping(ctx context.Context, addr string) ([]byte, error) {
	return raknet.PingContext(ctx, addr)
}

// Status pings addr and parses the pong data as an advertisement.
func (r *RakNet) Status(ctx context.Context, addr string) (packet.Advertisement, error) {
	data, err := r.Ping(ctx, addr)
	if err != nil {
		return packet.Advertisement{}, err
	}

	var ad packet.Advertisement
	if err := ad.UnmarshalText(data); err != nil {
		return packet.Advertisement{}, fmt.Errorf("ping %s: %w", addr, err)
	}
	return ad, nil
}
