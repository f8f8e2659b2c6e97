package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cooldogedev/rakserver"
)

// config.toml key mapping to server settings.
type fileConfig struct {
	Addr                      string   `toml:"addr"`
	Name                      string   `toml:"name"`
	SubName                   string   `toml:"sub_name"`
	GameMode                  string   `toml:"game_mode"`
	MaxPlayers                int      `toml:"max_players"`
	MinMTU                    uint16   `toml:"min_mtu"`
	MaxMTU                    uint16   `toml:"max_mtu"`
	SessionTimeout            int64    `toml:"session_timeout"`
	ResendOpenConnectionReply bool     `toml:"resend_open_connection_reply"`
	BlockedAddresses          []string `toml:"blocked_addresses"`
	LogLevel                  string   `toml:"log_level"`
	MetricsAddr               string   `toml:"metrics_addr"`
}

type config struct {
	Opts        rakserver.Opts
	Name        string
	SubName     string
	LogLevel    slog.Level
	MetricsAddr string
}

func defaultConfig() config {
	return config{
		Opts:     *rakserver.DefaultOpts(),
		Name:     "RakNet Server",
		LogLevel: slog.LevelInfo,
	}
}

// loadConfig reads the TOML file at path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, cfg.validate()
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Opts.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("name") {
		cfg.Name = raw.Name
	}
	if meta.IsDefined("sub_name") {
		cfg.SubName = raw.SubName
	}
	if meta.IsDefined("game_mode") {
		cfg.Opts.GameMode = strings.TrimSpace(raw.GameMode)
	}
	if meta.IsDefined("max_players") {
		cfg.Opts.MaxPlayers = raw.MaxPlayers
	}
	if meta.IsDefined("min_mtu") {
		cfg.Opts.MinMTU = raw.MinMTU
	}
	if meta.IsDefined("max_mtu") {
		cfg.Opts.MaxMTU = raw.MaxMTU
	}
	if meta.IsDefined("session_timeout") {
		cfg.Opts.SessionTimeout = raw.SessionTimeout
	}
	if meta.IsDefined("resend_open_connection_reply") {
		cfg.Opts.ResendOpenConnectionReply = raw.ResendOpenConnectionReply
	}
	if meta.IsDefined("blocked_addresses") {
		cfg.Opts.BlockedAddresses = raw.BlockedAddresses
	}
	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return config{}, fmt.Errorf("load config: log_level: %w", err)
		}
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.Opts.Addr); err != nil {
		errs = append(errs, fmt.Errorf("addr: %w", err))
	}
	if c.Opts.MaxPlayers < 0 {
		errs = append(errs, errors.New("max_players must not be negative"))
	}
	if c.Opts.MinMTU > c.Opts.MaxMTU {
		errs = append(errs, fmt.Errorf("min_mtu %d exceeds max_mtu %d", c.Opts.MinMTU, c.Opts.MaxMTU))
	}
	if c.Opts.SessionTimeout < 0 {
		errs = append(errs, errors.New("session_timeout must not be negative"))
	}
	for _, addr := range c.Opts.BlockedAddresses {
		if _, err := netip.ParseAddr(addr); err != nil {
			errs = append(errs, fmt.Errorf("blocked_addresses: %w", err))
		}
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics_addr: %w", err))
		}
	}
	return errors.Join(errs...)
}
