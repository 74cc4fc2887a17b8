/*
config.go - Server configuration

Defaults cover local development; a TOML file overrides them. Flags
override the file (see main.go), so `-port` always wins.
*/
package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Gateway  GatewayConfig  `toml:"gateway"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for in-memory.
	Path string `toml:"path"`
}

type GatewayConfig struct {
	// Mode selects the payment gateway implementation. Only "sandbox" is
	// built in; real gateways are wired at deploy time.
	Mode string `toml:"mode"`
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "booking.db"},
		Gateway:  GatewayConfig{Mode: "sandbox"},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}
