// Package sccache generates and reads sccache-dist configuration.
//
// Three TOML documents are involved: the scheduler config and the
// server config mounted into the farm container, and the client config
// under ~/.config/sccache. The field set mirrors what sccache 0.7.x
// accepts.
package sccache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// ClientConfig is the sccache client configuration file. Only the
// [dist] section matters for distributed compilation.
type ClientConfig struct {
	Dist Dist `toml:"dist"`
}

// Dist is the [dist] section of the client config.
type Dist struct {
	SchedulerURL       string `toml:"scheduler_url"`
	CacheDir           string `toml:"cache_dir,omitempty"`
	ToolchainCacheSize int64  `toml:"toolchain_cache_size,omitempty"`
	Auth               Auth   `toml:"auth"`
}

// Auth is a token auth block. The same shape appears as [dist.auth] in
// the client config, [client_auth] in the scheduler config and
// [scheduler_auth] in the server config.
type Auth struct {
	Type  string `toml:"type"`
	Token string `toml:"token,omitempty"`
}

// SchedulerConfig is scheduler.conf for sccache-dist.
type SchedulerConfig struct {
	PublicAddr string     `toml:"public_addr"`
	ClientAuth Auth       `toml:"client_auth"`
	ServerAuth ServerAuth `toml:"server_auth"`
}

// ServerAuth configures HS256 JWT authentication of build servers.
type ServerAuth struct {
	Type      string `toml:"type"`
	SecretKey string `toml:"secret_key"`
}

// ServerConfig is server.conf for sccache-dist.
type ServerConfig struct {
	CacheDir           string  `toml:"cache_dir"`
	ToolchainCacheSize int64   `toml:"toolchain_cache_size"`
	PublicAddr         string  `toml:"public_addr"`
	SchedulerURL       string  `toml:"scheduler_url"`
	Builder            Builder `toml:"builder"`
	SchedulerAuth      Auth    `toml:"scheduler_auth"`
}

// Builder configures the overlay builder.
type Builder struct {
	Type      string `toml:"type"`
	BuildDir  string `toml:"build_dir"`
	BwrapPath string `toml:"bwrap_path"`
}

// NewSchedulerConfig builds scheduler.conf for a scheduler listening on
// schedulerPort inside the container.
func NewSchedulerConfig(schedulerPort int, m *Material) *SchedulerConfig {
	return &SchedulerConfig{
		PublicAddr: fmt.Sprintf("0.0.0.0:%d", schedulerPort),
		ClientAuth: Auth{Type: "token", Token: m.Token},
		ServerAuth: ServerAuth{Type: "jwt_hs256", SecretKey: m.SecretKey},
	}
}

// ServerParams collects the knobs NewServerConfig needs.
type ServerParams struct {
	// PublicAddr is the host address clients reach the builder on.
	PublicAddr    string
	BuilderPort   int
	SchedulerPort int
	ToolchainDir  string
	BuildDir      string
	CacheSize     int64
	BwrapPath     string
}

// NewServerConfig builds server.conf. The scheduler runs in the same
// container, so the server reaches it over loopback. The advertised
// public_addr must be reachable by clients, which submit jobs to the
// build server directly, and it is pinned inside the signed scheduler
// auth token.
func NewServerConfig(p ServerParams, m *Material) (*ServerConfig, error) {
	addr := fmt.Sprintf("%s:%d", p.PublicAddr, p.BuilderPort)
	token, err := SignServerToken(m.SecretKey, addr)
	if err != nil {
		return nil, err
	}
	bwrap := p.BwrapPath
	if bwrap == "" {
		bwrap = "/usr/bin/bwrap"
	}
	return &ServerConfig{
		CacheDir:           p.ToolchainDir,
		ToolchainCacheSize: p.CacheSize,
		PublicAddr:         addr,
		SchedulerURL:       fmt.Sprintf("http://127.0.0.1:%d", p.SchedulerPort),
		Builder:            Builder{Type: "overlay", BuildDir: p.BuildDir, BwrapPath: bwrap},
		SchedulerAuth:      Auth{Type: "jwt_token", Token: token},
	}, nil
}

// NewClientConfig builds the suggested client config for a farm.
// cache_dir and toolchain_cache_size are left to sccache's defaults.
func NewClientConfig(schedulerURL, token string) *ClientConfig {
	return &ClientConfig{Dist: Dist{
		SchedulerURL: schedulerURL,
		Auth:         Auth{Type: "token", Token: token},
	}}
}

// Render returns the TOML encoding.
func (c *ClientConfig) Render() ([]byte, error) { return toml.Marshal(c) }

// Render returns the TOML encoding.
func (c *SchedulerConfig) Render() ([]byte, error) { return toml.Marshal(c) }

// Render returns the TOML encoding.
func (c *ServerConfig) Render() ([]byte, error) { return toml.Marshal(c) }

// ParseClientConfig parses client config TOML.
func ParseClientConfig(data []byte) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig reads and parses a client config file.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseClientConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadServerConfig reads back a generated server.conf.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &ServerConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultClientConfigPath returns where the sccache client looks for
// its config: $SCCACHE_CONF if set, otherwise ~/.config/sccache/config.
func DefaultClientConfigPath() string {
	if path := os.Getenv("SCCACHE_CONF"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sccache", "config")
}
