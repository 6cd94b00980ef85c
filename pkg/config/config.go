package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for distfarm.
type Config struct {
	// Image is the tag the farm image is built as and run from.
	Image string `yaml:"image"`
	// Container is the name of the farm container.
	Container string `yaml:"container"`
	// SchedulerPort is the sccache-dist scheduler HTTP port.
	SchedulerPort int `yaml:"schedulerPort"`
	// BuilderPort is the sccache-dist build server port.
	BuilderPort int `yaml:"builderPort"`
	// PublicAddr is the address clients use to reach the farm.
	PublicAddr string `yaml:"publicAddr"`
	// DataDir holds generated configs and auth material on the host.
	DataDir string `yaml:"dataDir"`
	// CacheSize is the toolchain cache budget, e.g. "10G".
	CacheSize string `yaml:"cacheSize"`
	// BuildDir is the overlay build directory inside the container.
	BuildDir string `yaml:"buildDir"`
	// ToolchainDir is the toolchain cache directory inside the container.
	ToolchainDir string `yaml:"toolchainDir"`
	// BuildContext is the docker build context for the farm image.
	BuildContext string `yaml:"buildContext"`
	// Dockerfile is the Dockerfile path relative to BuildContext.
	Dockerfile string `yaml:"dockerfile"`
	// Privileged runs the container privileged. The overlay builder
	// needs mount and unshare permissions that plain containers lack.
	Privileged bool `yaml:"privileged"`
	// StopTimeout is how long to wait for a clean shutdown.
	StopTimeout string `yaml:"stopTimeout"`
	LogLevel    string `yaml:"logLevel"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Image:         "sccache-dist:latest",
		Container:     "sccache-dist",
		SchedulerPort: 10600,
		BuilderPort:   10501,
		PublicAddr:    "127.0.0.1",
		DataDir:       "~/.distfarm",
		CacheSize:     "10G",
		BuildDir:      "/tmp/build",
		ToolchainDir:  "/tmp/toolchains",
		BuildContext:  ".",
		Dockerfile:    "deploy/Dockerfile",
		Privileged:    true,
		StopTimeout:   "10s",
		LogLevel:      "info",
	}
}

// Load reads configuration from a YAML file and environment overrides.
// An empty path means the default location, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !os.IsNotExist(err):
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(cfg)

	cfg.DataDir = expandHome(cfg.DataDir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if image := os.Getenv("DISTFARM_IMAGE"); image != "" {
		cfg.Image = image
	}
	if name := os.Getenv("SCCACHE_CONTAINER_NAME"); name != "" {
		cfg.Container = name
	}
	if addr := os.Getenv("DISTFARM_PUBLIC_ADDR"); addr != "" {
		cfg.PublicAddr = addr
	}
	if dir := os.Getenv("DISTFARM_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if size := os.Getenv("DISTFARM_CACHE_SIZE"); size != "" {
		cfg.CacheSize = size
	}
	if level := os.Getenv("DISTFARM_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if port := os.Getenv("DISTFARM_SCHEDULER_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			cfg.SchedulerPort = v
		}
	}
	if port := os.Getenv("DISTFARM_BUILDER_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			cfg.BuilderPort = v
		}
	}
	if priv := os.Getenv("DISTFARM_PRIVILEGED"); priv != "" {
		if v, err := strconv.ParseBool(priv); err == nil {
			cfg.Privileged = v
		}
	}
}

func (c *Config) validate() error {
	if c.Container == "" {
		return fmt.Errorf("container name is required")
	}
	if c.SchedulerPort <= 0 || c.SchedulerPort > 65535 {
		return fmt.Errorf("invalid scheduler port: %d", c.SchedulerPort)
	}
	if c.BuilderPort <= 0 || c.BuilderPort > 65535 {
		return fmt.Errorf("invalid builder port: %d", c.BuilderPort)
	}
	if _, err := units.RAMInBytes(c.CacheSize); err != nil {
		return fmt.Errorf("invalid cache size %q: %w", c.CacheSize, err)
	}
	if _, err := time.ParseDuration(c.StopTimeout); err != nil {
		return fmt.Errorf("invalid stop timeout %q: %w", c.StopTimeout, err)
	}
	return nil
}

// CacheSizeBytes returns CacheSize parsed into bytes.
func (c *Config) CacheSizeBytes() int64 {
	n, err := units.RAMInBytes(c.CacheSize)
	if err != nil {
		return 0
	}
	return n
}

// StopTimeoutSeconds returns StopTimeout in whole seconds.
func (c *Config) StopTimeoutSeconds() int {
	d, err := time.ParseDuration(c.StopTimeout)
	if err != nil {
		return 10
	}
	return int(d / time.Second)
}

// SchedulerURL is the scheduler endpoint as seen by clients.
func (c *Config) SchedulerURL() string {
	return fmt.Sprintf("http://%s:%d", c.PublicAddr, c.SchedulerPort)
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("DISTFARM_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".distfarm", "config.yaml")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
