package config

import (
	"os"
	"path/filepath"
	"testing"
)

// pointDefaultPathAway keeps tests independent of any real config file
// in the home directory.
func pointDefaultPathAway(t *testing.T) {
	t.Helper()
	t.Setenv("DISTFARM_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	pointDefaultPathAway(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image != "sccache-dist:latest" {
		t.Fatalf("unexpected image: %q", cfg.Image)
	}
	if cfg.Container != "sccache-dist" {
		t.Fatalf("unexpected container: %q", cfg.Container)
	}
	if cfg.SchedulerPort != 10600 || cfg.BuilderPort != 10501 {
		t.Fatalf("unexpected ports: %d/%d", cfg.SchedulerPort, cfg.BuilderPort)
	}
	if !cfg.Privileged {
		t.Fatalf("expected privileged by default")
	}
	if cfg.SchedulerURL() != "http://127.0.0.1:10600" {
		t.Fatalf("unexpected scheduler url: %q", cfg.SchedulerURL())
	}
	if cfg.CacheSizeBytes() != 10*1024*1024*1024 {
		t.Fatalf("unexpected cache size: %d", cfg.CacheSizeBytes())
	}
	if cfg.StopTimeoutSeconds() != 10 {
		t.Fatalf("unexpected stop timeout: %d", cfg.StopTimeoutSeconds())
	}
}

func TestLoadFile(t *testing.T) {
	pointDefaultPathAway(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "image: myfarm:v2\nschedulerPort: 20600\nprivileged: false\npublicAddr: 10.0.0.8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image != "myfarm:v2" {
		t.Fatalf("unexpected image: %q", cfg.Image)
	}
	if cfg.SchedulerPort != 20600 {
		t.Fatalf("unexpected scheduler port: %d", cfg.SchedulerPort)
	}
	if cfg.Privileged {
		t.Fatalf("expected privileged disabled")
	}
	if cfg.Container != "sccache-dist" {
		t.Fatalf("absent keys should keep defaults, got %q", cfg.Container)
	}
	if cfg.SchedulerURL() != "http://10.0.0.8:20600" {
		t.Fatalf("unexpected scheduler url: %q", cfg.SchedulerURL())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	pointDefaultPathAway(t)
	t.Setenv("SCCACHE_CONTAINER_NAME", "farm-blue")
	t.Setenv("DISTFARM_SCHEDULER_PORT", "11600")
	t.Setenv("DISTFARM_CACHE_SIZE", "2G")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Container != "farm-blue" {
		t.Fatalf("unexpected container: %q", cfg.Container)
	}
	if cfg.SchedulerPort != 11600 {
		t.Fatalf("unexpected scheduler port: %d", cfg.SchedulerPort)
	}
	if cfg.CacheSizeBytes() != 2*1024*1024*1024 {
		t.Fatalf("unexpected cache size: %d", cfg.CacheSizeBytes())
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadRejectsBadCacheSize(t *testing.T) {
	pointDefaultPathAway(t)
	t.Setenv("DISTFARM_CACHE_SIZE", "lots")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid cache size")
	}
}

func TestExpandHome(t *testing.T) {
	pointDefaultPathAway(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	home, _ := os.UserHomeDir()
	if cfg.DataDir != filepath.Join(home, ".distfarm") {
		t.Fatalf("expected expanded data dir, got %q", cfg.DataDir)
	}
}
