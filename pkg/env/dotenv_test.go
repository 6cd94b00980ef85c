package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SCCACHE_DIST_TOKEN=abc123\n# comment\nexport SCCACHE_SCHEDULER_URL=\"http://10.0.0.5:10600\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	_ = os.Unsetenv("SCCACHE_DIST_TOKEN")
	_ = os.Unsetenv("SCCACHE_SCHEDULER_URL")
	t.Cleanup(func() {
		_ = os.Unsetenv("SCCACHE_DIST_TOKEN")
		_ = os.Unsetenv("SCCACHE_SCHEDULER_URL")
	})
	n, err := ApplyDir(dir)
	if err != nil {
		t.Fatalf("ApplyDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 variables applied, got %d", n)
	}
	if got := os.Getenv("SCCACHE_DIST_TOKEN"); got != "abc123" {
		t.Fatalf("expected SCCACHE_DIST_TOKEN=abc123, got %q", got)
	}
	if got := os.Getenv("SCCACHE_SCHEDULER_URL"); got != "http://10.0.0.5:10600" {
		t.Fatalf("expected quoted value unwrapped, got %q", got)
	}
}

func TestApplyDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SCCACHE_LOG=debug\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SCCACHE_LOG", "existing")
	n, err := Apply(path)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no variables applied, got %d", n)
	}
	if got := os.Getenv("SCCACHE_LOG"); got != "existing" {
		t.Fatalf("expected existing value preserved, got %q", got)
	}
}

func TestApplyMissingFile(t *testing.T) {
	n, err := Apply(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 applied, got %d", n)
	}
}
