package sccache

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestEnsureMaterial(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "farm")
	m, err := EnsureMaterial(dir)
	if err != nil {
		t.Fatalf("EnsureMaterial: %v", err)
	}
	if m.Token == "" || m.SecretKey == "" {
		t.Fatalf("expected generated material, got %+v", m)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(TokenPath(dir))
		if err != nil {
			t.Fatalf("stat token file: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("token file should be private, got %v", info.Mode().Perm())
		}
	}
}

func TestEnsureMaterialIsStable(t *testing.T) {
	dir := t.TempDir()
	first, err := EnsureMaterial(dir)
	if err != nil {
		t.Fatalf("EnsureMaterial: %v", err)
	}
	second, err := EnsureMaterial(dir)
	if err != nil {
		t.Fatalf("EnsureMaterial again: %v", err)
	}
	if first.Token != second.Token || first.SecretKey != second.SecretKey {
		t.Fatalf("material changed across calls: %+v vs %+v", first, second)
	}
}
