package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/towel808/towel"
	"github.com/towel808/towel/cmd"
)

func TestDefaultConfig(t *testing.T) {
	c := cmd.DefaultConfig()
	if c.RootNote != towel.DefaultRootNote || c.SampleRate != 44100 || c.Polyphony != 64 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Envelope != towel.DefaultParams {
		t.Fatalf("default envelope %v does not match %v", c.Envelope, towel.DefaultParams)
	}
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("samples: /tmp/808s\nenvelope:\n  cut: true\n"), 0o644); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}
	c := cmd.DefaultConfig()
	if err := cmd.ReadConfigFile(path, &c); err != nil {
		t.Fatalf("ReadConfigFile failed: %v", err)
	}
	if c.SampleDir() != "/tmp/808s" || !c.Envelope.Cut || c.Envelope.Attack != 0.1 || c.Polyphony != 64 {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestReadConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("volume: 11\n"), 0o644); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}
	c := cmd.DefaultConfig()
	if err := cmd.ReadConfigFile(path, &c); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}
