package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"serialbridge/internal/config/source"
	coreerrors "serialbridge/internal/core/errors"
)

func TestLoader_Load_NoSources(t *testing.T) {
	if _, err := NewLoader().Load(); err == nil {
		t.Error("Load() should error when no sources are registered")
	}
}

func TestLoader_Load_DefaultsOnly(t *testing.T) {
	l := NewLoader()
	l.AddSource(source.NewDefaultSource())

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bridge.Network.Port != source.DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Bridge.Network.Port, source.DefaultPort)
	}
}

func TestLoader_Load_PriorityOrder(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "serialbridge.yaml")
	yamlContent := `
bridge:
  serial:
    baud: 19200
    device: /dev/ttyS1
  network:
    port: 2000
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERIALBRIDGE_SERIAL_BAUD", "38400")
	t.Setenv("SERIALBRIDGE_NETWORK_PORT", "3000")

	port := 4000
	cfg, err := NewLoaderBuilder().
		WithConfigFile(configFile).
		WithDotEnv(false).
		WithCLI(source.CLIOverrides{Port: &port}).
		Build().
		Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.Serial.Device != "/dev/ttyS1" {
		t.Errorf("Device = %q, yaml should override default", cfg.Bridge.Serial.Device)
	}
	if cfg.Bridge.Serial.Baud != 38400 {
		t.Errorf("Baud = %d, env should override yaml", cfg.Bridge.Serial.Baud)
	}
	if cfg.Bridge.Network.Port != 4000 {
		t.Errorf("Port = %d, cli should override env", cfg.Bridge.Network.Port)
	}
}

func TestLoader_Load_ValidationFailure(t *testing.T) {
	baud := 0
	chunk := 0
	_, err := NewLoaderBuilder().
		WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnv(false).
		WithCLI(source.CLIOverrides{Baud: &baud, ChunkSize: &chunk}).
		Build().
		Load()
	if err == nil {
		t.Fatal("Load() should fail validation")
	}
	if !coreerrors.IsCode(err, coreerrors.CodeConfigError) {
		t.Errorf("error code = %s, want CONFIG_ERROR", coreerrors.GetCode(err))
	}
	for _, field := range []string{"bridge.serial.baud", "bridge.chunk_size"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
	if coreerrors.ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", coreerrors.ExitCode(err))
	}
}
