package params

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
fork = "cancun"

[gas]
call-stipend = 5000
sstore-set = 30000
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Fork != Cancun {
		t.Errorf("fork = %v, want cancun", cfg.Fork)
	}
	if cfg.Gas.CallStipend != 5000 {
		t.Errorf("call stipend = %d, want 5000", cfg.Gas.CallStipend)
	}
	if cfg.Gas.SstoreSetGas != 30000 {
		t.Errorf("sstore set = %d, want 30000", cfg.Gas.SstoreSetGas)
	}
	// Untouched values keep their fork defaults.
	if cfg.Gas.SloadGas != WarmStorageReadCost {
		t.Errorf("sload = %d, want %d", cfg.Gas.SloadGas, WarmStorageReadCost)
	}
	if cfg.Gas.CreateGas != CreateGas {
		t.Errorf("create = %d, want %d", cfg.Gas.CreateGas, CreateGas)
	}
	if cfg.Path != path {
		t.Errorf("path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadConfigNoFork(t *testing.T) {
	path := writeConfig(t, `
[gas]
memory = 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Fork != Osaka {
		t.Errorf("fork = %v, want osaka default", cfg.Fork)
	}
	if cfg.Gas.MemoryGas != 5 {
		t.Errorf("memory = %d, want 5", cfg.Gas.MemoryGas)
	}
}

func TestLoadConfigUnknownFork(t *testing.T) {
	path := writeConfig(t, `fork = "atlantis"`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown fork")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, `
fork = "osaka"
colour = "green"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoadConfigUnknownGasKey(t *testing.T) {
	path := writeConfig(t, `
[gas]
warp-drive = 9000
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown gas key")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/ember.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	// No file: defaults.
	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if cfg.Fork != Osaka || cfg.Path != "" {
		t.Errorf("expected default config, got fork=%v path=%q", cfg.Fork, cfg.Path)
	}

	// With file.
	content := `fork = "berlin"`
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if cfg.Fork != Berlin {
		t.Errorf("fork = %v, want berlin", cfg.Fork)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Fork != Osaka {
		t.Errorf("fork = %v, want osaka", cfg.Fork)
	}
	if cfg.Gas == nil {
		t.Fatal("gas params should not be nil")
	}
	if !cfg.Rules().IsOsaka {
		t.Error("default rules should enable osaka")
	}
}
