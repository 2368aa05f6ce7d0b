package js8

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigSanity(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NCoarse <= 0 {
		t.Fatal("DefaultConfig().NCoarse should be positive")
	}
	if cfg.MinHz >= cfg.MaxHz {
		t.Fatalf("DefaultConfig(): MinHz %v should be below MaxHz %v", cfg.MinHz, cfg.MaxHz)
	}
}

func TestLoadYAMLOverridesOnlyNamedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.yaml")
	if err := os.WriteFile(path, []byte("ncoarse: 9\nuse_drift: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAML(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NCoarse != 9 {
		t.Fatalf("NCoarse = %d, want 9", cfg.NCoarse)
	}
	if !cfg.UseDrift {
		t.Fatal("UseDrift = false, want true")
	}
	def := DefaultConfig()
	if cfg.SecondHzWin != def.SecondHzWin {
		t.Fatalf("SecondHzWin = %v, want unchanged default %v", cfg.SecondHzWin, def.SecondHzWin)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	if _, err := LoadYAML("/nonexistent/path/tunables.yaml"); err == nil {
		t.Fatal("LoadYAML with a missing file should return an error")
	}
}

func TestConfigSetGetRoundTrip(t *testing.T) {
	cfg := DefaultConfig()

	cur, err := cfg.Set("ncoarse", "")
	if err != nil {
		t.Fatal(err)
	}
	if cur != "5" {
		t.Fatalf("Set(\"ncoarse\", \"\") = %q, want \"5\"", cur)
	}

	if _, err := cfg.Set("ncoarse", "12"); err != nil {
		t.Fatal(err)
	}
	if cfg.NCoarse != 12 {
		t.Fatalf("NCoarse after Set = %d, want 12", cfg.NCoarse)
	}

	if _, err := cfg.Set("use_drift", "1"); err != nil {
		t.Fatal(err)
	}
	if !cfg.UseDrift {
		t.Fatal("UseDrift after Set(\"use_drift\", \"1\") should be true")
	}

	if _, err := cfg.Set("bogus_tunable", ""); err == nil {
		t.Fatal("Set on an unknown tunable name should return an error")
	}
}
