package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.SampleSize != 30 {
		t.Errorf("Expected default sample size 30, got %d", cfg.SampleSize)
	}
	if cfg.ExportLimit != 1000 {
		t.Errorf("Expected default export limit 1000, got %d", cfg.ExportLimit)
	}
	if cfg.DefaultWindow != 0 {
		t.Errorf("Expected windowing off by default, got %d", cfg.DefaultWindow)
	}
	if cfg.RootDir != tmpDir {
		t.Errorf("Expected root dir %s, got %s", tmpDir, cfg.RootDir)
	}
}

func TestLoadFromEnvDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvDir, tmpDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != filepath.Join(tmpDir, "config.yaml") {
		t.Errorf("Unexpected config path %s", cfg.Path())
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "default_window: 4\next_window: 2\nsample_size: -3\nlog_mode: prod\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DefaultWindow != 4 || cfg.ExtWindow != 2 {
		t.Errorf("Expected windows 4/2, got %d/%d", cfg.DefaultWindow, cfg.ExtWindow)
	}
	if cfg.SampleSize != 30 {
		t.Errorf("Expected invalid sample size to fall back to 30, got %d", cfg.SampleSize)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("Expected log mode prod, got %s", cfg.LogMode)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvLogMode, "production")
	t.Setenv("POCKET_COMPOSE_SAMPLE_SIZE", "12")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogMode != "production" {
		t.Errorf("Expected env log mode, got %s", cfg.LogMode)
	}
	if cfg.SampleSize != 12 {
		t.Errorf("Expected env sample size 12, got %d", cfg.SampleSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default(tmpDir)
	cfg.DefaultWindow = 6
	cfg.RenderStyle = "dark"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultWindow != 6 || loaded.RenderStyle != "dark" {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}

func TestBadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("sample_size: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Error("Expected an error for malformed config")
	}
}
