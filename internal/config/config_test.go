package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test bake defaults
	if cfg.Bake.InputDir != "assets" {
		t.Errorf("expected input dir 'assets', got %s", cfg.Bake.InputDir)
	}
	if cfg.Bake.OutputDir != "baked" {
		t.Errorf("expected output dir 'baked', got %s", cfg.Bake.OutputDir)
	}
	if cfg.Bake.Workers != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), cfg.Bake.Workers)
	}
	if cfg.Bake.Incremental {
		t.Error("expected incremental to be false by default")
	}
	if cfg.Bake.ProgressInterval != 2*time.Second {
		t.Errorf("expected progress interval 2s, got %v", cfg.Bake.ProgressInterval)
	}
	if cfg.Bake.Shader != "" {
		t.Errorf("expected built-in shader, got %s", cfg.Bake.Shader)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshbake.yaml")

	yamlContent := `
bake:
  input_dir: "content/models"
  output_dir: "build/meshes"
  workers: 3
  incremental: true
  progress_interval: 500ms
  shader: "shaders/lit.yaml"

logging:
  level: "debug"
  log_file: "bake.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Bake.InputDir != "content/models" {
		t.Errorf("expected input dir content/models, got %s", cfg.Bake.InputDir)
	}
	if cfg.Bake.OutputDir != "build/meshes" {
		t.Errorf("expected output dir build/meshes, got %s", cfg.Bake.OutputDir)
	}
	if cfg.Bake.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Bake.Workers)
	}
	if !cfg.Bake.Incremental {
		t.Error("expected incremental to be true")
	}
	if cfg.Bake.ProgressInterval != 500*time.Millisecond {
		t.Errorf("expected progress interval 500ms, got %v", cfg.Bake.ProgressInterval)
	}
	if cfg.Bake.Shader != "shaders/lit.yaml" {
		t.Errorf("expected shader shaders/lit.yaml, got %s", cfg.Bake.Shader)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bake.log" {
		t.Errorf("expected log file 'bake.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
bake:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/meshbake.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Keep the user's real config out of the search
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create meshbake.yaml in current directory
	configPath := filepath.Join(tmpDir, "meshbake.yaml")
	if err := os.WriteFile(configPath, []byte("bake:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find meshbake.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "directory flags",
			args: []string{"-input", "src", "-output", "dst"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Bake.InputDir != "src" || cfg.Bake.OutputDir != "dst" {
					t.Errorf("expected src -> dst, got %s -> %s", cfg.Bake.InputDir, cfg.Bake.OutputDir)
				}
			},
		},
		{
			name: "workers flag",
			args: []string{"-workers", "7"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Bake.Workers != 7 {
					t.Errorf("expected 7 workers, got %d", cfg.Bake.Workers)
				}
			},
		},
		{
			name: "incremental and shader flags",
			args: []string{"-incremental", "-shader", "lit.yaml"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Bake.Incremental {
					t.Error("expected incremental to be enabled")
				}
				if cfg.Bake.Shader != "lit.yaml" {
					t.Errorf("expected shader lit.yaml, got %s", cfg.Bake.Shader)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Bake.InputDir != "assets" || cfg.Bake.Workers != runtime.NumCPU() {
					t.Errorf("expected defaults, got %+v", cfg.Bake)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flags
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f.Register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg, &f)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshbake.yaml")

	yamlContent := `
bake:
  input_dir: "from-file"
  workers: 4
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	f := &Flags{Config: configPath, Workers: 9}

	// Load config
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (9), not file (4)
	if cfg.Bake.Workers != 9 {
		t.Errorf("expected 9 workers from flag, got %d", cfg.Bake.Workers)
	}

	// Input dir should be from file since no flag override
	if cfg.Bake.InputDir != "from-file" {
		t.Errorf("expected input dir from file, got %s", cfg.Bake.InputDir)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meshbake.yaml")

	cfg := Default()
	cfg.Bake.ProgressInterval = 750 * time.Millisecond
	cfg.Logging.LogFile = "bake.log"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero workers means NumCPU", func(c *Config) { c.Bake.Workers = 0 }, false},
		{"negative workers", func(c *Config) { c.Bake.Workers = -1 }, true},
		{"empty input", func(c *Config) { c.Bake.InputDir = "" }, true},
		{"empty output", func(c *Config) { c.Bake.OutputDir = "" }, true},
		{"output same as input", func(c *Config) { c.Bake.OutputDir = c.Bake.InputDir + "/" }, true},
		{"output nested in input", func(c *Config) { c.Bake.OutputDir = filepath.Join(c.Bake.InputDir, "baked") }, false},
		{"negative interval", func(c *Config) { c.Bake.ProgressInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshbake.yaml")
	if err := os.WriteFile(configPath, []byte("bake:\n  workers: -2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(&Flags{Config: configPath}); err == nil {
		t.Error("expected error for negative workers")
	}
}
