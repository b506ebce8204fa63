package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test data defaults
	if len(cfg.Data.SearchPaths) != 1 || cfg.Data.SearchPaths[0] != "." {
		t.Errorf("expected search paths [.], got %v", cfg.Data.SearchPaths)
	}
	if len(cfg.Data.Archives) != 0 {
		t.Errorf("expected no archives, got %v", cfg.Data.Archives)
	}
	if cfg.Data.MaterialsRoot != "materials" {
		t.Errorf("expected materials root 'materials', got %s", cfg.Data.MaterialsRoot)
	}
	if !cfg.Data.Cache {
		t.Error("expected cache to be enabled by default")
	}

	// Test model defaults
	if cfg.Model.LOD != 0 {
		t.Errorf("expected lod 0, got %d", cfg.Model.LOD)
	}
	if cfg.Model.StripSuffix != ".dx90.vtx" {
		t.Errorf("expected strip suffix .dx90.vtx, got %s", cfg.Model.StripSuffix)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  search_paths:
    - /games/hl2/hl2
    - /games/hl2/custom
  archives:
    - /games/hl2/hl2/hl2_misc_dir.vpk
  materials_root: materials
model:
  lod: 2
  strip_suffix: .dx80.vtx
logging:
  level: debug
  log_file: mdltool.log
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Data.SearchPaths) != 2 || cfg.Data.SearchPaths[1] != "/games/hl2/custom" {
		t.Errorf("unexpected search paths %v", cfg.Data.SearchPaths)
	}
	if len(cfg.Data.Archives) != 1 {
		t.Errorf("expected 1 archive, got %v", cfg.Data.Archives)
	}
	if cfg.Model.LOD != 2 {
		t.Errorf("expected lod 2, got %d", cfg.Model.LOD)
	}
	if cfg.Model.StripSuffix != ".dx80.vtx" {
		t.Errorf("expected strip suffix .dx80.vtx, got %s", cfg.Model.StripSuffix)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "mdltool.log" {
		t.Errorf("expected log file 'mdltool.log', got %s", cfg.Logging.LogFile)
	}
	// Values absent from the file keep their defaults.
	if !cfg.Data.Cache {
		t.Error("expected cache default to survive")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "model:\n  lod: not a number\n  invalid syntax here\n"},
		{"unknown key", "model:\n  lods: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("expected empty file to load, got %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"negative lod", func(c *Config) { c.Model.LOD = -1 }, "model.lod"},
		{"lod too large", func(c *Config) { c.Model.LOD = MaxLOD }, "model.lod"},
		{"bad suffix", func(c *Config) { c.Model.StripSuffix = ".vvd" }, "strip_suffix"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "mdltool.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  lod: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find mdltool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "lod flag",
			setup: func() { *flagLOD = 3 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Model.LOD != 3 {
					t.Errorf("expected lod 3, got %d", cfg.Model.LOD)
				}
			},
			teardown: func() { *flagLOD = -1 },
		},
		{
			name:  "data flag",
			setup: func() { *flagData = "/a, /b ,," },
			verify: func(t *testing.T, cfg *Config) {
				if len(cfg.Data.SearchPaths) != 2 || cfg.Data.SearchPaths[0] != "/a" || cfg.Data.SearchPaths[1] != "/b" {
					t.Errorf("expected search paths [/a /b], got %v", cfg.Data.SearchPaths)
				}
			},
			teardown: func() { *flagData = "" },
		},
		{
			name:  "vpk flag",
			setup: func() { *flagVPK = "pak01_dir.vpk" },
			verify: func(t *testing.T, cfg *Config) {
				if len(cfg.Data.Archives) != 1 || cfg.Data.Archives[0] != "pak01_dir.vpk" {
					t.Errorf("expected archives [pak01_dir.vpk], got %v", cfg.Data.Archives)
				}
			},
			teardown: func() { *flagVPK = "" },
		},
		{
			name:  "unset flags",
			setup: func() {},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Model.LOD != 0 || cfg.Data.SearchPaths[0] != "." {
					t.Errorf("expected defaults untouched, got %+v", cfg)
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
model:
  lod: 1
  strip_suffix: .sw.vtx
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagLOD = 4
	defer func() {
		*flagConfig = ""
		*flagLOD = -1
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// LOD should be from flag (4), not file (1)
	if cfg.Model.LOD != 4 {
		t.Errorf("expected lod 4 from flag, got %d", cfg.Model.LOD)
	}

	// Suffix should be from file since no flag override
	if cfg.Model.StripSuffix != ".sw.vtx" {
		t.Errorf("expected strip suffix .sw.vtx from file, got %s", cfg.Model.StripSuffix)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  lod: 9\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected invalid lod to be rejected")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Data.Archives = []string{"pak01_dir.vpk"}
	cfg.Model.LOD = 2
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if !strings.HasPrefix(string(content), "# mdltool configuration") {
		t.Errorf("expected header comment, got %q", content)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Model.LOD != 2 || len(loaded.Data.Archives) != 1 {
		t.Errorf("unexpected reloaded config %+v", loaded)
	}
}
