package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate("netcdf", "native"); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Mask.Variable != "atlantic" {
		t.Errorf("expected atlantic mask, got %q", cfg.Mask.Variable)
	}
	if cfg.Seawater.Depth.Max != 800 || cfg.Plafom.Depth.Max != 600 {
		t.Errorf("unexpected depth windows %+v %+v", cfg.Seawater.Depth, cfg.Plafom.Depth)
	}
	if got := cfg.OutputPath("gridded_seawater_data.nc"); got != filepath.Join("..", "data", "gridded_seawater_data.nc") {
		t.Errorf("unexpected output path %q", got)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oceanprep.toml")
	body := `
backend = "native"
output_dir = "/tmp/out"

[grid.lat]
start = -10
stop = 10
step = 5

[seawater]
input = "/data/d18o.nc"

[seawater.depth]
max = 300
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OCEANPREP_MASK_PATH", "/data/mask.nc")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OCEANPREP_BACKEND", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "native" || cfg.OutputDir != "/tmp/out" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Grid.Lat.Start != -10 || cfg.Grid.Lon.Start != -90 {
		t.Errorf("unexpected grid %+v", cfg.Grid)
	}
	if cfg.Seawater.Input != "/data/d18o.nc" || cfg.Seawater.Depth.Max != 300 || cfg.Seawater.Output != "gridded_seawater_data.nc" {
		t.Errorf("unexpected seawater %+v", cfg.Seawater)
	}
	if cfg.Mask.Path != "/data/mask.nc" {
		t.Errorf("env override not applied: %q", cfg.Mask.Path)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("regrid_method = \"conservative\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "zarr" }},
		{"inverted depth window", func(c *Config) { c.Plafom.Depth = DepthWindow{Min: 600, Max: 0} }},
		{"zero grid step", func(c *Config) { c.Grid.Lon.Step = 0 }},
		{"no mask variable", func(c *Config) { c.Mask.Variable = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate("netcdf", "native", "memory"); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
