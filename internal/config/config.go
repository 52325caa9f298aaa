// Package config loads pipeline settings from defaults, a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"go.ngs.io/oceanprep/internal/domain"
)

// DepthWindow is an inclusive depth range in metres, positive down.
type DepthWindow struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// Mask locates the categorical basin mask.
type Mask struct {
	Path     string `toml:"path"`
	Variable string `toml:"variable"`
}

// Seawater configures the isotope climatology product.
type Seawater struct {
	Input  string      `toml:"input"`
	Output string      `toml:"output"`
	Depth  DepthWindow `toml:"depth"`
}

// Plafom configures the foraminifera abundance product.
type Plafom struct {
	Warm      string      `toml:"warm"`
	Temperate string      `toml:"temperate"`
	Cold      string      `toml:"cold"`
	Output    string      `toml:"output"`
	Depth     DepthWindow `toml:"depth"`
}

// Server configures the inspection API.
type Server struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config is the complete pipeline configuration.
type Config struct {
	Backend   string            `toml:"backend"`
	OutputDir string            `toml:"output_dir"`
	LogLevel  string            `toml:"log_level"`
	Grid      domain.TargetGrid `toml:"grid"`
	Mask      Mask              `toml:"mask"`
	Seawater  Seawater          `toml:"seawater"`
	Plafom    Plafom            `toml:"plafom"`
	Server    Server            `toml:"server"`
}

const plafomDir = "/Users/starr/My Drive/Files/Data/Model/PLAFOM"

// Default reproduces the locations used when the datasets were first prepared.
func Default() *Config {
	return &Config{
		Backend:   "netcdf",
		OutputDir: "../data",
		LogLevel:  "info",
		Grid:      domain.DefaultTargetGrid(),
		Mask: Mask{
			Path:     "/Users/starr/Downloads/RECCAP2_region_masks_all_v20221025.nc",
			Variable: "atlantic",
		},
		Seawater: Seawater{
			Input:  "/Users/starr/Downloads/D18O_Breitkreuz_et_al_2018.nc",
			Output: "gridded_seawater_data.nc",
			Depth:  DepthWindow{Min: 0, Max: 800},
		},
		Plafom: Plafom{
			Warm:      filepath.Join(plafomDir, "PLAFOM2.0_GLOBAL_MONTHLY_CONC_warm-waterPlankForamSpecies.nc"),
			Temperate: filepath.Join(plafomDir, "PLAFOM2.0_GLOBAL_MONTHLY_CONC_temperate-waterPlankForamSpecies.nc"),
			Cold:      filepath.Join(plafomDir, "PLAFOM2.0_GLOBAL_MONTHLY_CONC_cold-waterPlankForamSpecies.nc"),
			Output:    "plafom_foram_abundance.nc",
			Depth:     DepthWindow{Min: 0, Max: 600},
		},
		Server: Server{Port: "8080"},
	}
}

// Load builds a configuration from the defaults, the optional TOML file at
// path and the environment, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backend = getEnv("OCEANPREP_BACKEND", c.Backend)
	c.OutputDir = getEnv("OCEANPREP_OUTPUT_DIR", c.OutputDir)
	c.Mask.Path = getEnv("OCEANPREP_MASK_PATH", c.Mask.Path)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
}

// OutputPath resolves a product output file against OutputDir.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate(backends ...string) error {
	var errs []error
	if len(backends) > 0 && !contains(backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q is not one of %v", c.Backend, backends))
	}
	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Mask.Variable == "" {
		errs = append(errs, errors.New("mask variable must be set"))
	}
	windows := []struct {
		name string
		w    DepthWindow
	}{
		{"seawater", c.Seawater.Depth},
		{"plafom", c.Plafom.Depth},
	}
	for _, d := range windows {
		if d.w.Min > d.w.Max {
			errs = append(errs, fmt.Errorf("%s depth window: min %.1f exceeds max %.1f", d.name, d.w.Min, d.w.Max))
		}
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
