// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"github.com/Jerell/bathymetry-tool/internal/raster"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Raster      RasterConfig `yaml:"raster,omitempty"`
	Plot        PlotConfig   `yaml:"plot,omitempty"`
	MaxUploadMB int          `yaml:"max_upload_mb,omitempty"`
}

// RasterConfig describes the optional elevation raster used for sampling.
type RasterConfig struct {
	Path   string         `yaml:"path,omitempty"`
	Bounds *raster.Bounds `yaml:"bounds,omitempty"`
	NoData *float64       `yaml:"nodata,omitempty"`
	Signed *bool          `yaml:"signed,omitempty"` // default true, GEBCO stores int16
	Label  string         `yaml:"label,omitempty"`
}

// PlotConfig describes the rendered profile image.
type PlotConfig struct {
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxUploadMB: 256,
		Plot: PlotConfig{
			Width:  1400,
			Height: 500,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Values not present in the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RasterSigned resolves the signed-sample flag with its default.
func (c *Config) RasterSigned() bool {
	if c.Raster.Signed == nil {
		return true
	}
	return *c.Raster.Signed
}
