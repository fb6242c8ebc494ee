package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
raster:
  path: gebco_2025_n54.0_s53.0_w-4.0_e-3.0_geotiff.tif
  nodata: -32768
  label: GEBCO 2025
plot:
  width: 900
max_upload_mb: 64
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxUploadMB != 64 {
		t.Errorf("max_upload_mb = %d, want 64", cfg.MaxUploadMB)
	}
	if cfg.Raster.Label != "GEBCO 2025" {
		t.Errorf("raster label = %q", cfg.Raster.Label)
	}
	if cfg.Raster.NoData == nil || *cfg.Raster.NoData != -32768 {
		t.Errorf("nodata = %v", cfg.Raster.NoData)
	}
	if cfg.Plot.Width != 900 {
		t.Errorf("plot width = %d, want 900", cfg.Plot.Width)
	}
	// height not in the file, keeps the default
	if cfg.Plot.Height != 500 {
		t.Errorf("plot height = %d, want the 500 default", cfg.Plot.Height)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRasterSigned(t *testing.T) {
	cfg := Default()
	if !cfg.RasterSigned() {
		t.Error("signed should default to true")
	}
	f := false
	cfg.Raster.Signed = &f
	if cfg.RasterSigned() {
		t.Error("explicit false should win")
	}
}
