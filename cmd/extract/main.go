// Command extract runs the batch pipeline: read one geometry source, compute
// cumulative-KP segments and write the selected exports.
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/Jerell/bathymetry-tool/internal/config"
	"github.com/Jerell/bathymetry-tool/internal/export"
	"github.com/Jerell/bathymetry-tool/internal/geo"
	"github.com/Jerell/bathymetry-tool/internal/logger"
	"github.com/Jerell/bathymetry-tool/internal/raster"
	"github.com/Jerell/bathymetry-tool/internal/reader"
	"github.com/Jerell/bathymetry-tool/internal/segment"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config"  env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	CSV        string   `long:"csv"     description:"Write segments CSV to this path"`
	JSON       string   `long:"json"    description:"Write result JSON to this path"`
	GeoJSON    string   `long:"geojson" description:"Write route GeoJSON to this path"`
	Plot       string   `long:"plot"    description:"Write profile plot to this path (.png or .webp)"`
	Raster     string   `short:"r" long:"raster"  env:"RASTER_PATH" description:"GeoTIFF to sample for the overlay series"`
	Bounds     string   `long:"bounds"  description:"Raster bounds as north,south,west,east (default: parsed from filename)"`
	NoData     *float64 `long:"nodata"  description:"Raster no-data sentinel"`
	Title      string   `short:"t" long:"title"   description:"Plot title"`

	Args struct {
		Input string `positional-arg-name:"INPUT" description:"Input file (.shp, .kmz, .kml or .txt)"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cfg = config.Default()
	}
	applyOverrides(cfg, &opts)

	if opts.CSV == "" && opts.JSON == "" && opts.GeoJSON == "" && opts.Plot == "" {
		opts.CSV = "pipeline_segments.csv"
	}

	points, meta, err := reader.ReadFile(opts.Args.Input)
	if err != nil {
		log.Fatal().Err(err).Str("input", opts.Args.Input).Msg("Failed to read input")
	}

	crsEvent := log.Info().
		Str("shape_type", meta.ShapeTypeName).
		Int("points", meta.NumPoints).
		Bool("has_z", meta.HasZ)
	if meta.CRSEPSG != nil {
		crsEvent = crsEvent.Int("epsg", *meta.CRSEPSG)
	}
	if meta.CRSName != nil {
		crsEvent = crsEvent.Str("crs", *meta.CRSName)
	}
	crsEvent.Msg("Input loaded")

	overlay := sampleRaster(cfg, points)

	segments, err := segment.Compute(points, segment.MetricFor(meta))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute segments")
	}
	result := geo.Result{Metadata: meta, Segments: segments}

	logSummary(points, segments)

	if opts.CSV != "" {
		writeFile(opts.CSV, func(f *os.File) error { return export.WriteCSV(f, segments) })
	}
	if opts.JSON != "" {
		writeFile(opts.JSON, func(f *os.File) error { return export.WriteJSON(f, result) })
	}
	if opts.GeoJSON != "" {
		writeFile(opts.GeoJSON, func(f *os.File) error { return export.WriteGeoJSON(f, points, result) })
	}
	if opts.Plot != "" {
		writePlot(cfg, &opts, points, segments, overlay, meta)
	}

	log.Info().Msg("Extract finished successfully")
}

// applyOverrides lets CLI flags win over the config file raster section.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.Raster != "" {
		cfg.Raster.Path = opts.Raster
	}
	if opts.NoData != nil {
		cfg.Raster.NoData = opts.NoData
	}
	if opts.Bounds != "" {
		b, err := parseBounds(opts.Bounds)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --bounds")
		}
		cfg.Raster.Bounds = b
	}
	if opts.Title != "" {
		cfg.Plot.Title = opts.Title
	}
}

func parseBounds(s string) (*raster.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, &flags.Error{Type: flags.ErrMarshal, Message: "bounds must be north,south,west,east"}
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &raster.Bounds{North: vals[0], South: vals[1], West: vals[2], East: vals[3]}, nil
}

// sampleRaster returns the index-aligned overlay series, or nil when no
// raster is configured or usable.
func sampleRaster(cfg *config.Config, points []geo.CoordinatePoint) []*float64 {
	if cfg.Raster.Path == "" {
		return nil
	}

	grid, err := raster.Open(cfg.Raster.Path, cfg.Raster.Bounds, cfg.Raster.NoData, cfg.RasterSigned())
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Raster.Path).Msg("Failed to open raster, skipping overlay")
		return nil
	}

	overlay := grid.SampleAll(points)
	sampled := 0
	for _, v := range overlay {
		if v != nil {
			sampled++
		}
	}
	log.Info().
		Int("sampled", sampled).
		Int("points", len(points)).
		Str("raster", cfg.Raster.Path).
		Msg("Raster coverage")

	return overlay
}

func logSummary(points []geo.CoordinatePoint, segments []geo.Segment) {
	totalM := 0.0
	for _, s := range segments {
		totalM += s.LengthM
	}

	ev := log.Info().
		Int("points", len(points)).
		Int("segments", len(segments)).
		Float64("total_km", totalM/1000)

	var minZ, maxZ *float64
	for _, p := range points {
		if p.Z == nil {
			continue
		}
		if minZ == nil || *p.Z < *minZ {
			minZ = p.Z
		}
		if maxZ == nil || *p.Z > *maxZ {
			maxZ = p.Z
		}
	}
	if minZ != nil && maxZ != nil {
		ev = ev.Float64("min_z", *minZ).Float64("max_z", *maxZ)
	}
	ev.Msg("Pipeline computed")
}

func writeFile(path string, write func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output file")
	}
	defer func() { _ = f.Close() }()

	if err := write(f); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write output")
	}
	log.Info().Str("path", path).Msg("Output written")
}

func writePlot(cfg *config.Config, opts *Options, points []geo.CoordinatePoint, segments []geo.Segment, overlay []*float64, meta geo.Metadata) {
	title := cfg.Plot.Title
	if title == "" {
		name := "Unknown CRS"
		if meta.CRSName != nil {
			name = *meta.CRSName
		}
		title = "Route Profile - " + name
	}

	overlayLabel := ""
	if overlay != nil {
		overlayLabel = cfg.Raster.Label
		if overlayLabel == "" {
			overlayLabel = "Raster"
		}
	}

	img, err := export.RenderProfile(points, segments, overlay, export.PlotOptions{
		Width:        cfg.Plot.Width,
		Height:       cfg.Plot.Height,
		Title:        title,
		SeriesLabel:  "Survey",
		OverlayLabel: overlayLabel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render profile plot")
	}

	if err := export.WritePlot(opts.Plot, img); err != nil {
		log.Fatal().Err(err).Str("path", opts.Plot).Msg("Failed to write plot")
	}
	log.Info().Str("path", opts.Plot).Msg("Plot saved")
}
