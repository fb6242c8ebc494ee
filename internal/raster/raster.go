// Package raster samples elevation values from a GeoTIFF grid by geographic
// coordinate. Sampling is best-effort: points outside the extent or hitting
// the no-data sentinel produce an absent value, never an error.
package raster

import (
	"fmt"
	"image"
	"os"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/tiff"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// Bounds is the geographic extent of a north-up raster, in degrees.
type Bounds struct {
	North float64 `yaml:"north"`
	South float64 `yaml:"south"`
	West  float64 `yaml:"west"`
	East  float64 `yaml:"east"`
}

// Grid is an opened raster ready for point sampling.
type Grid struct {
	img    image.Image
	bounds Bounds
	nodata *float64
	signed bool
	width  int
	height int
}

// GEBCO tile downloads encode their extent in the filename:
// gebco_2025_n54.0_s53.3_w-3.7_e-3.0_geotiff.tif
var nameBoundsRe = regexp.MustCompile(`_n(-?\d+(?:\.\d+)?)_s(-?\d+(?:\.\d+)?)_w(-?\d+(?:\.\d+)?)_e(-?\d+(?:\.\d+)?)`)

// BoundsFromFilename parses the GEBCO filename convention.
func BoundsFromFilename(path string) (Bounds, bool) {
	m := nameBoundsRe.FindStringSubmatch(path)
	if m == nil {
		return Bounds{}, false
	}
	n, _ := strconv.ParseFloat(m[1], 64)
	s, _ := strconv.ParseFloat(m[2], 64)
	w, _ := strconv.ParseFloat(m[3], 64)
	e, _ := strconv.ParseFloat(m[4], 64)
	if n <= s || e <= w {
		return Bounds{}, false
	}
	return Bounds{North: n, South: s, West: w, East: e}, true
}

// Open decodes a GeoTIFF and prepares it for sampling. When bounds is nil the
// extent is taken from the filename; failing that, Open returns an error.
// nodata values equal to the sentinel are reported as absent. signed controls
// whether 16-bit samples are reinterpreted as two's-complement (GEBCO stores
// elevations as signed 16-bit integers).
func Open(path string, bounds *Bounds, nodata *float64, signed bool) (*Grid, error) {
	if bounds == nil {
		if b, ok := BoundsFromFilename(path); ok {
			bounds = &b
		} else {
			return nil, fmt.Errorf("raster %s: no bounds given and none parseable from filename", path)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	rect := img.Bounds()
	g := &Grid{
		img:    img,
		bounds: *bounds,
		nodata: nodata,
		signed: signed,
		width:  rect.Dx(),
		height: rect.Dy(),
	}

	log.Debug().
		Str("path", path).
		Int("width", g.width).
		Int("height", g.height).
		Float64("north", bounds.North).
		Float64("south", bounds.South).
		Msg("Raster opened")

	return g, nil
}

// Sample returns the cell value at the given geographic coordinate, or nil
// when the point is outside the extent or the cell holds the no-data value.
func (g *Grid) Sample(lon, lat float64) *float64 {
	col := int((lon - g.bounds.West) / (g.bounds.East - g.bounds.West) * float64(g.width))
	row := int((g.bounds.North - lat) / (g.bounds.North - g.bounds.South) * float64(g.height))

	if col < 0 || col >= g.width || row < 0 || row >= g.height {
		return nil
	}

	val := g.cellValue(col, row)
	if g.nodata != nil && val == *g.nodata {
		return nil
	}
	return geo.Float(val)
}

// SampleAll samples every point that carries geographic coordinates. The
// result is index-aligned with the input; points without lon/lat and misses
// yield nil entries.
func (g *Grid) SampleAll(points []geo.CoordinatePoint) []*float64 {
	out := make([]*float64, len(points))
	for i, p := range points {
		if p.Lon == nil || p.Lat == nil {
			continue
		}
		out[i] = g.Sample(*p.Lon, *p.Lat)
	}
	return out
}

func (g *Grid) cellValue(col, row int) float64 {
	rect := g.img.Bounds()
	x, y := rect.Min.X+col, rect.Min.Y+row

	switch im := g.img.(type) {
	case *image.Gray16:
		v := im.Gray16At(x, y).Y
		if g.signed {
			return float64(int16(v))
		}
		return float64(v)
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	default:
		// fall back to the red channel scaled to 8 bits
		r, _, _, _ := g.img.At(x, y).RGBA()
		return float64(r >> 8)
	}
}
