package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// ErrNoElevation is returned when a profile plot is requested for a point set
// without z values.
var ErrNoElevation = errors.New("points carry no elevation values to plot")

// PlotOptions control the rendered profile image.
type PlotOptions struct {
	Width        int
	Height       int
	Title        string
	SeriesLabel  string
	OverlayLabel string
}

// Colors of the rendered series.
var (
	colSeries  = color.RGBA{70, 130, 180, 255}  // steelblue
	colFill    = color.RGBA{200, 218, 233, 255} // steelblue washed out over white
	colOverlay = color.RGBA{255, 127, 80, 255}  // coral
	colAxis    = color.RGBA{40, 40, 40, 255}
	colGrid    = color.RGBA{225, 225, 225, 255}
)

const (
	marginLeft   = 64
	marginRight  = 20
	marginTop    = 32
	marginBottom = 44
)

// RenderProfile draws depth/elevation against cumulative KP: a filled series
// for the survey depths and an optional overlay for raster samples. The frame
// geometry is rendered at double resolution and downscaled before the text
// pass to keep thin lines clean.
func RenderProfile(points []geo.CoordinatePoint, segments []geo.Segment, overlay []*float64, opts PlotOptions) (image.Image, error) {
	if len(segments) != len(points)-1 {
		return nil, fmt.Errorf("segment count %d does not match %d points", len(segments), len(points))
	}

	kp := make([]float64, len(points))
	depths := make([]float64, len(points))
	for i, p := range points {
		if p.Z == nil {
			return nil, ErrNoElevation
		}
		depths[i] = *p.Z
		if i > 0 {
			kp[i] = segments[i-1].CumulativeKMEnd
		}
	}

	if opts.Width <= 0 {
		opts.Width = 1400
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}

	minV, maxV := depths[0], depths[0]
	for _, d := range depths {
		minV = math.Min(minV, d)
		maxV = math.Max(maxV, d)
	}
	for _, v := range overlay {
		if v != nil {
			minV = math.Min(minV, *v)
			maxV = math.Max(maxV, *v)
		}
	}
	minV -= 5
	maxV += 5

	maxKP := kp[len(kp)-1]
	if maxKP <= 0 {
		maxKP = 1
	}

	// geometry pass at 2x
	const ss = 2
	big := image.NewRGBA(image.Rect(0, 0, opts.Width*ss, opts.Height*ss))
	draw.Draw(big, big.Bounds(), image.White, image.Point{}, draw.Src)

	plot := image.Rect(marginLeft*ss, marginTop*ss, (opts.Width-marginRight)*ss, (opts.Height-marginBottom)*ss)

	mapX := func(v float64) int {
		return plot.Min.X + int(v/maxKP*float64(plot.Dx()-1))
	}
	mapY := func(v float64) int {
		return plot.Max.Y - 1 - int((v-minV)/(maxV-minV)*float64(plot.Dy()-1))
	}

	yTicks := ticks(minV, maxV, 6)
	xTicks := ticks(0, maxKP, 8)

	for _, t := range yTicks {
		y := mapY(t)
		drawHLine(big, plot.Min.X, plot.Max.X-1, y, colGrid)
	}
	for _, t := range xTicks {
		x := mapX(t)
		drawVLine(big, x, plot.Min.Y, plot.Max.Y-1, colGrid)
	}

	// filled survey series, between the curve and the zero line
	zeroY := clampInt(mapY(0), plot.Min.Y, plot.Max.Y-1)
	for i := 1; i < len(kp); i++ {
		x0, y0 := mapX(kp[i-1]), mapY(depths[i-1])
		x1, y1 := mapX(kp[i]), mapY(depths[i])
		if x1 == x0 {
			x1 = x0 + 1
		}
		for x := x0; x <= x1 && x < plot.Max.X; x++ {
			frac := float64(x-x0) / float64(x1-x0)
			y := y0 + int(frac*float64(y1-y0))
			fillVLine(big, x, y, zeroY, colFill)
		}
	}

	// survey curve
	for i := 1; i < len(kp); i++ {
		drawLine(big, mapX(kp[i-1]), mapY(depths[i-1]), mapX(kp[i]), mapY(depths[i]), colSeries)
	}

	// overlay curve, broken at missing samples
	if len(overlay) == len(points) {
		for i := 1; i < len(kp); i++ {
			if overlay[i-1] == nil || overlay[i] == nil {
				continue
			}
			drawLine(big, mapX(kp[i-1]), mapY(*overlay[i-1]), mapX(kp[i]), mapY(*overlay[i]), colOverlay)
		}
	}

	// dashed zero line
	if mapY(0) > plot.Min.Y && mapY(0) < plot.Max.Y {
		for x := plot.Min.X; x < plot.Max.X; x += 12 {
			drawHLine(big, x, minInt(x+6, plot.Max.X-1), mapY(0), colAxis)
		}
	}

	// frame
	drawHLine(big, plot.Min.X, plot.Max.X-1, plot.Min.Y, colAxis)
	drawHLine(big, plot.Min.X, plot.Max.X-1, plot.Max.Y-1, colAxis)
	drawVLine(big, plot.Min.X, plot.Min.Y, plot.Max.Y-1, colAxis)
	drawVLine(big, plot.Max.X-1, plot.Min.Y, plot.Max.Y-1, colAxis)

	// downscale to target size, then draw text at native resolution
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)

	for _, t := range yTicks {
		label := strconv.FormatFloat(t, 'f', -1, 64)
		drawText(dst, marginLeft-8-7*len(label), mapY(t)/ss+4, label, colAxis)
	}
	for _, t := range xTicks {
		label := strconv.FormatFloat(t, 'f', -1, 64)
		drawText(dst, mapX(t)/ss-7*len(label)/2, opts.Height-marginBottom+16, label, colAxis)
	}

	drawText(dst, opts.Width/2-7*len("KP (km)")/2, opts.Height-8, "KP (km)", colAxis)
	drawText(dst, 8, marginTop-10, "Depth (m)", colAxis)
	if opts.Title != "" {
		drawText(dst, opts.Width/2-7*len(opts.Title)/2, 16, opts.Title, colAxis)
	}

	// legend, top right
	lx := opts.Width - marginRight - 160
	ly := marginTop + 14
	series := opts.SeriesLabel
	if series == "" {
		series = "Survey"
	}
	drawLegendSwatch(dst, lx, ly, colSeries)
	drawText(dst, lx+24, ly+4, series, colAxis)
	if len(overlay) == len(points) && opts.OverlayLabel != "" {
		drawLegendSwatch(dst, lx, ly+16, colOverlay)
		drawText(dst, lx+24, ly+20, opts.OverlayLabel, colAxis)
	}

	return dst, nil
}

// WritePlot encodes the image by file extension: .webp via the webp encoder,
// anything else as PNG.
func WritePlot(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return webp.Encode(f, img, &webp.Options{Lossless: true})
	}
	return png.Encode(f, img)
}

// ticks returns up to n rounded tick values covering [min, max].
func ticks(min, max float64, n int) []float64 {
	span := max - min
	if span <= 0 || n < 2 {
		return []float64{min}
	}
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	switch frac := raw / mag; {
	case frac > 5:
		step = 10 * mag
	case frac > 2:
		step = 5 * mag
	case frac > 1:
		step = 2 * mag
	}

	var out []float64
	for v := math.Ceil(min/step) * step; v <= max; v += step {
		out = append(out, math.Round(v*1e9)/1e9)
	}
	return out
}

func drawText(img *image.RGBA, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawLegendSwatch(img *image.RGBA, x, y int, c color.Color) {
	for dy := 0; dy < 3; dy++ {
		drawHLine(img, x, x+18, y+dy, c)
	}
}

func drawHLine(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func drawVLine(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func fillVLine(img *image.RGBA, x, y0, y1 int, c color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

// drawLine is a basic Bresenham segment.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
