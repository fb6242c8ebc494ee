// Package crs detects coordinate reference systems from WKT projection
// strings and reprojects projected coordinates to WGS84 geographic.
package crs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/rs/zerolog/log"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// wgs84 is the fixed reprojection target: geographic lon/lat on WGS84.
const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// Info is the result of parsing a WKT string. All fields are nil when the
// input is absent or unparseable; that is not an error condition.
type Info struct {
	EPSG        *int
	Name        *string
	IsProjected *bool
}

var (
	// AUTHORITY["EPSG","23030"]: the outermost (last) occurrence identifies
	// the CRS as a whole, inner ones belong to datum/spheroid/units.
	authorityRe = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
	headRe      = regexp.MustCompile(`^\s*(PROJCS|PROJCRS|GEOGCS|GEOGCRS)\[\s*"((?:[^"\\]|\\.)*)"`)
)

// Detect parses a WKT projection string into EPSG code, human-readable name
// and projected-ness. Empty or unrecognizable input yields all-unknown.
func Detect(wkt string) Info {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return Info{}
	}

	head := headRe.FindStringSubmatch(wkt)
	if head == nil {
		return Info{}
	}

	info := Info{
		Name:        geo.String(head[2]),
		IsProjected: geo.Bool(strings.HasPrefix(head[1], "PROJ")),
	}

	if matches := authorityRe.FindAllStringSubmatch(wkt, -1); len(matches) > 0 {
		if code, err := strconv.Atoi(matches[len(matches)-1][1]); err == nil {
			info.EPSG = geo.Int(code)
		}
	}

	return info
}

// NewWGS84Transform builds a forward transform from the CRS described by the
// WKT string to WGS84 lon/lat (axis order longitude-first).
func NewWGS84Transform(wkt string) (proj.Transformer, error) {
	src, err := proj.Parse(wkt)
	if err != nil {
		return nil, fmt.Errorf("parse source CRS: %w", err)
	}

	dst, err := proj.Parse(wgs84)
	if err != nil {
		return nil, fmt.Errorf("parse WGS84 target: %w", err)
	}

	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build transform: %w", err)
	}

	return t, nil
}

// PopulateLonLat transforms every point's projected x/y to WGS84 and fills
// the optional lon/lat fields. Existing lon/lat values are never overwritten.
// A WKT that the projection engine cannot handle leaves the points untouched.
func PopulateLonLat(points []geo.CoordinatePoint, wkt string) {
	t, err := NewWGS84Transform(wkt)
	if err != nil {
		log.Warn().Err(err).Msg("CRS transform unavailable, lon/lat left unset")
		return
	}

	for i := range points {
		if points[i].Lon != nil || points[i].Lat != nil {
			continue
		}
		lon, lat, err := t(points[i].X, points[i].Y)
		if err != nil {
			log.Warn().Err(err).Int("index", points[i].Index).Msg("Point transform failed")
			continue
		}
		points[i].Lon = geo.Float(lon)
		points[i].Lat = geo.Float(lat)
	}
}
