package reader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// ErrNoKML is returned when a KMZ archive carries no .kml payload.
var ErrNoKML = errors.New("no .kml file found in KMZ archive")

var zipMagic = []byte("PK\x03\x04")

// ReadKMZFile reads a .kmz or plain .kml file from disk.
func ReadKMZFile(path string) ([]geo.CoordinatePoint, geo.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, geo.Metadata{}, err
	}
	return ReadKMZ(data)
}

// ReadKMZ parses KMZ or KML bytes into coordinate points plus metadata.
// KMZ is a ZIP archive holding KML; plain KML is XML text. KML coordinates
// are WGS84 by definition, so lon/lat mirror x/y without any reprojection.
func ReadKMZ(data []byte) ([]geo.CoordinatePoint, geo.Metadata, error) {
	kmlData := data
	if bytes.HasPrefix(data, zipMagic) {
		var err error
		kmlData, err = extractKML(data)
		if err != nil {
			return nil, geo.Metadata{}, err
		}
	}

	points, label, err := walkKML(kmlData)
	if err != nil {
		return nil, geo.Metadata{}, err
	}

	hasZ := false
	for i := range points {
		points[i].Lon = geo.Float(points[i].X)
		points[i].Lat = geo.Float(points[i].Y)
		if points[i].Z != nil {
			hasZ = true
		}
	}

	meta := geo.Metadata{
		ShapeTypeName: "KML_" + label,
		CRSEPSG:       geo.Int(4326),
		CRSName:       geo.String("WGS 84"),
		IsProjected:   geo.Bool(false),
		NumPoints:     len(points),
		HasZ:          hasZ,
		Fields:        []string{},
	}
	return points, meta, nil
}

// extractKML pulls the KML payload out of a KMZ archive, preferring doc.kml
// and falling back to the first *.kml entry.
func extractKML(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open KMZ archive: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "doc.kml") {
			entry = f
			break
		}
	}
	if entry == nil {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
				entry = f
				break
			}
		}
	}
	if entry == nil {
		return nil, ErrNoKML
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open KMZ entry %s: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// walkKML walks all geometry elements in document order and collects their
// coordinate tuples. The label reflects what was encountered: LINESTRING,
// POINT, MIXED when both kinds appear, UNKNOWN when none did.
func walkKML(data []byte) ([]geo.CoordinatePoint, string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var points []geo.CoordinatePoint
	var sawLine, sawPoint bool
	inGeometry := ""
	idx := 1

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("parse KML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "LineString", "LinearRing", "Point":
				inGeometry = t.Name.Local
			case "coordinates":
				if inGeometry == "" {
					continue
				}
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, "", fmt.Errorf("parse KML coordinates: %w", err)
				}
				parsed, err := parseCoordinatesText(text, idx)
				if err != nil {
					return nil, "", err
				}
				points = append(points, parsed...)
				idx += len(parsed)

				if inGeometry == "Point" {
					sawPoint = true
				} else {
					sawLine = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "LineString", "LinearRing", "Point":
				inGeometry = ""
			}
		}
	}

	label := "UNKNOWN"
	switch {
	case sawLine && sawPoint:
		label = "MIXED"
	case sawLine:
		label = "LINESTRING"
	case sawPoint:
		label = "POINT"
	}

	return points, label, nil
}

// parseCoordinatesText parses a KML <coordinates> block: whitespace-separated
// "lon,lat[,alt]" tuples. Tuples with fewer than two components are skipped.
func parseCoordinatesText(text string, startIdx int) ([]geo.CoordinatePoint, error) {
	var points []geo.CoordinatePoint
	idx := startIdx

	for _, token := range strings.Fields(text) {
		parts := strings.Split(token, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse KML longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse KML latitude %q: %w", parts[1], err)
		}

		var alt *float64
		if len(parts) >= 3 {
			v, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("parse KML altitude %q: %w", parts[2], err)
			}
			alt = geo.Float(v)
		}

		// In KML x is longitude and y is latitude.
		points = append(points, geo.CoordinatePoint{Index: idx, X: lon, Y: lat, Z: alt})
		idx++
	}

	return points, nil
}
