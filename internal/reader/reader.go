// Package reader parses the supported geometry sources (shapefile, KMZ/KML,
// DMS survey listings) into the canonical point-list-plus-metadata form.
package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// UnsupportedShapeError signals a geometry type the pipeline does not handle.
type UnsupportedShapeError struct {
	TypeName string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported shape type: %s", e.TypeName)
}

// ReadFile dispatches on the file extension and parses the input into points
// and metadata. Supported: .shp, .kmz, .kml, .txt (DMS listing).
func ReadFile(path string) ([]geo.CoordinatePoint, geo.Metadata, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return ReadShapefile(path)
	case ".kmz", ".kml":
		return ReadKMZFile(path)
	case ".txt":
		return ReadDMSFile(path)
	default:
		return nil, geo.Metadata{}, fmt.Errorf("unrecognized input format: %s", filepath.Base(path))
	}
}
