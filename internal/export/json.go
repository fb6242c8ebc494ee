package export

import (
	"encoding/json"
	"io"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// WriteJSON writes the full result document {metadata, segments}.
func WriteJSON(w io.Writer, result geo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
