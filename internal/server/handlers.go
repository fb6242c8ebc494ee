// Package server handles HTTP requests and middleware.
package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Jerell/bathymetry-tool/internal/export"
	"github.com/Jerell/bathymetry-tool/internal/geo"
	"github.com/Jerell/bathymetry-tool/internal/reader"
	"github.com/Jerell/bathymetry-tool/internal/segment"
)

// componentExts are the shapefile component files accepted in a multi-file
// upload. Only .shp is required.
var componentExts = map[string]bool{
	".shp": true,
	".shx": true,
	".dbf": true,
	".prj": true,
}

// HandleIndex serves the upload page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleHealth reports service liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleProcess accepts one KMZ/KML file, one ZIP of shapefile components, or
// multiple individual component files, and responds with the computed
// segments as CSV (default) or JSON.
func (s *ServerContext) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST with multipart form data")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.Config.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	points, meta, err := s.readUpload(uploads)
	if err != nil {
		status := http.StatusBadRequest
		if !isClientFault(err) {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err.Error())
		return
	}

	segments, err := segment.Compute(points, segment.MetricFor(meta))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := geo.Result{Metadata: meta, Segments: segments}

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Error().Err(err).Msg("Failed to write JSON response")
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pipeline_segments.csv"`)
	if err := export.WriteCSV(w, segments); err != nil {
		log.Error().Err(err).Msg("Failed to stream CSV response")
	}
}

// readUpload dispatches on what was uploaded: a single KMZ/KML, a single ZIP
// of shapefile components, or loose component files.
func (s *ServerContext) readUpload(uploads []*multipart.FileHeader) ([]geo.CoordinatePoint, geo.Metadata, error) {
	if len(uploads) == 1 {
		name := strings.ToLower(uploads[0].Filename)
		switch {
		case strings.HasSuffix(name, ".kmz") || strings.HasSuffix(name, ".kml"):
			data, err := readUploadBytes(uploads[0])
			if err != nil {
				return nil, geo.Metadata{}, err
			}
			return reader.ReadKMZ(data)
		case strings.HasSuffix(name, ".zip"):
			return s.readZipUpload(uploads[0])
		}
	}
	return s.readComponentUpload(uploads)
}

// readZipUpload extracts a shapefile archive into a request-scoped temp
// directory, removed on every exit path.
func (s *ServerContext) readZipUpload(upload *multipart.FileHeader) ([]geo.CoordinatePoint, geo.Metadata, error) {
	dir, err := os.MkdirTemp("", "upload-zip-*")
	if err != nil {
		return nil, geo.Metadata{}, &internalError{err}
	}
	defer cleanupDir(dir)

	data, err := readUploadBytes(upload)
	if err != nil {
		return nil, geo.Metadata{}, err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, geo.Metadata{}, fmt.Errorf("invalid zip archive: %w", err)
	}

	shpPath := ""
	for _, f := range archive.File {
		base := filepath.Base(f.Name)
		ext := strings.ToLower(filepath.Ext(base))
		if !componentExts[ext] || f.FileInfo().IsDir() {
			continue
		}

		out := filepath.Join(dir, base)
		if err := extractZipEntry(f, out); err != nil {
			return nil, geo.Metadata{}, &internalError{err}
		}
		if ext == ".shp" && shpPath == "" {
			shpPath = out
		}
	}

	if shpPath == "" {
		return nil, geo.Metadata{}, errors.New("no .shp file found in zip archive")
	}

	return reader.ReadShapefile(shpPath)
}

// readComponentUpload assembles loose shapefile component files in a temp
// directory under one basename so the companion lookup works.
func (s *ServerContext) readComponentUpload(uploads []*multipart.FileHeader) ([]geo.CoordinatePoint, geo.Metadata, error) {
	dir, err := os.MkdirTemp("", "upload-shp-*")
	if err != nil {
		return nil, geo.Metadata{}, &internalError{err}
	}
	defer cleanupDir(dir)

	haveShp := false
	for _, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		if !componentExts[ext] {
			continue
		}

		data, err := readUploadBytes(upload)
		if err != nil {
			return nil, geo.Metadata{}, err
		}
		if err := os.WriteFile(filepath.Join(dir, "upload"+ext), data, 0644); err != nil {
			return nil, geo.Metadata{}, &internalError{err}
		}
		if ext == ".shp" {
			haveShp = true
		}
	}

	if !haveShp {
		return nil, geo.Metadata{}, errors.New("missing required .shp file")
	}

	return reader.ReadShapefile(filepath.Join(dir, "upload.shp"))
}

func extractZipEntry(f *zip.File, out string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	_, err = io.Copy(dst, rc)
	return err
}

func readUploadBytes(upload *multipart.FileHeader) ([]byte, error) {
	f, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", upload.Filename, err)
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(f)
}

func cleanupDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Failed to remove temp directory")
	}
}

// internalError marks failures of the service itself, as opposed to bad
// input, so the handler can pick the right status code.
type internalError struct{ err error }

func (e *internalError) Error() string { return e.err.Error() }
func (e *internalError) Unwrap() error { return e.err }

func isClientFault(err error) bool {
	var ie *internalError
	return !errors.As(err, &ie)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
