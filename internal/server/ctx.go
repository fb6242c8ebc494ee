package server

import (
	"github.com/rs/zerolog/log"

	"github.com/Jerell/bathymetry-tool/assets"
	"github.com/Jerell/bathymetry-tool/internal/config"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	IndexHTML []byte
	Favicon   []byte
}

// NewServerContext initializes the context with the loaded configuration and
// embedded assets.
func NewServerContext(cfg *config.Config) *ServerContext {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = config.Default().MaxUploadMB
	}

	log.Info().
		Int("max_upload_mb", cfg.MaxUploadMB).
		Msg("Initializing server context")

	return &ServerContext{
		Config:    cfg,
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
	}
}
