package http

import (
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/service"
)

type Handler struct {
	services *service.Services

	// version is the server build version reported on GET /api/version.
	version string

	logger *logger.Logger
}

func NewHandler(services *service.Services, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		version:  version,
		logger:   logger,
	}
}
