package service

import (
	"github.com/ykarpov/billkeeper/internal/config"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/store"
)

type Services struct {
	AuthService AuthService
	SyncService SyncService
}

func NewServices(repository store.SyncRepository, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService: NewAuthService(cfg.App, logger),
		SyncService: NewSyncService(repository, logger),
	}
}
