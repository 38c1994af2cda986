package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application identity sent with every upload.
type ClientApp struct {
	// DeviceID identifies this installation.
	DeviceID string
	// DeviceType labels the device class ("cli", "desktop", "mobile").
	DeviceType string
	// Version is the application version string.
	Version string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// BaseURL is the sync server base URL.
	BaseURL string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Path is the SQLite file backing the local store.
	Path string
	// CacheTTL is the lifetime of in-memory read cache entries.
	CacheTTL time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains device identity settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Sync contains synchronization engine tunables.
	Sync Sync
}

// GetClientConfig builds and validates a client-specific config view from
// the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			DeviceID:   cfg.App.DeviceID,
			DeviceType: cfg.App.DeviceType,
			Version:    cfg.App.Version,
		},
		Adapter: ClientAdapter{
			BaseURL:        cfg.Adapter.BaseURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			Path:     cfg.Storage.Local.Path,
			CacheTTL: cfg.Storage.Local.CacheTTL,
		},
		Sync: cfg.Sync,
	}

	return clientCfg, clientCfg.validate()
}
