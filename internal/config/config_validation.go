// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// server invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Adapter.BaseURL == "" {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Interval <= 0 || cfg.Sync.BatchSize <= 0 || cfg.Sync.MaxAttempts <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
