// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package client implements the offline-first client application runtime.
//
// It wires the durable local store, the mutation queue, the server adapter,
// and the sync orchestrator into a single process lifecycle, and exposes the
// write and read paths for bills and budgets.
package client
