// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package config loads and validates the panel configuration.
//
// Configuration is layered with Koanf v2 (highest priority wins):
//
//  1. Environment variables (legacy PAL_* / REST_API_* names preserved)
//  2. YAML config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
//
// The resulting Config is immutable after Load; components receive the
// sections they need at construction time.
package config
