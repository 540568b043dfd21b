// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"context"
	"fmt"
)

// Disabled is the API stand-in when no REST endpoint is configured. It
// reports permanently unavailable so callers take their fallback paths
// instead of special-casing a nil client.
type Disabled struct{}

var _ API = (*Disabled)(nil)

func (Disabled) GetPlayers(context.Context) ([]Player, error) {
	return nil, fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) GetSettings(context.Context) (map[string]any, error) {
	return nil, fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) Announce(context.Context, string) error {
	return fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) Save(context.Context) error {
	return fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) Shutdown(context.Context, int, string) error {
	return fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) Stop(context.Context) error {
	return fmt.Errorf("%w: rest api disabled", ErrUnreachable)
}

func (Disabled) Available() (bool, error) {
	return false, nil
}
