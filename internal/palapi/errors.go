// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable indicates the REST API did not answer at the network
	// level. This is the normal condition while the game server is down
	// or still booting and is not treated as an operational fault.
	ErrUnreachable = errors.New("palworld api unreachable")

	// ErrUnauthorized indicates the API rejected the configured
	// credentials. Retrying without a config change cannot succeed.
	ErrUnauthorized = errors.New("palworld api rejected credentials")

	// ErrMalformedResponse indicates the API answered with a body the
	// client could not decode.
	ErrMalformedResponse = errors.New("palworld api returned malformed response")
)

// HTTPError carries a non-2xx status code that is not covered by the
// sentinel errors above.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("palworld api returned status %d", e.Code)
}
