// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
)

// ErrBadCredentials is returned for a wrong password. It carries no
// detail so responses cannot distinguish wrong from rate limited at the
// message level alone.
var ErrBadCredentials = fmt.Errorf("invalid credentials")

// ErrRateLimited is returned when a source address exceeds the login
// attempt budget.
var ErrRateLimited = fmt.Errorf("too many login attempts")

// Verifier checks login attempts against the configured panel password.
// The password may be stored as a bcrypt hash ($2a$, $2b$, $2y$
// prefixes) or as plaintext; plaintext comparison is constant time.
type Verifier struct {
	password string
	hashed   bool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewVerifier builds a verifier from the security configuration.
func NewVerifier(cfg *config.SecurityConfig) (*Verifier, error) {
	if cfg.PanelPassword == "" {
		return nil, fmt.Errorf("panel_password is required")
	}
	hashed := strings.HasPrefix(cfg.PanelPassword, "$2a$") ||
		strings.HasPrefix(cfg.PanelPassword, "$2b$") ||
		strings.HasPrefix(cfg.PanelPassword, "$2y$")
	if !hashed {
		logging.Warn().Msg("Panel password stored as plaintext, consider a bcrypt hash")
	}
	return &Verifier{
		password: cfg.PanelPassword,
		hashed:   hashed,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Verify checks one login attempt from addr. Rate limiting is applied
// before the password comparison so a flood of attempts cannot probe
// the password at full speed.
func (v *Verifier) Verify(addr, password string) error {
	if !v.limiter(addr).Allow() {
		logging.Warn().Str("addr", addr).Msg("Login rate limited")
		return ErrRateLimited
	}

	if v.hashed {
		if err := bcrypt.CompareHashAndPassword([]byte(v.password), []byte(password)); err != nil {
			logging.Warn().Str("addr", addr).Msg("Failed login attempt")
			return ErrBadCredentials
		}
		return nil
	}

	want := sha256.Sum256([]byte(v.password))
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		logging.Warn().Str("addr", addr).Msg("Failed login attempt")
		return ErrBadCredentials
	}
	return nil
}

// limiter returns the per-address limiter, 5 attempts burst refilling
// at one attempt per 10 seconds.
func (v *Verifier) limiter(addr string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, ok := v.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Every(10*time.Second), 5)
		v.limiters[addr] = l
	}
	return l
}
