// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/palward/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		PanelPassword:  "hunter2hunter2",
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	token, err := m.GenerateToken()
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "panel", claims.Subject)
}

func TestJWTRejectsShortSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = "short"
	_, err := NewJWTManager(cfg)
	assert.Error(t, err)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	m1, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	other := testSecurityConfig()
	other.JWTSecret = "ffffffffffffffffffffffffffffffff"
	m2, err := NewJWTManager(other)
	require.NoError(t, err)

	token, err := m1.GenerateToken()
	require.NoError(t, err)

	_, err = m2.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	_, err = m.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifierPlaintext(t *testing.T) {
	v, err := NewVerifier(testSecurityConfig())
	require.NoError(t, err)

	assert.NoError(t, v.Verify("10.0.0.1", "hunter2hunter2"))
	assert.ErrorIs(t, v.Verify("10.0.0.1", "wrong"), ErrBadCredentials)
}

func TestVerifierBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testSecurityConfig()
	cfg.PanelPassword = string(hash)
	v, err := NewVerifier(cfg)
	require.NoError(t, err)

	assert.NoError(t, v.Verify("10.0.0.1", "hunter2hunter2"))
	assert.ErrorIs(t, v.Verify("10.0.0.1", "wrong"), ErrBadCredentials)
}

func TestVerifierRequiresPassword(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.PanelPassword = ""
	_, err := NewVerifier(cfg)
	assert.Error(t, err)
}

func TestVerifierRateLimitsPerAddress(t *testing.T) {
	v, err := NewVerifier(testSecurityConfig())
	require.NoError(t, err)

	// Burn the burst budget from one address.
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, v.Verify("10.0.0.1", "wrong"), ErrBadCredentials)
	}
	assert.ErrorIs(t, v.Verify("10.0.0.1", "hunter2hunter2"), ErrRateLimited)

	// Another address is unaffected.
	assert.NoError(t, v.Verify("10.0.0.2", "hunter2hunter2"))
}

func TestRequireAuthAcceptsBearerAndCookie(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	token, err := m.GenerateToken()
	require.NoError(t, err)

	var sawClaims bool
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawClaims)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejects(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer tampered")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
