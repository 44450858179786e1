// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package screening

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})

	assert.Equal(t, 12240, cfg.Port)
	assert.Equal(t, "./credentials", cfg.CredentialsDir)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 120*time.Second, cfg.ComputeTimeout)
	assert.Equal(t, "canopy-otel-collector:4317", cfg.OTelEndpoint)
	assert.True(t, cfg.EnableMetrics)
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := applyConfigDefaults(Config{
		Port:           9999,
		CredentialsDir: "/etc/keys",
		MaxWorkers:     2,
		ComputeTimeout: 30 * time.Second,
		OTelEndpoint:   "collector:4317",
	})

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "/etc/keys", cfg.CredentialsDir)
	assert.Equal(t, 2, cfg.MaxWorkers)
	assert.Equal(t, 30*time.Second, cfg.ComputeTimeout)
	assert.Equal(t, "collector:4317", cfg.OTelEndpoint)
}

func TestNew_RequiresComputeEndpoint(t *testing.T) {
	_, err := New(Config{GinMode: "test"})
	assert.Error(t, err)
}

func TestNew_StrictModeFailsOnEmptyPool(t *testing.T) {
	_, err := New(Config{
		ComputeEndpoint:   "http://localhost:1",
		CredentialsDir:    filepath.Join(t.TempDir(), "nope"),
		StrictCredentials: true,
		GinMode:           "test",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential")
}

func TestNew_DegradedStartupWithoutCredentials(t *testing.T) {
	svc, err := New(Config{
		ComputeEndpoint: "http://localhost:1",
		CredentialsDir:  filepath.Join(t.TempDir(), "nope"),
		GinMode:         "test",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.Pool().Size())
	assert.NotNil(t, svc.Router())
}

func TestNew_LoadsCredentialPool(t *testing.T) {
	dir := t.TempDir()
	for _, slot := range []string{"eudr-0.json", "eudr-4.json"} {
		key := `{"client_email":"svc@project.iam"}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, slot), []byte(key), 0o600))
	}

	svc, err := New(Config{
		ComputeEndpoint: "http://localhost:1",
		CredentialsDir:  dir,
		GinMode:         "test",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Pool().Size())
}

func TestNew_RoutesAreServed(t *testing.T) {
	svc, err := New(Config{
		ComputeEndpoint: "http://localhost:1",
		CredentialsDir:  filepath.Join(t.TempDir(), "nope"),
		GinMode:         "test",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServiceImplementsInterface(t *testing.T) {
	var _ Service = (*service)(nil)
}
