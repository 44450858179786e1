// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInternal_MissingFileUsesDefaults(t *testing.T) {
	require.NoError(t, loadInternal(filepath.Join(t.TempDir(), "canopy.yaml")))

	assert.Equal(t, 12240, Global.Server.Port)
	assert.Equal(t, "./credentials", Global.Credentials.Dir)
	assert.True(t, Global.Processing.ParallelEnabled)
	assert.Equal(t, 8, Global.Processing.MaxWorkers)
}

func TestLoadInternal_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	doc := `
server:
  port: 9000
  gin_mode: test
compute:
  endpoint: http://zonal:9090
  timeout_seconds: 60
credentials:
  dir: /etc/canopy/keys
  strict: true
processing:
  parallel_enabled: false
  max_workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	require.NoError(t, loadInternal(path))

	assert.Equal(t, 9000, Global.Server.Port)
	assert.Equal(t, "http://zonal:9090", Global.Compute.Endpoint)
	assert.Equal(t, 60, Global.Compute.TimeoutSeconds)
	assert.Equal(t, "/etc/canopy/keys", Global.Credentials.Dir)
	assert.True(t, Global.Credentials.Strict)
	assert.False(t, Global.Processing.ParallelEnabled)
	assert.Equal(t, 4, Global.Processing.MaxWorkers)
}

func TestLoadInternal_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	assert.Error(t, loadInternal(path))
}

func TestLoadInternal_EnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	doc := `
server:
  port: 9000
processing:
  max_workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv("CANOPY_PORT", "7777")
	t.Setenv("MAX_PARALLEL_WORKERS", "2")
	t.Setenv("ENABLE_PARALLEL_PROCESSING", "false")
	t.Setenv("EUDR_STRICT_CREDENTIALS", "1")

	require.NoError(t, loadInternal(path))

	assert.Equal(t, 7777, Global.Server.Port)
	assert.Equal(t, 2, Global.Processing.MaxWorkers)
	assert.False(t, Global.Processing.ParallelEnabled)
	assert.True(t, Global.Credentials.Strict)
}

func TestLoadInternal_IgnoresBadNumericEnv(t *testing.T) {
	t.Setenv("CANOPY_PORT", "not-a-port")

	require.NoError(t, loadInternal(filepath.Join(t.TempDir(), "canopy.yaml")))
	assert.Equal(t, 12240, Global.Server.Port)
}
