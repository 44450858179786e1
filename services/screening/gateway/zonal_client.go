// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/AleutianAI/CanopyWatch/services/screening/risk"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2/google"
)

const (
	// computeScope is the OAuth scope required by the compute backend.
	computeScope = "https://www.googleapis.com/auth/earthengine"

	// defaultMaxPixels is the pixel ceiling for best-effort reduction.
	// Generous on purpose: the service is allowed to approximate.
	defaultMaxPixels = 1e13

	defaultCallTimeout = 120 * time.Second
)

// Config configures the zonal-statistics client.
type Config struct {
	// Endpoint is the base URL of the zonal-statistics compute service.
	Endpoint string

	// ScaleMeters is the requested ground resolution. Default: 30.
	ScaleMeters int

	// MaxPixels is the best-effort pixel ceiling. Default: 1e13.
	MaxPixels float64

	// CallTimeout bounds a single evaluate round trip. Default: 120s.
	CallTimeout time.Duration
}

// ZonalClient binds per-credential sessions against the remote compute
// service. It implements Binder.
type ZonalClient struct {
	config Config
}

// NewZonalClient creates a client for the compute service at the given
// endpoint, applying defaults for zero-valued options.
func NewZonalClient(cfg Config) (*ZonalClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("zonal compute endpoint is required")
	}
	if cfg.ScaleMeters == 0 {
		cfg.ScaleMeters = risk.ScaleMeters
	}
	if cfg.MaxPixels == 0 {
		cfg.MaxPixels = defaultMaxPixels
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &ZonalClient{config: cfg}, nil
}

// Bind exchanges the slot's service-account key for an authorized HTTP
// client. The JWT exchange is the expensive step this method exists to
// amortize; workers call it once and reuse the session.
func (z *ZonalClient) Bind(ctx context.Context, handle accounts.Handle) (Session, error) {
	keyData, err := os.ReadFile(handle.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read key file for %s: %w", handle.Name, err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(keyData, computeScope)
	if err != nil {
		return nil, fmt.Errorf("build JWT config for %s: %w", handle.Name, err)
	}

	slog.Debug("bound zonal session", "account", handle.Name, "email", handle.Email)
	return &zonalSession{
		client:  jwtConfig.Client(ctx),
		account: handle.Name,
		config:  z.config,
	}, nil
}

// BindDefault opens a session using application default credentials, the
// fallback when no pool credentials are provisioned. If default credentials
// are unavailable the session still opens with a plain HTTP client; calls
// through it will fail and zero-default per the package contract.
func (z *ZonalClient) BindDefault(ctx context.Context) (Session, error) {
	httpClient, err := google.DefaultClient(ctx, computeScope)
	if err != nil {
		slog.Warn("application default credentials unavailable, using unauthenticated client",
			"error", err)
		httpClient = http.DefaultClient
	}
	return &zonalSession{
		client:  httpClient,
		account: "default",
		config:  z.config,
	}, nil
}

// zonalSession is one credential-bound connection to the compute service.
type zonalSession struct {
	client  *http.Client
	account string
	config  Config
}

// evaluateRequest is the wire request for one zonal reduction.
type evaluateRequest struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Bands      []string          `json:"bands"`
	Reducer    string            `json:"reducer"`
	Scale      int               `json:"scale"`
	MaxPixels  float64           `json:"max_pixels"`
	BestEffort bool              `json:"best_effort"`
}

// evaluateResponse carries the per-band aggregates. Values are pointers
// because the service reports masked-out bands as null.
type evaluateResponse struct {
	Values map[string]*float64 `json:"values"`
	Error  string              `json:"error,omitempty"`
}

// Evaluate issues one blocking reduction call for the geometry.
//
// Null and missing band values normalize to 0.0 (absence of signal is "no
// loss detected"). On any failure the returned map is fully zero-filled
// and the error describes the cause; callers never receive a partial map.
func (s *zonalSession) Evaluate(ctx context.Context, geom *geojson.Geometry, bands []string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	reqBody, err := json.Marshal(evaluateRequest{
		Geometry:   geom,
		Bands:      bands,
		Reducer:    "mean",
		Scale:      s.config.ScaleMeters,
		MaxPixels:  s.config.MaxPixels,
		BestEffort: true,
	})
	if err != nil {
		return ZeroStats(bands), fmt.Errorf("marshal evaluate request: %w", err)
	}

	url := s.config.Endpoint + "/v1/zonal-stats:evaluate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return ZeroStats(bands), fmt.Errorf("build evaluate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("zonal evaluate call failed", "account", s.account, "error", err)
		return ZeroStats(bands), fmt.Errorf("zonal evaluate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ZeroStats(bands), fmt.Errorf("read evaluate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("zonal evaluate rejected",
			"account", s.account, "status", resp.StatusCode)
		return ZeroStats(bands), fmt.Errorf("zonal evaluate: status %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	var parsed evaluateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ZeroStats(bands), fmt.Errorf("parse evaluate response: %w", err)
	}
	if parsed.Error != "" {
		return ZeroStats(bands), fmt.Errorf("zonal evaluate: %s", parsed.Error)
	}

	stats := make(map[string]float64, len(bands))
	for _, band := range bands {
		if v := parsed.Values[band]; v != nil {
			stats[band] = *v
		} else {
			stats[band] = 0
		}
	}
	return stats, nil
}

func (s *zonalSession) Account() string {
	return s.account
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Compile-time interface compliance.
var (
	_ Binder  = (*ZonalClient)(nil)
	_ Session = (*zonalSession)(nil)
)
