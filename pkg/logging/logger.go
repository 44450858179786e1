// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for CanopyWatch components.
//
// The package is a thin layer over the standard library slog package. It
// exists so every process in the deployment logs the same way: JSON to
// stdout for container log collection, optionally duplicated to a dated
// file when a log directory is configured.
//
// # Basic Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    Service: "screening",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Close()
//	logger.SetDefault()
//
// After SetDefault, package-level slog calls anywhere in the process go
// through this logger.
//
// # File Logging
//
// Setting Config.LogDir writes a second copy of every record to
// "{service}_{YYYY-MM-DD}.log" inside that directory. File logs are
// always JSON.
//
// # Security Considerations
//
// This package does NOT redact sensitive data. Callers must ensure
// credential material and key file contents are never logged; log the
// slot name or client_email, never the key.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown strings fall back
// to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger. A zero-value Config logs Info and above
// as JSON to stdout with no file copy.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo
	Level Level

	// Service is attached to every record as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// LogDir enables file logging. When set, records are also written to
	// "{Service}_{YYYY-MM-DD}.log" in this directory, which is created
	// with 0750 permissions if needed. Default: "" (disabled)
	LogDir string

	// Writer overrides the primary output stream, mainly for tests.
	// Default: os.Stdout
	Writer io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps a slog.Logger with optional file duplication and cleanup.
// Safe for concurrent use; all mutable state lives in the underlying
// slog handler.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New creates a Logger from the given configuration.
func New(cfg Config) (*Logger, error) {
	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}

	l := &Logger{}

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", cfg.LogDir, err)
		}
		name := fmt.Sprintf("%s_%s.log", fileStem(cfg.Service), time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(out, f)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.Level.toSlogLevel(),
	})
	l.Logger = slog.New(handler)
	if cfg.Service != "" {
		l.Logger = l.Logger.With("service", cfg.Service)
	}

	return l, nil
}

// SetDefault installs this logger as the process-wide slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

// Close releases the log file, if any. Safe to call more than once.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	return f.Close()
}

func fileStem(service string) string {
	if service == "" {
		return "canopy"
	}
	return service
}
