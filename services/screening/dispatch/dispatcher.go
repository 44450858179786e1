// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dispatch implements credential-rotated parallel dispatch of
// analysis units to the zonal-statistics gateway.
//
// # Execution Model
//
// A batch runs either sequentially (input order preserved) or on a bounded
// worker pool of min(pool size, configured cap) goroutines. Each parallel
// worker draws one credential from the pool via round robin, binds a
// gateway session exactly once, and reuses that session for every unit it
// processes. Results are appended in completion order; callers correlate
// through the stable unit ID carried on every result.
//
// # Failure Model
//
// A failing unit becomes a {id, error} failure record and never cancels
// sibling units, in flight or queued. The dispatcher never retries; callers
// resubmit the failed subset if they want retries. For every batch,
// successful + failed == total and each submitted ID appears exactly once
// in the results.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/AleutianAI/CanopyWatch/services/screening/gateway"
	"github.com/AleutianAI/CanopyWatch/services/screening/observability"
	"github.com/AleutianAI/CanopyWatch/services/screening/risk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("screening.dispatch")

// Options configures dispatch behavior.
type Options struct {
	// ParallelEnabled gates parallel mode. When false every batch runs
	// sequentially regardless of pool size.
	ParallelEnabled bool

	// MaxWorkers caps the worker count in parallel mode. The effective
	// count is min(pool size, MaxWorkers), minimum 1. Default: 8.
	MaxWorkers int
}

// Dispatcher distributes analysis units across the credential pool.
//
// Thread-safe: the only shared mutable state it touches is the pool's
// atomic cursor; everything per-unit is owned by a single worker.
type Dispatcher struct {
	pool    *accounts.Pool
	binder  gateway.Binder
	metrics *observability.ScreeningMetrics
	opts    Options
}

// New creates a dispatcher over the given pool and gateway. The pool is
// passed explicitly rather than reached through ambient state so tests can
// supply deterministic fakes. metrics may be nil to disable instrumentation.
func New(pool *accounts.Pool, binder gateway.Binder, metrics *observability.ScreeningMetrics, opts Options) *Dispatcher {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 8
	}
	return &Dispatcher{
		pool:    pool,
		binder:  binder,
		metrics: metrics,
		opts:    opts,
	}
}

// Dispatch processes every unit and returns the aggregated batch result.
//
// # Description
//
// Chooses parallel mode iff parallel processing is enabled AND the pool
// has at least one credential AND more than one unit was submitted;
// otherwise sequential. The call blocks until every unit has completed.
// Cancellation of ctx does not abort units already handed to the gateway;
// the surrounding request layer may discard the response instead.
//
// # Outputs
//
//   - datatypes.BatchResult: per-unit results plus provenance. Never nil
//     results for submitted units; failures are embedded records.
func (d *Dispatcher) Dispatch(ctx context.Context, units []datatypes.AnalysisUnit) datatypes.BatchResult {
	start := time.Now()

	parallel := d.opts.ParallelEnabled && d.pool.Size() > 0 && len(units) > 1
	workers := 1
	mode := datatypes.ModeSequential
	if parallel {
		workers = min(d.pool.Size(), d.opts.MaxWorkers)
		mode = datatypes.ModeParallel
	}

	ctx, span := tracer.Start(ctx, "dispatch.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("units", len(units)),
		attribute.String("mode", mode),
		attribute.Int("workers", workers),
	)

	slog.Info("dispatching screening batch",
		"units", len(units),
		"mode", mode,
		"workers", workers,
		"accounts", d.pool.Size(),
	)

	var results []datatypes.UnitResult
	if parallel {
		results = d.runParallel(ctx, units, workers)
	} else {
		results = d.runSequential(ctx, units)
	}

	batch := datatypes.BatchResult{
		TotalUnits:        len(units),
		ProcessingMode:    mode,
		WorkersUsed:       workers,
		AccountsAvailable: d.pool.Size(),
		Duration:          time.Since(start),
		Results:           results,
	}
	for _, r := range results {
		if r.Failed() {
			batch.Failed++
		} else {
			batch.Successful++
		}
	}

	d.metrics.RecordBatch(mode, batch.Duration.Seconds())
	slog.Info("screening batch completed",
		"successful", batch.Successful,
		"failed", batch.Failed,
		"duration", batch.Duration.String(),
	)
	return batch
}

// runSequential processes units strictly in input order on one session.
func (d *Dispatcher) runSequential(ctx context.Context, units []datatypes.AnalysisUnit) []datatypes.UnitResult {
	sess, err := d.bindWorkerSession(ctx)

	results := make([]datatypes.UnitResult, 0, len(units))
	for _, unit := range units {
		if err != nil {
			// No session at all: every unit becomes a failure record
			// rather than aborting the batch.
			results = append(results, d.failUnit(unit, fmt.Errorf("session unavailable: %w", err)))
			continue
		}
		results = append(results, d.processUnit(ctx, sess, unit))
	}
	return results
}

// runParallel fans units out to a fixed-size worker pool. Each worker
// binds its session once before taking its first unit and fully processes
// one unit before taking the next.
func (d *Dispatcher) runParallel(ctx context.Context, units []datatypes.AnalysisUnit, workers int) []datatypes.UnitResult {
	work := make(chan datatypes.AnalysisUnit)

	var (
		mu      sync.Mutex
		results = make([]datatypes.UnitResult, 0, len(units))
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			d.metrics.WorkerStarted()
			defer d.metrics.WorkerStopped()

			sess, bindErr := d.bindWorkerSession(ctx)
			for unit := range work {
				var res datatypes.UnitResult
				if bindErr != nil {
					res = d.failUnit(unit, fmt.Errorf("session unavailable: %w", bindErr))
				} else {
					res = d.processUnit(ctx, sess, unit)
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}

	for _, unit := range units {
		work <- unit
	}
	close(work)

	// Workers only return after the channel drains, so every submitted
	// unit has exactly one result here.
	_ = g.Wait()
	return results
}

// bindWorkerSession draws the next pool credential and binds a session for
// the calling worker. An empty pool falls back to the default-credential
// path; a failed per-credential bind also falls back before giving up.
func (d *Dispatcher) bindWorkerSession(ctx context.Context) (gateway.Session, error) {
	handle, err := d.pool.Next()
	if err != nil {
		return d.binder.BindDefault(ctx)
	}

	sess, err := d.binder.Bind(ctx, handle)
	if err != nil {
		slog.Warn("credential bind failed, falling back to default session",
			"account", handle.Name, "error", err)
		return d.binder.BindDefault(ctx)
	}
	return sess, nil
}

// processUnit runs the full pipeline for one unit: zonal statistics,
// per-dataset classification, and compliance aggregation.
func (d *Dispatcher) processUnit(ctx context.Context, sess gateway.Session, unit datatypes.AnalysisUnit) (result datatypes.UnitResult) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "dispatch.processUnit")
	defer span.End()
	span.SetAttributes(
		attribute.String("unit_id", unit.ID),
		attribute.String("account", sess.Account()),
	)

	// A panicking unit becomes a failure record, not a dead worker.
	defer func() {
		if r := recover(); r != nil {
			result = d.failUnit(unit, fmt.Errorf("unit processing panic: %v", r))
		}
		status := "successful"
		if result.Failed() {
			status = "failed"
		}
		span.SetAttributes(attribute.String("status", status))
		d.metrics.RecordUnit(status, time.Since(start).Seconds())
	}()

	if unit.Geometry == nil {
		return d.failUnit(unit, fmt.Errorf("unit %s has no geometry", unit.ID))
	}

	totalArea := unit.TotalAreaHectares()

	stats, err := sess.Evaluate(ctx, unit.Geometry, risk.BandNames())
	if err != nil {
		// The gateway already zero-filled the stats; surfacing the error
		// keeps "stats unavailable" distinguishable from "truly no loss".
		slog.Error("zonal statistics failed for unit",
			"unit_id", unit.ID, "account", sess.Account(), "error", err)
		return d.failUnit(unit, err)
	}

	gfw := risk.Classify(stats, totalArea, "gfw_loss", risk.Years)
	jrc := risk.Classify(stats, totalArea, "jrc_loss", risk.Years)
	sbtn := risk.Classify(stats, totalArea, "sbtn_loss", risk.Years)

	slog.Debug("unit processed",
		"unit_id", unit.ID,
		"account", sess.Account(),
		"duration", time.Since(start).String(),
	)

	return datatypes.UnitResult{
		ID:                unit.ID,
		Account:           sess.Account(),
		Geometry:          unit.Geometry,
		Properties:        unit.Properties,
		TotalAreaHectares: totalArea,
		GFW:               gfw,
		JRC:               jrc,
		SBTN:              sbtn,
		Compliance:        risk.Aggregate(gfw, jrc, sbtn),
	}
}

// failUnit converts an error into a per-unit failure record that still
// carries the id and geometry for caller-side correlation.
func (d *Dispatcher) failUnit(unit datatypes.AnalysisUnit, err error) datatypes.UnitResult {
	return datatypes.UnitResult{
		ID:         unit.ID,
		Geometry:   unit.Geometry,
		Properties: unit.Properties,
		Err:        err.Error(),
	}
}
