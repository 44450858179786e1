// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/assemble"
	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/AleutianAI/CanopyWatch/services/screening/dispatch"
	"github.com/gin-gonic/gin"
)

// HandleProcessGeoJSON screens every feature of a GeoJSON document sent as
// a JSON payload.
//
// The document is validated structurally before any dispatch work; once
// dispatch starts the request always answers 200 with per-feature
// success/failure detail embedded in the collection.
func HandleProcessGeoJSON(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.GeoJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		units, err := parseUnits(req.GeoJSON)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start := time.Now()
		batch := d.Dispatch(c.Request.Context(), units)

		c.JSON(http.StatusOK, gin.H{
			"status":                  "success",
			"message":                 "Bulk GeoJSON processing completed",
			"total_features":          batch.TotalUnits,
			"processing_time_seconds": round2(time.Since(start).Seconds()),
			"data":                    assemble.BatchCollection(batch),
			"metadata":                responseMetadata("geojson_batch_processing"),
		})
	}
}

// HandleUploadGeoJSON screens every feature of an uploaded GeoJSON file.
// Files above the 50 MB cap are rejected with 413 before parsing.
func HandleUploadGeoJSON(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'file' upload: " + err.Error()})
			return
		}
		if fileHeader.Size > datatypes.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("File too large: %.1fMB. Max: %dMB",
					float64(fileHeader.Size)/(1<<20), datatypes.MaxUploadBytes>>20),
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload: " + err.Error()})
			return
		}
		defer file.Close()

		contents, err := io.ReadAll(io.LimitReader(file, datatypes.MaxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload: " + err.Error()})
			return
		}

		units, err := parseUnits(contents)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		slog.Info("processing uploaded GeoJSON file",
			"filename", fileHeader.Filename,
			"size_bytes", fileHeader.Size,
			"features", len(units),
		)

		start := time.Now()
		batch := d.Dispatch(c.Request.Context(), units)
		elapsed := time.Since(start)

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "EUDR file processing completed",
			"file_info": gin.H{
				"filename":       fileHeader.Filename,
				"size_mb":        round2(float64(fileHeader.Size) / (1 << 20)),
				"features_count": batch.TotalUnits,
			},
			"analysis_summary": gin.H{
				"total_processed":         batch.TotalUnits,
				"successful":              batch.Successful,
				"failed":                  batch.Failed,
				"parallel_processing":     batch.ProcessingMode == datatypes.ModeParallel,
				"processing_time_seconds": round2(elapsed.Seconds()),
			},
			"data":     assemble.BatchCollection(batch),
			"metadata": responseMetadata("geojson_file_upload"),
		})
	}
}

// parseUnits runs the full structural validation pipeline: JSON shape,
// GeoJSON envelope, and per-feature geometry presence.
func parseUnits(data []byte) ([]datatypes.AnalysisUnit, error) {
	fc, err := datatypes.ParseFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	return datatypes.UnitsFromFeatureCollection(fc)
}
