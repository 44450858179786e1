// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the gin HTTP handlers for the screening API.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/assemble"
	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/AleutianAI/CanopyWatch/services/screening/dispatch"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var datasetsUsed = []string{
	"GFW Loss (2021-2024)",
	"JRC Loss (2021-2024)",
	"SBTN Loss (2021-2024)",
}

// HandleCompliance screens a single point with a circular buffer.
//
// Validation failures (coordinate ranges, buffer size) are rejected with
// 400 before any dispatch work. A remote failure during processing still
// answers 200 with an error field in the report so callers can tell
// "stats unavailable" from "no loss detected".
func HandleCompliance(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ComplianceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		slog.Info("point compliance analysis requested",
			"latitude", req.Coordinates.Latitude,
			"longitude", req.Coordinates.Longitude,
			"buffer_km", req.BufferKm,
		)

		unit := datatypes.AnalysisUnit{
			ID: fmt.Sprintf("point_%g_%g", req.Coordinates.Latitude, req.Coordinates.Longitude),
			Geometry: geojson.NewGeometry(orb.Point{
				req.Coordinates.Longitude,
				req.Coordinates.Latitude,
			}),
			BufferKm: req.BufferKm,
		}

		batch := d.Dispatch(c.Request.Context(), []datatypes.AnalysisUnit{unit})
		report := assemble.PointReport(batch.Results[0], req.Coordinates, req.BufferKm)

		c.JSON(http.StatusOK, gin.H{
			"success":  batch.Failed == 0,
			"message":  "EUDR compliance analysis completed",
			"data":     report,
			"metadata": responseMetadata("point_binary_classification"),
		})
	}
}

// responseMetadata is the metadata block attached to analysis responses.
func responseMetadata(analysisType string) gin.H {
	return gin.H{
		"processing_timestamp": time.Now().UTC().Format(time.RFC3339),
		"api_version":          datatypes.APIVersion,
		"analysis_type":        analysisType,
		"datasets_used":        datasetsUsed,
	}
}
