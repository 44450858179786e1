// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the screening-specific binding validations
// on gin's validator engine. Call once before route registration.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("buffer_km", func(fl validator.FieldLevel) bool {
			buffer := fl.Field().Float()
			return buffer > 0 && buffer <= datatypes.MaxBufferKm
		})
	}
}

// Info describes the API surface.
func Info() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "CanopyWatch EUDR Forest Compliance API",
			"version":     datatypes.APIVersion,
			"description": "EUDR compliance screening with 3 core satellite datasets",
			"endpoints": gin.H{
				"eudr_compliance":     "/v1/eudr-compliance",
				"geojson_processing":  "/v1/process-geojson",
				"geojson_file_upload": "/v1/upload-geojson",
				"health_check":        "/health",
				"metrics":             "/metrics",
			},
			"core_datasets":       datasetsUsed,
			"risk_classification": "Binary (high/low)",
		})
	}
}

// HealthCheck reports service health plus credential pool capacity.
func HealthCheck(pool *accounts.Pool, maxWorkers int, parallelEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   datatypes.APIVersion,
			"processing": gin.H{
				"accounts_available":  pool.Size(),
				"max_workers":         maxWorkers,
				"parallel_processing": parallelEnabled && pool.Size() > 0,
			},
			"limits": gin.H{
				"max_buffer_km":      datatypes.MaxBufferKm,
				"max_upload_size_mb": datatypes.MaxUploadBytes >> 20,
			},
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
