// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the screening API endpoints onto a gin router.
package routes

import (
	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/AleutianAI/CanopyWatch/services/screening/dispatch"
	"github.com/AleutianAI/CanopyWatch/services/screening/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *gin.Engine, d *dispatch.Dispatcher, pool *accounts.Pool,
	maxWorkers int, parallelEnabled bool) {

	handlers.RegisterValidations()

	router.GET("/", handlers.Info())
	router.GET("/health", handlers.HealthCheck(pool, maxWorkers, parallelEnabled))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/eudr-compliance", handlers.HandleCompliance(d))
		v1.POST("/process-geojson", handlers.HandleProcessGeoJSON(d))
		v1.POST("/upload-geojson", handlers.HandleUploadGeoJSON(d))
	}
}
