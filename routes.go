package main

import (
	"batchgen/allocator"
	"batchgen/batch"
	"batchgen/catalog"
	"batchgen/config"
	"batchgen/logger"
	"batchgen/undo"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type appDeps struct {
	db         *sqlx.DB
	catalog    *catalog.Catalog
	allocator  *allocator.Service
	undo       *undo.Controller
	cfg        config.Config
	configPath string
	log        *logger.Logger
}

func SetupRoutes(e *echo.Echo, d appDeps) {
	batch.NewHandler(d.db, d.catalog, d.allocator, d.undo, d.log).Register(e)

	ch := &configHandler{path: d.configPath, running: d.cfg, log: d.log.WithComponent("config")}
	e.GET("/api/config", ch.GetConfig)
	e.PUT("/api/config", ch.SaveConfig)
}
