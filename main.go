package main

import (
	"context"
	"os"

	"batchgen/allocator"
	"batchgen/catalog"
	"batchgen/config"
	"batchgen/database"
	"batchgen/logger"
	"batchgen/server"
	"batchgen/undo"
	"batchgen/window"
)

func main() {
	configPath := config.DefaultConfigPath
	if p := os.Getenv("BATCHGEN_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.New("info", "text").Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	log.Info("Connecting to database...", "path", cfg.DatabasePath)
	dbConn, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	log.Info("Database connection successful.")

	cat, err := catalog.Load(cfg.ProductTypesFile, cfg.ColorsFile, cfg.ListEncoding)
	if err != nil {
		log.Error("Failed to load product type and color lists", "error", err)
		os.Exit(1)
	}
	if cfg.TypeCodeMode == config.TypeCodeBinary {
		if _, ok := cat.ProductType(cfg.SpecialType); !ok {
			log.Error("specialType is not in the product type list", "special_type", cfg.SpecialType)
			os.Exit(1)
		}
	}
	log.Info("Lists loaded.", "product_types", len(cat.ProductTypes()), "colors", len(cat.Colors()))

	allocOpts := []allocator.Option{allocator.WithSequenceDigits(cfg.SequenceDigits)}
	if cfg.TypeCodeMode == config.TypeCodeBinary {
		allocOpts = append(allocOpts, allocator.WithBinaryTypeCode(cfg.SpecialType))
	}
	alloc := allocator.New(dbConn, cat, log, allocOpts...)

	undoCtrl := undo.New(undo.NewStoreRemover(dbConn), cfg.UndoWindow, cfg.TickInterval(), log)
	defer undoCtrl.Close()

	e := server.New(log)
	SetupRoutes(e, appDeps{
		db:         dbConn,
		catalog:    cat,
		allocator:  alloc,
		undo:       undoCtrl,
		cfg:        cfg,
		configPath: configPath,
		log:        log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	windows := make(chan *window.Window, 1)
	ready := func(url string) {
		if !cfg.OpenWindow {
			log.Info("Operator page ready", "url", url)
			return
		}
		w, err := window.Open(ctx, url)
		if err != nil {
			log.Warn("Failed to open app window, falling back to system browser", "error", err)
			if err := window.OpenSystemBrowser(url); err != nil {
				log.Warn("failed to open browser", "error", err)
			}
			return
		}
		windows <- w
	}

	if err := server.Run(ctx, e, cfg.ListenAddr, log, ready); err != nil {
		log.Error("server start error", "error", err)
		os.Exit(1)
	}
	select {
	case w := <-windows:
		if err := w.Close(); err != nil {
			log.Warn("failed to close app window", "error", err)
		}
	default:
	}
}
