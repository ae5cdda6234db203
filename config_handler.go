package main

import (
	"net/http"

	"batchgen/config"
	"batchgen/logger"

	"github.com/labstack/echo/v4"
)

// configHandler は起動中の設定を返し、変更を次回起動用に保存します。
type configHandler struct {
	path    string
	running config.Config
	log     *logger.Logger
}

// GetConfig は現在有効な設定を返します
// GET /api/config
func (h *configHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.running)
}

// SaveConfig は設定ファイルを書き換えます。リスト・採番方式の変更は再起動後に反映されます。
// PUT /api/config
func (h *configHandler) SaveConfig(c echo.Context) error {
	newCfg := h.running
	if err := c.Bind(&newCfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := config.Save(h.path, newCfg); err != nil {
		h.log.Warn("Rejected config update", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}
	h.log.Info("Config saved", "path", h.path)
	return c.JSON(http.StatusOK, map[string]string{"message": "Settings saved. Restart to apply."})
}
