package batch

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"batchgen/allocator"
	"batchgen/catalog"
	"batchgen/database"
	"batchgen/label"
	"batchgen/logger"
	"batchgen/model"
	"batchgen/undo"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

//go:embed views/index.html
var viewsFS embed.FS

var indexTemplate = template.Must(template.ParseFS(viewsFS, "views/index.html"))

// Handler serves the operator page and the batch API.
type Handler struct {
	db        *sqlx.DB
	catalog   *catalog.Catalog
	allocator *allocator.Service
	undo      *undo.Controller
	log       *logger.Logger
}

// NewHandler creates a new batch handler
func NewHandler(db *sqlx.DB, cat *catalog.Catalog, alloc *allocator.Service, ctrl *undo.Controller, log *logger.Logger) *Handler {
	return &Handler{
		db:        db,
		catalog:   cat,
		allocator: alloc,
		undo:      ctrl,
		log:       log.WithComponent("batch"),
	}
}

// GenerateResponse is returned after a successful allocation.
type GenerateResponse struct {
	*model.Allocation
	Undo undo.State `json:"undo"`
}

// UndoResponse is returned by the undo action.
type UndoResponse struct {
	Message string       `json:"message"`
	Undone  bool         `json:"undone"`
	Batch   *model.Batch `json:"batch,omitempty"`
	Undo    undo.State   `json:"undo"`
}

// CatalogResponse lists the selectable product types and colors.
type CatalogResponse struct {
	ProductTypes []model.ProductType `json:"productTypes"`
	Colors       []model.Color       `json:"colors"`
}

func jsonMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"message": message})
}

// Index renders the operator page.
// GET /
func (h *Handler) Index(c echo.Context) error {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, CatalogResponse{
		ProductTypes: h.catalog.ProductTypes(),
		Colors:       h.catalog.Colors(),
	})
	if err != nil {
		h.log.Error("Error executing index template", "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Internal Server Error")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Catalog returns the product type and color lists.
// GET /api/catalog
func (h *Handler) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, CatalogResponse{
		ProductTypes: h.catalog.ProductTypes(),
		Colors:       h.catalog.Colors(),
	})
}

// Generate allocates a batch number and opens the undo window.
// POST /api/batches
func (h *Handler) Generate(c echo.Context) error {
	var req allocator.Request
	if err := c.Bind(&req); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid request body")
	}

	alloc, err := h.allocator.Generate(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrMissingSelection):
			return jsonMessage(c, http.StatusBadRequest, "Please fill all fields.")
		case errors.Is(err, allocator.ErrUnknownProductType), errors.Is(err, allocator.ErrUnknownColor):
			return jsonMessage(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, allocator.ErrSequenceExhausted):
			return jsonMessage(c, http.StatusConflict, err.Error())
		case errors.Is(err, allocator.ErrBatchNumberTaken):
			h.log.Warn("Batch number collides with an existing record", "error", err)
			return jsonMessage(c, http.StatusConflict,
				"Batch number already exists. The sequence width may have changed after numbers were issued.")
		}
		h.log.Error("Error generating batch number", "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to generate batch number")
	}

	h.undo.Arm(alloc.BatchNumber)

	return c.JSON(http.StatusCreated, GenerateResponse{
		Allocation: alloc,
		Undo:       h.undo.State(),
	})
}

// Undo removes the newest record while the undo window is open.
// POST /api/batches/undo
func (h *Handler) Undo(c echo.Context) error {
	removed, err := h.undo.Undo(c.Request().Context())
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, UndoResponse{
			Message: "Undo successful. No batch details to display.",
			Undone:  true,
			Batch:   removed,
			Undo:    h.undo.State(),
		})
	case errors.Is(err, undo.ErrNothingToUndo):
		return c.JSON(http.StatusOK, UndoResponse{
			Message: "No batch numbers to undo.",
			Undo:    h.undo.State(),
		})
	case errors.Is(err, undo.ErrUndoUnavailable):
		return jsonMessage(c, http.StatusConflict, "Undo window has closed.")
	}
	h.log.Error("Error undoing last batch", "error", err)
	return jsonMessage(c, http.StatusInternalServerError, "Failed to undo last batch")
}

// UndoState reports the countdown for the undo button.
// GET /api/undo
func (h *Handler) UndoState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.undo.State())
}

// List returns the most recent records, newest first.
// GET /api/batches?limit=N
func (h *Handler) List(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return jsonMessage(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxListLimit)
	}

	batches, err := database.ListRecentBatches(c.Request().Context(), h.db, limit)
	if err != nil {
		h.log.Error("Error listing batches", "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to list batches")
	}
	return c.JSON(http.StatusOK, batches)
}

// Get returns one record by batch number.
// GET /api/batches/:number
func (h *Handler) Get(c echo.Context) error {
	number := c.Param("number")
	b, err := database.GetBatchByNumber(c.Request().Context(), h.db, number)
	if err != nil {
		h.log.Error("Error getting batch", "batch_number", number, "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to get batch")
	}
	if b == nil {
		return jsonMessage(c, http.StatusNotFound, "Batch not found")
	}
	return c.JSON(http.StatusOK, b)
}

// Label returns a printable PDF label for one record.
// GET /api/batches/:number/label
func (h *Handler) Label(c echo.Context) error {
	number := c.Param("number")
	b, err := database.GetBatchByNumber(c.Request().Context(), h.db, number)
	if err != nil {
		h.log.Error("Error getting batch", "batch_number", number, "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to get batch")
	}
	if b == nil {
		return jsonMessage(c, http.StatusNotFound, "Batch not found")
	}

	var buf bytes.Buffer
	if err := label.Render(&buf, *b); err != nil {
		h.log.Error("Error rendering label", "batch_number", number, "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to render label")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=\"batch_%s.pdf\"", b.BatchNumber))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.Index)

	api := e.Group("/api")
	{
		api.GET("/catalog", h.Catalog)
		api.GET("/undo", h.UndoState)
		api.GET("/batches", h.List)
		api.GET("/batches/export", h.Export)
		api.POST("/batches", h.Generate)
		api.POST("/batches/undo", h.Undo)
		api.GET("/batches/:number", h.Get)
		api.GET("/batches/:number/label", h.Label)
	}
}
