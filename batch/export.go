package batch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"batchgen/database"

	"github.com/labstack/echo/v4"
)

const dateParamLayout = "2006-01-02"

// Export streams the stored records as CSV, optionally limited to a
// manufacture date range.
// GET /api/batches/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Export(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateParamLayout, d); err != nil {
			return jsonMessage(c, http.StatusBadRequest, "from/to must be YYYY-MM-DD")
		}
	}

	batches, err := database.ListBatchesByMfdDate(c.Request().Context(), h.db, from, to)
	if err != nil {
		h.log.Error("Error exporting batches", "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to export batches")
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM

	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	w.Write([]string{"Batch Number", "Product Type", "Color", "MRP", "MFD", "Generated"})
	for _, b := range batches {
		w.Write([]string{b.BatchNumber, b.ProductType, b.Color, b.Mrp, b.MfdDate, b.DateGenerated})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("Error writing export csv", "error", err)
		return jsonMessage(c, http.StatusInternalServerError, "Failed to export batches")
	}

	filename := fmt.Sprintf("batches_%s.csv", exportSuffix(from, to))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Response().Header().Set("X-Record-Count", strconv.Itoa(len(batches)))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func exportSuffix(from, to string) string {
	switch {
	case from == "" && to == "":
		return "all"
	case to == "":
		return from + "_"
	case from == "":
		return "_" + to
	}
	return from + "_" + to
}
