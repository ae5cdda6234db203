// Package label renders a printable batch label as PDF.
package label

import (
	"fmt"
	"io"

	"batchgen/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Label size in mm, a common roll label for thermal printers.
const (
	widthMM  = 62
	heightMM = 40
	marginMM = 3
)

// Render writes a one-page label for b to w.
func Render(w io.Writer, b model.Batch) error {
	// print the stored price text as is
	if _, err := decimal.NewFromString(b.Mrp); err != nil {
		return fmt.Errorf("label: invalid mrp %q for %s: %w", b.Mrp, b.BatchNumber, err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: widthMM, Ht: heightMM},
	})
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Batch "+b.BatchNumber, true)
	pdf.AddPage()

	// core fonts only cover cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentW := float64(widthMM - 2*marginMM)
	keyW := contentW * 0.35

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr(b.ProductType), "", 1, "L", false, 0, "")
	pdf.Line(marginMM, pdf.GetY(), widthMM-marginMM, pdf.GetY())
	pdf.Ln(1)

	rows := [][2]string{
		{"Color", b.Color},
		{"MRP", b.Mrp},
		{"MFD", b.MfdDate},
	}
	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		pdf.CellFormat(keyW, 5, r[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-keyW, 5, tr(r[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(1)
	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(contentW, 8, b.BatchNumber, "1", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("label: write pdf: %w", err)
	}
	return nil
}
