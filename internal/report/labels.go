// Package report adapts the teacher's Avery-5160-style QR label export
// (internal/export/labels.go) to nesting results: one page per sheet
// drawing the packed layout to scale, followed by one QR-coded label per
// placement encoding design id, rotation, and position.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/nestforge/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo is the data encoded into each placement's QR code.
type LabelInfo struct {
	DesignID   string  `json:"design_id"`
	SheetName  string  `json:"sheet_name"`
	Rotation   float64 `json:"rotation_deg"`
	X          float64 `json:"x_mm"`
	Y          float64 `json:"y_mm"`
}

// Label layout constants, carried over from the teacher's Avery
// 5160-compatible label sheet (3 columns, 10 rows per US Letter page).
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0

	// layoutPageMM is the page size used to draw a to-scale sheet layout;
	// the drawing is scaled to fit within it with a 10mm margin.
	layoutPageMM    = 190.0
	layoutPageMargin = 10.0
)

// GenerateReport writes path a PDF with one to-scale layout page per
// result that has placements, followed by one QR label per placement across
// every result, laid out labelsPerPage to a page.
func GenerateReport(path string, results []model.NestingResult) error {
	if len(results) == 0 {
		return fmt.Errorf("report: no results to generate a report for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for _, r := range results {
		if len(r.Placements) == 0 {
			continue
		}
		if err := drawLayoutPage(pdf, r); err != nil {
			return fmt.Errorf("report: draw layout page for %q: %w", r.Sheet.Name, err)
		}
	}

	var labels []LabelInfo
	for _, r := range results {
		for _, p := range r.Placements {
			labels = append(labels, LabelInfo{
				DesignID:  p.DesignID,
				SheetName: r.Sheet.Name,
				Rotation:  float64(p.Rotation),
				X:         p.X,
				Y:         p.Y,
			})
		}
	}
	if len(labels) == 0 {
		return fmt.Errorf("report: no placements to generate labels for")
	}

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight
		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("report: render label for %q: %w", label.DesignID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// drawLayoutPage draws one sheet's placements to scale: a sheet outline
// and a small circle at each placement's X,Y translation. Placement
// outlines and footprints are not drawn.
func drawLayoutPage(pdf *fpdf.Fpdf, r model.NestingResult) error {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(layoutPageMargin, layoutPageMargin-8)
	pdf.CellFormat(layoutPageMM, 6, fmt.Sprintf("%s - %s (%d placed, %.1f%% efficiency)", r.Sheet.Name, r.Strategy, r.Count, r.Efficiency), "", 1, "L", false, 0, "")

	if r.Sheet.Width <= 0 || r.Sheet.Height <= 0 {
		return nil
	}
	scale := layoutPageMM / max(r.Sheet.Width, r.Sheet.Height)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Rect(layoutPageMargin, layoutPageMargin, r.Sheet.Width*scale, r.Sheet.Height*scale, "D")

	pdf.SetDrawColor(120, 120, 200)
	pdf.SetLineWidth(0.15)
	for _, p := range r.Placements {
		x := layoutPageMargin + p.X*scale
		y := layoutPageMargin + p.Y*scale
		pdf.Circle(x, y, 1.2, "D")
	}
	return nil
}

func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.DesignID, int(info.X*1000+info.Y))
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, info.DesignID, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pos := fmt.Sprintf("(%.0f, %.0f) mm", info.X, info.Y)
	pdf.CellFormat(textW, 3.5, pos, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	sheetInfo := fmt.Sprintf("%s, rot %.0f\xb0", info.SheetName, info.Rotation)
	pdf.CellFormat(textW, 3, sheetInfo, "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}
