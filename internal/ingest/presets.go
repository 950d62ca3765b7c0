package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/xuri/excelize/v2"
)

// DefaultPresets is the built-in sheet-size catalogue:
// common sheet-goods sizes a shop starts with before maintaining its own
// spreadsheet.
func DefaultPresets() []model.SheetPreset {
	return []model.SheetPreset{
		{ID: "full-4x8", Name: "Full Sheet 4x8", Width: 2440, Height: 1220, Category: "plywood"},
		{ID: "half-4x4", Name: "Half Sheet 4x4", Width: 1220, Height: 1220, Category: "plywood"},
		{ID: "quarter-2x4", Name: "Quarter Sheet 2x4", Width: 1220, Height: 610, Category: "plywood"},
		{ID: "full-5x5", Name: "Full Sheet 5x5", Width: 1525, Height: 1525, Category: "mdf"},
		{ID: "acrylic-4x8", Name: "Acrylic 4x8", Width: 2440, Height: 1220, Category: "acrylic"},
		{ID: "acrylic-2x3", Name: "Acrylic 2x3", Width: 610, Height: 915, Category: "acrylic"},
	}
}

// presetHeaderAliases maps canonical preset columns to accepted header
// spellings, matching the teacher's case-insensitive header detection in
// internal/importer/importer.go, applied to sheet-preset columns instead
// of cut-list part columns.
var presetHeaderAliases = map[string][]string{
	"id":       {"id", "code", "sku"},
	"name":     {"name", "label", "description", "desc"},
	"width":    {"width", "w", "width_mm", "width (mm)"},
	"height":   {"height", "h", "height_mm", "height (mm)"},
	"category": {"category", "material", "type"},
}

type presetColumnMapping struct {
	ID, Name, Width, Height, Category int
}

func detectPresetColumns(row []string) (presetColumnMapping, bool) {
	mapping := presetColumnMapping{ID: -1, Name: -1, Width: -1, Height: -1, Category: -1}
	found := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range presetHeaderAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				found = true
				switch role {
				case "id":
					if mapping.ID == -1 {
						mapping.ID = i
					}
				case "name":
					if mapping.Name == -1 {
						mapping.Name = i
					}
				case "width":
					if mapping.Width == -1 {
						mapping.Width = i
					}
				case "height":
					if mapping.Height == -1 {
						mapping.Height = i
					}
				case "category":
					if mapping.Category == -1 {
						mapping.Category = i
					}
				}
			}
		}
	}
	return mapping, found
}

// LoadPresetsXLSX reads a sheet-preset catalogue from an Excel file's first
// sheet, auto-detecting the header row the same way the teacher's part
// importer does for CSV/Excel part lists.
func LoadPresetsXLSX(path string) ([]model.SheetPreset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open presets workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ingest: presets workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: read presets rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	mapping, hasHeader := detectPresetColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}
	if mapping.Width == -1 || mapping.Height == -1 {
		mapping = presetColumnMapping{ID: 0, Name: 1, Width: 2, Height: 3, Category: 4}
	}

	var presets []model.SheetPreset
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		p, ok := parsePresetRow(row, mapping)
		if ok {
			presets = append(presets, p)
		}
	}
	return presets, nil
}

func parsePresetRow(row []string, m presetColumnMapping) (model.SheetPreset, bool) {
	width, ok := cellFloat(row, m.Width)
	if !ok {
		return model.SheetPreset{}, false
	}
	height, ok := cellFloat(row, m.Height)
	if !ok {
		return model.SheetPreset{}, false
	}
	return model.SheetPreset{
		ID:       cellString(row, m.ID),
		Name:     cellString(row, m.Name),
		Width:    width,
		Height:   height,
		Category: cellString(row, m.Category),
	}, true
}

func cellString(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellFloat(row []string, idx int) (float64, bool) {
	s := cellString(row, idx)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// SavePresetsXLSX writes presets to path as a single-sheet workbook with a
// header row, so a shop can maintain its sheet catalogue as a spreadsheet.
func SavePresetsXLSX(path string, presets []model.SheetPreset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []string{"id", "name", "width_mm", "height_mm", "category"}
	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("ingest: write presets header: %w", err)
		}
	}

	for i, p := range presets {
		row := i + 2
		values := []interface{}{p.ID, p.Name, p.Width, p.Height, p.Category}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("ingest: write presets row %d: %w", i, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("ingest: save presets workbook: %w", err)
	}
	return nil
}
