// Package export renders stored candidates as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hirescope/hirescope/internal/models"
)

// SheetName is the single worksheet of a candidate export.
const SheetName = "Candidates"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the export columns, in order.
var Headers = []string{"Candidate ID", "Name", "Uploaded By", "Uploaded At", "Summary"}

// maxCellChars is the Excel limit on characters in one cell.
const maxCellChars = 32767

// WriteCandidatesXLSX writes candidates as an XLSX workbook to w.
func WriteCandidatesXLSX(w io.Writer, candidates []models.Candidate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeCandidatesSheet(f, candidates); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func writeCandidatesSheet(f *excelize.File, candidates []models.Candidate) error {
	widths := map[string]float64{"A": 32, "B": 25, "C": 18, "D": 22, "E": 100}
	for col, width := range widths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	summaryStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("create summary style: %w", err)
	}

	for i, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", header, err)
		}
	}

	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, c := range candidates {
		row := i + 2

		uploadedAt := ""
		if c.UploadedAt != nil {
			uploadedAt = c.UploadedAt.UTC().Format(time.RFC3339)
		}

		values := []any{c.CandidateID, c.Name, c.UploadedBy, uploadedAt, truncateCell(c.Summary)}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		summaryCell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(SheetName, summaryCell, summaryCell, summaryStyle); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return nil
}

func truncateCell(s string) string {
	r := []rune(s)
	if len(r) <= maxCellChars {
		return s
	}

	return string(r[:maxCellChars])
}
