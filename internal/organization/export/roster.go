// Package export renders an organization's professional roster as XLSX.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"clinic/internal/organization/models"
	"clinic/pkg/platform/strings"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	rosterSheet   = "Professionals"
	summarySheet  = "Organization"
	defaultSheet  = "Sheet1"
	dateLayout    = "02/01/2006 15:04"
	headerFillHex = "#E6F3FF"
)

// RosterHeader lists the roster columns in order.
var RosterHeader = []string{
	"Name",
	"Type",
	"Board",
	"Registration Number",
	"CPF",
	"Email",
	"Phone",
	"Status",
}

var rosterWidths = []float64{35, 15, 8, 22, 16, 32, 22, 10}

// FileName is the attachment name for org's roster.
func FileName(org *models.Organization) string {
	return fmt.Sprintf("professionals-%s.xlsx", org.CNPJ)
}

// Roster builds a workbook with one row per professional and a second sheet
// describing the organization.
func Roster(org *models.Organization, professionals []models.ProfessionalSummary, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, rosterSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFillHex}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeHeader(f, rosterSheet, RosterHeader, headerStyle); err != nil {
		return nil, err
	}
	for i, width := range rosterWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(rosterSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	for i, p := range professionals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			p.Name,
			p.Type,
			p.Board,
			p.RegistrationNumber,
			strings.FormatCPF(p.Document),
			p.Email,
			p.Phone,
			status(p.Active),
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	summary := [][]any{
		{"Trade Name", org.TradeName},
		{"Legal Name", org.LegalName},
		{"CNPJ", org.FormattedCNPJ()},
		{"Professionals", len(professionals)},
		{"Generated At", generatedAt.Format(dateLayout)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style summary: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 30); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func status(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
