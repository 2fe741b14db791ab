package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/clover/pkg/models"
)

const reportSheet = "Duplicates"

var reportHeaders = []string{
	"Last Name", "Middle Name", "First Name", "Email", "Phone",
	"External ID", "Position", "Department", "Duplicate", "Score",
	"Reason", "Matched Record",
}

// WriteReport writes annotated agents as an xlsx workbook, one row per agent
func WriteReport(w io.Writer, annotated []models.AnnotatedAgent) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(reportSheet, "A1", &reportHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	if err := f.SetCellStyle(reportSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, a := range annotated {
		matched := ""
		if a.MatchedRecordID != nil {
			matched = *a.MatchedRecordID
		}
		row := []any{
			a.Agent.LastName, a.Agent.MiddleName, a.Agent.FirstName, a.Agent.Email, a.Agent.Phone,
			a.Agent.ExternalID, a.Agent.PositionName, a.Agent.DepartmentName, a.IsDuplicate, a.DuplicateScore,
			a.DuplicateReason, matched,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	for i := range reportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(reportSheet, col, col, 18)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}
