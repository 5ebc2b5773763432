// Package report renders staff exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/campus-portal/internal/model"
)

// RosterSheet is the worksheet name of the roster export.
const RosterSheet = "Roster"

var rosterHeader = []interface{}{"ID", "Name", "Email", "Role", "Department", "Year", "Points", "Joined"}

// WriteRoster writes rows as an .xlsx workbook to w.  The first row is a
// bold header; every following row is one user.
func WriteRoster(w io.Writer, rows []model.RosterEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", RosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := rosterHeader
	if err := f.SetSheetRow(RosterSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(RosterSheet, "A1", "H1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.ID,
			r.Name,
			r.Email,
			string(r.Role),
			deref(r.Department),
			deref(r.Year),
			r.Points,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(RosterSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(RosterSheet, "A", "A", 38)
	_ = f.SetColWidth(RosterSheet, "B", "C", 28)

	return f.Write(w)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
