package api

import (
	"fmt"
	"io"

	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet = "Summary"
	daysSheet    = "Days"
)

var dayColumns = []struct {
	Header string
	Width  float64
}{
	{"Date", 12},
	{"Status", 28},
	{"IN", 8},
	{"OUT", 8},
	{"Pay", 12},
	{"Reason", 40},
}

// WriteReportXLSX renders a report as a two-sheet workbook: the totals and
// deductions, then one row per day.
func WriteReportXLSX(w io.Writer, report payroll.PayrollReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(daysSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, report, bold, money); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeDaysSheet(f, report, bold, money); err != nil {
		return fmt.Errorf("days sheet: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func writeSummarySheet(f *excelize.File, r payroll.PayrollReport, bold, money int) error {
	rows := []struct {
		Label string
		Value any
		Money bool
	}{
		{"Period start", r.PeriodStart.String(), false},
		{"Period end", r.PeriodEnd.String(), false},
		{"Total salary", r.TotalSalary.InexactFloat64(), true},
		{"Gross salary", r.GrossSalary.InexactFloat64(), true},
		{"Total salary until today", r.TotalSalaryUntilToday.InexactFloat64(), true},
		{"Late instances", r.LateCount, false},
		{"Late deduction", r.LateDeduction.InexactFloat64(), true},
		{"Absent days", r.AbsentDays, false},
		{"Absence deduction", r.AbsenceDeduction.InexactFloat64(), true},
		{"Worked Saturdays", r.WorkedSaturdays, false},
		{"Saturday deduction", r.SaturdayDeduction.InexactFloat64(), true},
		{"Summary", r.Summary, false},
	}

	for i, row := range rows {
		label, _ := excelize.CoordinatesToCellName(1, i+1)
		value, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(summarySheet, label, row.Label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, value, row.Value); err != nil {
			return err
		}
		if row.Money {
			if err := f.SetCellStyle(summarySheet, value, value, money); err != nil {
				return err
			}
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 60)
}

func writeDaysSheet(f *excelize.File, r payroll.PayrollReport, bold, money int) error {
	for i, col := range dayColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(daysSheet, cell, col.Header); err != nil {
			return err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(daysSheet, name, name, col.Width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(dayColumns), 1)
	if err := f.SetCellStyle(daysSheet, "A1", last, bold); err != nil {
		return err
	}

	for i, d := range r.Days {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			d.Date.String(),
			string(d.Status),
			d.TimeIn,
			d.TimeOut,
			d.PayContribution.InexactFloat64(),
			d.PenaltyReason,
		}
		if err := f.SetSheetRow(daysSheet, cell, &values); err != nil {
			return err
		}
		pay, _ := excelize.CoordinatesToCellName(5, i+2)
		if err := f.SetCellStyle(daysSheet, pay, pay, money); err != nil {
			return err
		}
	}
	return nil
}
