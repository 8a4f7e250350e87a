package api

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportReport_Workbook(t *testing.T) {
	// GIVEN: The weekday-holiday dataset
	s := newTestServer(t, "2025-09-15", 9, 0)
	loadScenario(t, s, "weekday-holiday")

	// WHEN: Exporting August 2025
	rec := s.do(t, http.MethodGet, "/api/payroll/report.xlsx?month=8&year=2025", nil)

	// THEN: The workbook has the totals and one row per day
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll_2025-07-28_2025-08-27.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, daysSheet}, f.GetSheetList())

	label, err := f.GetCellValue(summarySheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total salary", label)

	rows, err := f.GetRows(daysSheet)
	require.NoError(t, err)
	require.Len(t, rows, 32) // header + 31 days
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2025-07-28", rows[1][0])

	// 2025-08-14 is the 18th day of the period
	assert.Equal(t, "2025-08-14", rows[18][0])
	assert.Equal(t, "Paid Day Off (Holiday)", rows[18][1])
}

func TestExportReport_InvalidQuery(t *testing.T) {
	s := newTestServer(t, "2025-09-15", 9, 0)

	rec := s.do(t, http.MethodGet, "/api/payroll/report.xlsx?month=0&year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
