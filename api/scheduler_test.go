package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

func TestCloseLastPeriod_RecordsOncePerPeriod(t *testing.T) {
	// GIVEN: The late-penalty dataset and today in the following period
	s := newTestServer(t, "2025-09-02", 8, 0)
	loadScenario(t, s, "late-penalty")

	// WHEN: Closing the last ended period
	rec := s.do(t, http.MethodPost, "/api/payroll/runs/close", nil)

	// THEN: A run for 2025-07-28..2025-08-27 is recorded with the final total
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeJSON[PayrollRunDTO](t, rec)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "2025-07-28", run.PeriodStart)
	assert.Equal(t, "2025-08-27", run.PeriodEnd)
	assert.Equal(t, "56000.00", run.TotalSalary)

	// AND: Closing again conflicts, and the run is listed once
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/payroll/runs/close", nil).Code)
	runs := decodeJSON[[]PayrollRunDTO](t, s.do(t, http.MethodGet, "/api/payroll/runs", nil))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestCloseLastPeriod_NotConfigured(t *testing.T) {
	s := newTestServer(t, "2025-09-02", 8, 0)

	rec := s.do(t, http.MethodPost, "/api/payroll/runs/close", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := s.handler.Closer.CloseLastPeriod(context.Background())
	assert.ErrorIs(t, err, payroll.ErrNotConfigured)
}

func TestRunNow_SkipsRecordedPeriod(t *testing.T) {
	s := newTestServer(t, "2025-09-02", 8, 0)
	loadScenario(t, s, "saturday-shortfall")

	s.handler.Closer.RunNow()
	s.handler.Closer.RunNow()

	runs, err := s.store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "58000.00", runs[0].TotalSalary.StringFixed(2))
}

func TestLastEndedPeriod(t *testing.T) {
	s := newTestServer(t, "2025-08-27", 23, 0)
	policy := payroll.PayPolicy{PeriodStartDay: 28, PeriodEndDay: 27}

	// The period containing 08-27 has not ended yet.
	p := s.handler.Closer.LastEndedPeriod(policy)
	assert.Equal(t, "2025-06-28", p.Start.String())
	assert.Equal(t, "2025-07-27", p.End.String())
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := newTestServer(t, "2025-09-02", 8, 0)

	err := s.handler.Closer.Start("every now and then")
	assert.Error(t, err)
	s.handler.Closer.Stop()
}
