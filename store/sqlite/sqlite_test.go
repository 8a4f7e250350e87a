package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) payroll.Date { return payroll.MustParseDate(s) }

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_SeededDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	all, err := store.AllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, payroll.DefaultSettings, all)

	v, ok, err := store.GetSetting(ctx, payroll.SettingMonthStartDay)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "28", v)

	_, ok, err = store.GetSetting(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettings_PutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSetting(ctx, payroll.SettingFixedMonthlySalary, "60000"))
	require.NoError(t, store.PutSetting(ctx, payroll.SettingFixedMonthlySalary, "75000"))

	v, _, err := store.GetSetting(ctx, payroll.SettingFixedMonthlySalary)
	require.NoError(t, err)
	assert.Equal(t, "75000", v)
}

// =============================================================================
// ATTENDANCE LOGS
// =============================================================================

func TestLogs_UniquePerDate(t *testing.T) {
	// GIVEN: A log for 2025-08-14
	// WHEN: Inserting a second log for the same date
	// THEN: ErrDuplicateLog

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertLog(ctx, payroll.AttendanceLog{Date: d("2025-08-14"), TimeIn: "09:00"}))
	err := store.InsertLog(ctx, payroll.AttendanceLog{Date: d("2025-08-14"), TimeIn: "10:00"})
	assert.ErrorIs(t, err, payroll.ErrDuplicateLog)
}

func TestLogs_GetUpdateDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := d("2025-08-14")

	got, err := store.GetLog(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, store.UpdateLog(ctx, payroll.AttendanceLog{Date: date, TimeIn: "09:00"}), payroll.ErrLogNotFound)
	assert.ErrorIs(t, store.DeleteLog(ctx, date), payroll.ErrLogNotFound)

	require.NoError(t, store.InsertLog(ctx, payroll.AttendanceLog{Date: date, TimeIn: "09:00"}))
	got, err = store.GetLog(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsOpen(), "NULL time_out reads as empty")

	require.NoError(t, store.UpdateLog(ctx, payroll.AttendanceLog{Date: date, TimeIn: "09:00", TimeOut: "18:00"}))
	got, err = store.GetLog(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, "18:00", got.TimeOut)

	require.NoError(t, store.DeleteLog(ctx, date))
	got, err = store.GetLog(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLogs_RangeInclusiveAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, s := range []string{"2025-08-27", "2025-07-27", "2025-07-28", "2025-08-28", "2025-08-01"} {
		require.NoError(t, store.InsertLog(ctx, payroll.AttendanceLog{Date: d(s), TimeIn: "09:00"}))
	}

	logs, err := store.LogsInRange(ctx, d("2025-07-28"), d("2025-08-27"))
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2025-07-28", logs[0].Date.String())
	assert.Equal(t, "2025-08-01", logs[1].Date.String())
	assert.Equal(t, "2025-08-27", logs[2].Date.String())
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, payroll.Holiday{Date: d("2025-08-14"), Description: "Independence Day"}))
	assert.ErrorIs(t, store.SaveHoliday(ctx, payroll.Holiday{Date: d("2025-08-14"), Description: "Again"}), payroll.ErrDuplicateHoliday)

	holidays, err := store.HolidaysInRange(ctx, d("2025-08-01"), d("2025-08-31"))
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Independence Day", holidays[0].Description)

	require.NoError(t, store.DeleteHoliday(ctx, d("2025-08-14")))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, d("2025-08-14")), payroll.ErrHolidayNotFound)
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func TestRuns_OnePerPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	period := payroll.PayPeriod{Start: d("2025-07-28"), End: d("2025-08-27")}

	recorded, err := store.IsRunRecorded(ctx, period)
	require.NoError(t, err)
	assert.False(t, recorded)

	run := payroll.PayrollRun{
		ID:          "run-1",
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		TotalSalary: decimal.RequireFromString("58000.00"),
		GrossSalary: decimal.RequireFromString("60000"),
		Summary:     "closed",
		CreatedAt:   time.Date(2025, time.August, 28, 1, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveRun(ctx, run))

	run.ID = "run-2"
	assert.ErrorIs(t, store.SaveRun(ctx, run), payroll.ErrRunExists)

	recorded, err = store.IsRunRecorded(ctx, period)
	require.NoError(t, err)
	assert.True(t, recorded)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.True(t, runs[0].TotalSalary.Equal(decimal.NewFromInt(58000)))
	assert.True(t, runs[0].CreatedAt.Equal(run.CreatedAt))
}

// =============================================================================
// RESET AND SNAPSHOT
// =============================================================================

func TestReset_ClearsAndReseeds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSetting(ctx, payroll.SettingHourlyRate, "250"))
	require.NoError(t, store.InsertLog(ctx, payroll.AttendanceLog{Date: d("2025-08-14"), TimeIn: "09:00"}))
	require.NoError(t, store.Reset(ctx))

	v, _, err := store.GetSetting(ctx, payroll.SettingHourlyRate)
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	logs, err := store.LogsInRange(ctx, d("2025-01-01"), d("2025-12-31"))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSnapshot_EngineReadsThroughTransaction(t *testing.T) {
	// GIVEN: A configured store with a full month of logs
	// WHEN: Reports are computed while logs are being edited concurrently
	// THEN: Every report is computed without error and has 31 days

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutSetting(ctx, payroll.SettingFixedMonthlySalary, "60000"))
	require.NoError(t, store.PutSetting(ctx, payroll.SettingHourlyRate, "250"))

	period := payroll.PayPeriod{Start: d("2025-07-28"), End: d("2025-08-27")}
	for _, day := range period.Days() {
		if !day.IsWeekend() {
			require.NoError(t, store.InsertLog(ctx, payroll.AttendanceLog{Date: day, TimeIn: "09:00"}))
		}
	}

	engine := payroll.NewEngine(store)
	require.NotNil(t, engine.Snapshots)
	engine.Now = func() time.Time { return time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC) }

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			in := "09:00"
			if i%2 == 0 {
				in = "10:30"
			}
			_ = store.UpdateLog(ctx, payroll.AttendanceLog{Date: d("2025-08-05"), TimeIn: in})
		}
	}()

	for i := 0; i < 20; i++ {
		r, err := engine.CalculatePeriod(ctx, period)
		require.NoError(t, err)
		assert.Len(t, r.Days, 31)
	}
	wg.Wait()
}
