package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T, now string) (*payroll.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	engine := payroll.NewEngine(mem)
	pinned := payroll.MustParseDate(now).Time.Add(10 * time.Hour)
	engine.Now = func() time.Time { return pinned }
	return engine, mem
}

func configure(t *testing.T, s payroll.SettingsStore, settings map[string]string) {
	t.Helper()
	ctx := context.Background()
	for k, v := range settings {
		require.NoError(t, s.PutSetting(ctx, k, v))
	}
}

func seedWeekdays(t *testing.T, s payroll.LogStore, p payroll.PayPeriod, timeIn string) {
	t.Helper()
	for _, l := range weekdayLogs(p, timeIn, nil) {
		require.NoError(t, s.InsertLog(context.Background(), l))
	}
}

type failingLogs struct{ payroll.LogProvider }

func (failingLogs) LogsInRange(context.Context, payroll.Date, payroll.Date) ([]payroll.AttendanceLog, error) {
	return nil, errors.New("disk on fire")
}

type failingSettings struct{}

func (failingSettings) GetSetting(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

// =============================================================================
// ENGINE TESTS
// =============================================================================

func TestEngine_CurrentPeriod_InProgress(t *testing.T) {
	// GIVEN: A configured store and today = 2025-08-05
	// WHEN: Calculating with no month selected
	// THEN: The report covers the period containing today and is in progress

	engine, mem := newTestEngine(t, "2025-08-05")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
	})
	seedWeekdays(t, mem, augustPeriod(), "09:00")

	r, err := engine.CalculateMonthlySalary(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, r.Configured)
	assert.True(t, r.InProgress)
	assert.Equal(t, "2025-07-28", r.PeriodStart.String())
	assert.Equal(t, "2025-08-27", r.PeriodEnd.String())
	assertMoney(t, "14000.00", r.TotalSalaryUntilToday)
}

func TestEngine_SelectedMonth(t *testing.T) {
	engine, mem := newTestEngine(t, "2025-10-02")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
	})
	seedWeekdays(t, mem, augustPeriod(), "09:00")

	r, err := engine.CalculateMonthlySalary(context.Background(), &payroll.ReportMonth{Year: 2025, Month: time.August})
	require.NoError(t, err)

	assert.False(t, r.InProgress)
	assert.Equal(t, "2025-07-28", r.PeriodStart.String())
	assert.True(t, r.TotalSalaryUntilToday.IsZero())
	assertMoney(t, "58000.00", r.TotalSalary, "no Saturdays worked, grace covers one")
}

func TestEngine_DefaultSeed_NotConfigured(t *testing.T) {
	// GIVEN: A fresh store seeded with 0, 0, 28, 27
	// THEN: A zero-salary report, not an error

	engine, _ := newTestEngine(t, "2025-08-05")

	r, err := engine.CalculateMonthlySalary(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, r.Configured)
	assert.Empty(t, r.Days)
	assert.Contains(t, r.Summary, payroll.NotConfiguredSummary)
	assert.Equal(t, "2025-07-28", r.PeriodStart.String())
}

func TestEngine_NonIntegerDay_NotConfigured(t *testing.T) {
	engine, mem := newTestEngine(t, "2025-08-05")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
		payroll.SettingMonthStartDay:      "twenty",
	})

	r, err := engine.CalculateMonthlySalary(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, r.Configured)
	assert.Contains(t, r.Summary, "must be an integer")
}

func TestEngine_CalculatePeriod(t *testing.T) {
	engine, mem := newTestEngine(t, "2025-09-15")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
	})

	r, err := engine.CalculatePeriod(context.Background(), augustPeriod())
	require.NoError(t, err)
	assert.Len(t, r.Days, 31)

	_, err = engine.CalculatePeriod(context.Background(), payroll.PayPeriod{
		Start: payroll.MustParseDate("2025-08-10"),
		End:   payroll.MustParseDate("2025-08-01"),
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestEngine_StorageErrorsAreReturned(t *testing.T) {
	// GIVEN: Providers that fail
	// THEN: The engine returns a wrapped error rather than a report

	_, mem := newTestEngine(t, "2025-08-05")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
	})

	engine := &payroll.Engine{Settings: mem, Logs: failingLogs{}, Holidays: mem}
	_, err := engine.CalculateMonthlySalary(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load attendance logs")
	assert.Contains(t, err.Error(), "disk on fire")

	engine = &payroll.Engine{Settings: failingSettings{}, Logs: mem, Holidays: mem}
	_, err = engine.CalculateMonthlySalary(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read setting fixed_monthly_salary")
}

func TestEngine_DoesNotMutateLogs(t *testing.T) {
	engine, mem := newTestEngine(t, "2025-09-15")
	configure(t, mem, map[string]string{
		payroll.SettingFixedMonthlySalary: "60000",
		payroll.SettingHourlyRate:         "250",
	})
	seedWeekdays(t, mem, augustPeriod(), "09:00")
	before, err := mem.LogsInRange(context.Background(), augustPeriod().Start, augustPeriod().End)
	require.NoError(t, err)

	_, err = engine.CalculateMonthlySalary(context.Background(), &payroll.ReportMonth{Year: 2025, Month: time.August})
	require.NoError(t, err)

	after, err := mem.LogsInRange(context.Background(), augustPeriod().Start, augustPeriod().End)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// =============================================================================
// POLICY TESTS
// =============================================================================

func TestPolicyFromSettings_AbsentValuesUseDefaults(t *testing.T) {
	mem := store.NewMemory()
	for k := range payroll.DefaultSettings {
		mem.DeleteSetting(k)
	}

	p, err := payroll.PolicyFromSettings(context.Background(), mem)
	require.NoError(t, err)
	assert.True(t, p.FixedMonthlySalary.IsZero())
	assert.True(t, p.HourlyRate.IsZero())
	assert.Equal(t, 28, p.PeriodStartDay)
	assert.Equal(t, 27, p.PeriodEndDay)
	assert.False(t, p.IsConfigured())
}

func TestPolicyFromSettings_NonNumericSalaryIsZero(t *testing.T) {
	mem := store.NewMemory()
	configure(t, mem, map[string]string{payroll.SettingFixedMonthlySalary: "a lot", payroll.SettingHourlyRate: "250"})

	p, err := payroll.PolicyFromSettings(context.Background(), mem)
	require.NoError(t, err)
	assert.True(t, p.FixedMonthlySalary.IsZero())
	assert.False(t, p.IsConfigured())
}

func TestPolicyFromSettings_OutOfRangeDay(t *testing.T) {
	mem := store.NewMemory()
	configure(t, mem, map[string]string{payroll.SettingMonthEndDay: "0"})

	_, err := payroll.PolicyFromSettings(context.Background(), mem)
	var cfgErr *payroll.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, payroll.SettingMonthEndDay, cfgErr.Key)
	assert.ErrorIs(t, err, payroll.ErrNotConfigured)
}

func TestApplySettings(t *testing.T) {
	p, err := payroll.ApplySettings(standardPolicy(), map[string]string{payroll.SettingHourlyRate: " 300 "})
	require.NoError(t, err)
	assertMoney(t, "300.00", p.HourlyRate)
	assert.Equal(t, "300", p.Settings()[payroll.SettingHourlyRate])

	_, err = payroll.ApplySettings(standardPolicy(), map[string]string{"bonus": "1"})
	assert.ErrorIs(t, err, payroll.ErrNotConfigured)

	_, err = payroll.ApplySettings(standardPolicy(), map[string]string{payroll.SettingFixedMonthlySalary: "-1"})
	var cfgErr *payroll.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "must not be negative", cfgErr.Reason)

	_, err = payroll.ApplySettings(standardPolicy(), map[string]string{payroll.SettingMonthStartDay: "40"})
	assert.True(t, payroll.IsClientError(err))
}
