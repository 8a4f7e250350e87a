package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// 2025-08-14 is a Thursday, 2025-08-16 a Saturday, 2025-08-17 a Sunday.
var (
	thursday = payroll.MustParseDate("2025-08-14")
	saturday = payroll.MustParseDate("2025-08-16")
	sunday   = payroll.MustParseDate("2025-08-17")
)

func standardPolicy() payroll.PayPolicy {
	return payroll.PayPolicy{
		FixedMonthlySalary: decimal.NewFromInt(60000),
		HourlyRate:         decimal.NewFromInt(250),
		PeriodStartDay:     28,
		PeriodEndDay:       27,
	}
}

func logAt(d payroll.Date, in string) *payroll.AttendanceLog {
	return &payroll.AttendanceLog{Date: d, TimeIn: in, TimeOut: "18:00"}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

// =============================================================================
// ARRIVAL TABLE TESTS
// =============================================================================

func TestApplyArrivalRules_Boundaries(t *testing.T) {
	perDay := decimal.NewFromInt(2000)
	rate := decimal.NewFromInt(250)

	tests := []struct {
		timeIn string
		kind   payroll.ArrivalKind
		pay    string
		late   bool
		reason string
	}{
		{"08:30", payroll.ArrivalOnTime, "2000.00", false, payroll.ReasonOnTime},
		{"09:15", payroll.ArrivalOnTime, "2000.00", false, payroll.ReasonOnTime},
		{"09:15:59", payroll.ArrivalLate, "2000.00", true, payroll.ReasonLate},
		{"09:16", payroll.ArrivalLate, "2000.00", true, payroll.ReasonLate},
		{"09:59", payroll.ArrivalLate, "2000.00", true, payroll.ReasonLate},
		{"10:00", payroll.ArrivalLateOneHour, "1750.00", true, payroll.ReasonLateOneHour},
		{"10:59", payroll.ArrivalLateOneHour, "1750.00", true, payroll.ReasonLateOneHour},
		{"11:00", payroll.ArrivalLateTwoHours, "1500.00", true, payroll.ReasonLateTwoHours},
		{"11:59", payroll.ArrivalLateTwoHours, "1500.00", true, payroll.ReasonLateTwoHours},
		{"12:00", payroll.ArrivalHalfDay, "1000.00", false, payroll.ReasonHalfDay},
		{"17:45", payroll.ArrivalHalfDay, "1000.00", false, payroll.ReasonHalfDay},
	}

	for _, tt := range tests {
		t.Run(tt.timeIn, func(t *testing.T) {
			a, err := payroll.ApplyArrivalRules(tt.timeIn, perDay, rate)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, a.Kind)
			assertMoney(t, tt.pay, a.Contribution)
			assert.Equal(t, tt.late, a.Late)
			assert.Equal(t, tt.reason, a.Reason)
		})
	}
}

func TestApplyArrivalRules_ContributionFlooredAtZero(t *testing.T) {
	// GIVEN: An hourly rate larger than half the daily rate
	// WHEN: Arriving two hours late
	// THEN: The contribution is 0, not negative

	a, err := payroll.ApplyArrivalRules("11:30", decimal.NewFromInt(300), decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, a.Contribution.IsZero())
	assert.True(t, a.Late)
}

func TestApplyArrivalRules_MissingAndInvalid(t *testing.T) {
	perDay := decimal.NewFromInt(2000)
	rate := decimal.NewFromInt(250)

	a, err := payroll.ApplyArrivalRules("", perDay, rate)
	require.NoError(t, err)
	assert.Equal(t, payroll.ArrivalMissing, a.Kind)
	assert.Equal(t, payroll.ReasonNoTimeIn, a.Reason)
	assert.False(t, a.Late)

	a, err = payroll.ApplyArrivalRules("25:99", perDay, rate)
	assert.ErrorIs(t, err, payroll.ErrInvalidTime)
	assert.Equal(t, payroll.ArrivalInvalid, a.Kind)
	assert.Equal(t, payroll.ReasonInvalidTime, a.Reason)
	assert.True(t, a.Contribution.IsZero())
}

// =============================================================================
// PRECEDENCE TESTS
// =============================================================================

func TestClassify_HolidayBeatsEverything(t *testing.T) {
	// GIVEN: A weekday holiday with a late log
	// THEN: Paid holiday, full day, not late

	holiday := &payroll.Holiday{Date: thursday, Description: "Independence Day"}
	c := payroll.Classify(standardPolicy(), thursday, logAt(thursday, "10:30"), holiday)

	assert.Equal(t, payroll.StatusHoliday, c.Record.Status)
	assertMoney(t, "2000.00", c.Record.PayContribution)
	assert.Equal(t, "Independence Day", c.Record.PenaltyReason)
	assert.False(t, c.Late)
	assert.False(t, c.Absent)
	assert.False(t, c.HolidaySaturday)
}

func TestClassify_HolidaySaturday_NeverUnlogged(t *testing.T) {
	holiday := &payroll.Holiday{Date: saturday, Description: "Festival"}
	c := payroll.Classify(standardPolicy(), saturday, nil, holiday)

	assert.Equal(t, payroll.StatusHoliday, c.Record.Status)
	assert.NotEqual(t, payroll.StatusUnloggedSat, c.Record.Status)
	assert.True(t, c.HolidaySaturday)
	assert.False(t, c.WorkedSaturday, "a holiday Saturday is not a worked Saturday")
}

func TestClassify_Sunday_NeverAbsent(t *testing.T) {
	c := payroll.Classify(standardPolicy(), sunday, nil, nil)
	assert.Equal(t, payroll.StatusSunday, c.Record.Status)
	assertMoney(t, "2000.00", c.Record.PayContribution)
	assert.False(t, c.Absent)

	// A late log on a Sunday is ignored
	c = payroll.Classify(standardPolicy(), sunday, logAt(sunday, "11:30"), nil)
	assert.Equal(t, payroll.StatusSunday, c.Record.Status)
	assert.False(t, c.Late)
}

func TestClassify_Saturday(t *testing.T) {
	// GIVEN: A Saturday without a log
	// THEN: Unlogged, 0, the quota rule decides later
	c := payroll.Classify(standardPolicy(), saturday, nil, nil)
	assert.Equal(t, payroll.StatusUnloggedSat, c.Record.Status)
	assert.True(t, c.Record.PayContribution.IsZero())
	assert.False(t, c.Absent, "unlogged Saturdays are not absences")
	assert.False(t, c.WorkedSaturday)

	// GIVEN: A Saturday with a late IN
	// THEN: Working Saturday, arrival rules still apply
	c = payroll.Classify(standardPolicy(), saturday, logAt(saturday, "10:15"), nil)
	assert.Equal(t, payroll.StatusWorkingSat, c.Record.Status)
	assertMoney(t, "1750.00", c.Record.PayContribution)
	assert.True(t, c.WorkedSaturday)
	assert.True(t, c.Late)
}

func TestClassify_Weekday(t *testing.T) {
	policy := standardPolicy()

	c := payroll.Classify(policy, thursday, nil, nil)
	assert.Equal(t, payroll.StatusAbsent, c.Record.Status)
	assert.True(t, c.Absent)
	assert.True(t, c.Record.PayContribution.IsZero())

	// A log without an IN time is still an absence
	c = payroll.Classify(policy, thursday, &payroll.AttendanceLog{Date: thursday, TimeOut: "18:00"}, nil)
	assert.Equal(t, payroll.StatusAbsent, c.Record.Status)
	assert.Equal(t, payroll.ReasonNoTimeIn, c.Record.PenaltyReason)

	c = payroll.Classify(policy, thursday, logAt(thursday, "09:00"), nil)
	assert.Equal(t, payroll.StatusWorkingOnTime, c.Record.Status)
	assert.Equal(t, "09:00", c.Record.TimeIn)
	assert.Equal(t, "18:00", c.Record.TimeOut)

	c = payroll.Classify(policy, thursday, logAt(thursday, "09:30"), nil)
	assert.Equal(t, payroll.StatusWorkingLate, c.Record.Status)
	assert.True(t, c.Late)

	c = payroll.Classify(policy, thursday, logAt(thursday, "13:00"), nil)
	assert.Equal(t, payroll.StatusHalfDay, c.Record.Status)
	assertMoney(t, "1000.00", c.Record.PayContribution)
	assert.False(t, c.Late)
}

func TestClassify_OpenSessionCountsAsWorked(t *testing.T) {
	open := &payroll.AttendanceLog{Date: thursday, TimeIn: "09:05"}
	c := payroll.Classify(standardPolicy(), thursday, open, nil)
	assert.Equal(t, payroll.StatusWorkingOnTime, c.Record.Status)
	assert.Empty(t, c.Record.TimeOut)
}

func TestClassify_InvalidTime_IsolatedToDay(t *testing.T) {
	// GIVEN: A stored IN time that cannot be parsed
	// THEN: Invalid Entry, 0, error attached, no counters touched

	c := payroll.Classify(standardPolicy(), thursday, logAt(thursday, "nine"), nil)
	assert.Equal(t, payroll.StatusInvalidEntry, c.Record.Status)
	assert.Equal(t, payroll.ReasonInvalidTime, c.Record.PenaltyReason)
	assert.True(t, c.Record.PayContribution.IsZero())
	assert.False(t, c.Absent)
	assert.False(t, c.Late)

	require.NotNil(t, c.Err)
	assert.ErrorIs(t, c.Err, payroll.ErrInvalidTime)
	assert.Equal(t, "nine", c.Err.Value)
}

func TestClassify_ContributionNeverNegative(t *testing.T) {
	// GIVEN: A tiny salary and a large hourly rate
	// THEN: No day contributes less than zero, whatever the time-in

	policy := payroll.PayPolicy{
		FixedMonthlySalary: decimal.NewFromInt(300),
		HourlyRate:         decimal.NewFromInt(1000),
		PeriodStartDay:     28,
		PeriodEndDay:       27,
	}
	times := []string{"", "bad", "07:00", "09:15", "09:45", "10:00", "10:45", "11:00", "11:45", "12:00", "23:59"}
	for _, d := range []payroll.Date{thursday, saturday, sunday} {
		for _, in := range times {
			c := payroll.Classify(policy, d, logAt(d, in), nil)
			assert.False(t, c.Record.PayContribution.IsNegative(), "%s %q", d, in)
		}
	}
}
