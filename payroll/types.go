/*
Package payroll provides the attendance payroll rule engine.

PURPOSE:
  Turns a sparse set of daily clock-in/clock-out logs, a holiday calendar
  and a pay policy into a per-day attendance classification and a final
  salary for one pay period. The engine is a pure function of its inputs;
  it reads through narrow provider interfaces and never writes.

KEY CONCEPTS IN THIS FILE (types.go):
  - PayPolicy: Salary, hourly rate and period roll-over days
  - AttendanceLog: One day's IN/OUT times as stored
  - Holiday: A paid public holiday
  - DayStatus / DayRecord: The classification of one day
  - PayrollReport: The output of one calculation

PIPELINE:
  Settings + Logs + Holidays
    -> ResolvePeriod       (period.go)
    -> Classify, per day   (classify.go)
    -> Tally               (aggregate.go, phase 1)
    -> ApplyCumulativeRules (aggregate.go, phase 2)
    -> PayrollReport

DESIGN PRINCIPLES:
  1. Precision: Money is decimal.Decimal, rounded to 2 places on output
  2. Purity: Calculate has no I/O, no clock, no shared state
  3. Isolation: A bad day never aborts a run; a bad policy yields a
     zero-salary report instead of an error

USAGE:
  report := payroll.Calculate(payroll.Input{
      Policy:   policy,
      Period:   payroll.ResolvePeriod(policy, today),
      Logs:     logs,
      Holidays: holidays,
      Today:    today,
  })

SEE ALSO:
  - engine.go: Provider-backed entry point
  - store.go: Provider and store interfaces
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY POLICY - Immutable snapshot read once per calculation
// =============================================================================

// DaysPerMonth is the fixed divisor for the daily rate, regardless of the
// period's actual length.
const DaysPerMonth = 30

// ExpectedWorkedSaturdays is the Saturday quota per period.
const ExpectedWorkedSaturdays = 2

// LateInstancesPerDeduction is how many late arrivals cost one day's pay.
const LateInstancesPerDeduction = 3

type PayPolicy struct {
	FixedMonthlySalary decimal.Decimal
	HourlyRate         decimal.Decimal
	PeriodStartDay     int // 1-31
	PeriodEndDay       int // 1-31
}

// IsConfigured is false when salary or rate is zero; the engine then
// short-circuits to a "not configured" report.
func (p PayPolicy) IsConfigured() bool {
	return !p.FixedMonthlySalary.IsZero() && !p.HourlyRate.IsZero()
}

// FixedSalaryPerDay is FixedMonthlySalary / 30.
func (p PayPolicy) FixedSalaryPerDay() decimal.Decimal {
	return p.FixedMonthlySalary.Div(decimal.NewFromInt(DaysPerMonth))
}

// =============================================================================
// INPUT RECORDS
// =============================================================================

// AttendanceLog is at most one record per date. Times are kept as stored
// text so a malformed value reaches the classifier; empty means not logged.
type AttendanceLog struct {
	Date    Date   `json:"date"`
	TimeIn  string `json:"time_in"`
	TimeOut string `json:"time_out"`
}

// HasTimeIn reports whether an IN time was recorded.
func (l *AttendanceLog) HasTimeIn() bool { return l != nil && l.TimeIn != "" }

// IsOpen reports whether the session has an IN time and no OUT time.
func (l *AttendanceLog) IsOpen() bool { return l.HasTimeIn() && l.TimeOut == "" }

// Holiday overrides weekday and Saturday classification for its date.
type Holiday struct {
	Date        Date   `json:"date"`
	Description string `json:"description"`
}

// =============================================================================
// DAY RECORD - One per date in the period, produced fresh each run
// =============================================================================

type DayStatus string

const (
	StatusHoliday       DayStatus = "Paid Day Off (Holiday)"
	StatusSunday        DayStatus = "Paid Day Off (Sunday)"
	StatusAutoGranted   DayStatus = "Paid Day Off (Auto Granted)"
	StatusWorkingSat    DayStatus = "Working Saturday"
	StatusUnloggedSat   DayStatus = "Unlogged Saturday"
	StatusAbsent        DayStatus = "Absent"
	StatusHalfDay       DayStatus = "Half Day"
	StatusWorkingLate   DayStatus = "Working Day (Late)"
	StatusWorkingOnTime DayStatus = "Working Day (On Time)"
	StatusInvalidEntry  DayStatus = "Invalid Entry"
)

// IsPaidDayOff reports whether the status pays a full day without work.
func (s DayStatus) IsPaidDayOff() bool {
	return s == StatusHoliday || s == StatusSunday || s == StatusAutoGranted
}

type DayRecord struct {
	Date            Date            `json:"date"`
	Status          DayStatus       `json:"status"`
	TimeIn          string          `json:"in"`
	TimeOut         string          `json:"out"`
	PayContribution decimal.Decimal `json:"daily_pay_contribution"`
	PenaltyReason   string          `json:"penalty_reason"`
}

// =============================================================================
// PAYROLL REPORT - Output value object
// =============================================================================

type PayrollReport struct {
	Configured            bool            `json:"configured"`
	TotalSalary           decimal.Decimal `json:"total_salary"`
	GrossSalary           decimal.Decimal `json:"gross_salary"`
	TotalSalaryUntilToday decimal.Decimal `json:"total_salary_until_today"`
	Days                  []DayRecord     `json:"details"`
	Summary               string          `json:"summary"`
	PeriodStart           Date            `json:"period_start"`
	PeriodEnd             Date            `json:"period_end"`
	InProgress            bool            `json:"in_progress"`

	// Counters and deductions behind TotalSalary.
	LateCount         int             `json:"late_count"`
	LateDeductionDays int             `json:"late_deduction_days"`
	LateDeduction     decimal.Decimal `json:"late_deduction_total"`
	AbsentDays        int             `json:"absent_days"`
	AbsenceDeduction  decimal.Decimal `json:"absence_deduction"`
	WorkedSaturdays   int             `json:"worked_saturdays"`
	HolidaySaturday   bool            `json:"holiday_saturday"`
	SaturdayShortfall int             `json:"saturday_shortfall"`
	SaturdayDeduction decimal.Decimal `json:"saturday_deduction"`
	GraceApplied      bool            `json:"grace_applied"`
	GraceUsedSaturday bool            `json:"grace_used_for_saturday"`
	NegativeTotal     bool            `json:"negative_total"`
	InvalidEntries    int             `json:"invalid_entries"`
}

// Period returns the report's period.
func (r PayrollReport) Period() PayPeriod {
	return PayPeriod{Start: r.PeriodStart, End: r.PeriodEnd}
}
