/*
aggregate.go - Two-phase payroll aggregation

PURPOSE:
  Turns one Classification per date into a PayrollReport. The work is split
  into two explicit phases so the ordering contract is visible and testable.

PHASE 1 - Tally (pure accumulation, ascending date order):
  lateCount        += 1 per late instance
  absentDays       += 1 per plain weekday absence
  workedSaturdays  += 1 per Saturday with a logged IN time
  holidaySaturday   = any Saturday in the period was a holiday
  gross            += per day, for every day
  untilToday       += contribution, for days before today (in-progress only)

PHASE 2 - ApplyCumulativeRules (fixed order, order is the precedence):
  1. Grace day-off: the first Absent becomes Paid Day Off (Auto Granted);
     the remaining absences are deducted at per day.
  2. Late penalty: every 3 late instances cost one per day.
  3. Saturday quota: 2 worked Saturdays are expected unless a holiday fell
     on a Saturday. The shortfall is deducted at per day, less one if the
     grace credit was not spent on an absence. Only one grace credit is
     spent per period.

TOTAL:
  fixed monthly salary - absences - late - Saturday shortfall
  Not floored at zero; a negative total is flagged on the report.

SEE ALSO:
  - classify.go: Produces Classification
  - engine.go: Feeds Calculate from providers
*/
package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT
// =============================================================================

// Input is everything one calculation needs. Logs and Holidays may be in any
// order and may contain dates outside Period; those are ignored.
type Input struct {
	Policy   PayPolicy
	Period   PayPeriod
	Logs     []AttendanceLog
	Holidays []Holiday

	// Today is the reference "current date". When Period contains Today the
	// report is in progress and carries TotalSalaryUntilToday.
	Today Date
}

// InProgress reports whether the period contains Today.
func (in Input) InProgress() bool {
	return !in.Today.IsZero() && in.Period.Contains(in.Today)
}

// =============================================================================
// PHASE 1 - TALLY
// =============================================================================

// Tally is the running state of the per-day pass.
type Tally struct {
	Days            []DayRecord
	Errors          []*ClassificationError
	LateCount       int
	AbsentDays      int
	WorkedSaturdays int
	HolidaySaturday bool
	Gross           decimal.Decimal
	UntilToday      decimal.Decimal
}

// Add folds one classified day into the tally. untilToday selects whether
// the day's contribution counts toward UntilToday.
func (t *Tally) Add(c Classification, perDay decimal.Decimal, untilToday bool) {
	t.Days = append(t.Days, c.Record)
	t.Gross = t.Gross.Add(perDay)
	if c.Late {
		t.LateCount++
	}
	if c.Absent {
		t.AbsentDays++
	}
	if c.WorkedSaturday {
		t.WorkedSaturdays++
	}
	if c.HolidaySaturday {
		t.HolidaySaturday = true
	}
	if c.Err != nil {
		t.Errors = append(t.Errors, c.Err)
	}
	if untilToday {
		t.UntilToday = t.UntilToday.Add(c.Record.PayContribution)
	}
}

// TallyPeriod classifies every date of the input period in ascending order.
func TallyPeriod(in Input) Tally {
	logs := make(map[string]*AttendanceLog, len(in.Logs))
	for i := range in.Logs {
		logs[in.Logs[i].Date.String()] = &in.Logs[i]
	}
	holidays := make(map[string]*Holiday, len(in.Holidays))
	for i := range in.Holidays {
		holidays[in.Holidays[i].Date.String()] = &in.Holidays[i]
	}

	perDay := in.Policy.FixedSalaryPerDay()
	inProgress := in.InProgress()
	t := Tally{Gross: decimal.Zero, UntilToday: decimal.Zero, Days: make([]DayRecord, 0, in.Period.Len())}
	for _, d := range in.Period.Days() {
		key := d.String()
		c := Classify(in.Policy, d, logs[key], holidays[key])
		t.Add(c, perDay, inProgress && d.Before(in.Today))
	}
	return t
}

// =============================================================================
// PHASE 2 - CUMULATIVE RULES
// =============================================================================

// Adjustments is the outcome of the cumulative pass.
type Adjustments struct {
	Days []DayRecord // copy of the tally's days with the grace day applied

	GraceApplied      bool // grace credit spent on an absence
	GraceDate         Date
	DeductedAbsences  int
	AbsenceDeduction  decimal.Decimal
	LateDeductionDays int
	LateDeduction     decimal.Decimal
	SaturdayShortfall int // Saturdays deducted after any grace credit
	SaturdayDeduction decimal.Decimal
	GraceUsedSaturday bool // grace credit spent on the Saturday quota
}

// Total returns the sum of all deductions.
func (a Adjustments) Total() decimal.Decimal {
	return a.AbsenceDeduction.Add(a.LateDeduction).Add(a.SaturdayDeduction)
}

// GraceSpent reports whether the period's single grace credit was used.
func (a Adjustments) GraceSpent() bool {
	return a.GraceApplied || a.GraceUsedSaturday
}

// ApplyCumulativeRules runs the grace, late and Saturday rules in that order.
// It does not modify t.
func ApplyCumulativeRules(policy PayPolicy, t Tally) Adjustments {
	perDay := policy.FixedSalaryPerDay()
	adj := Adjustments{
		Days:              append([]DayRecord(nil), t.Days...),
		AbsenceDeduction:  decimal.Zero,
		LateDeduction:     decimal.Zero,
		SaturdayDeduction: decimal.Zero,
	}

	// 1. Grace day-off
	absences := t.AbsentDays
	if absences > 0 {
		for i := range adj.Days {
			if adj.Days[i].Status == StatusAbsent {
				adj.Days[i].Status = StatusAutoGranted
				adj.Days[i].PayContribution = perDay
				adj.Days[i].PenaltyReason = ReasonAutoGranted
				adj.GraceDate = adj.Days[i].Date
				break
			}
		}
		absences--
		adj.GraceApplied = true
	}
	adj.DeductedAbsences = absences
	adj.AbsenceDeduction = perDay.Mul(decimal.NewFromInt(int64(absences)))

	// 2. Late penalty
	adj.LateDeductionDays = t.LateCount / LateInstancesPerDeduction
	adj.LateDeduction = perDay.Mul(decimal.NewFromInt(int64(adj.LateDeductionDays)))

	// 3. Saturday quota
	if t.WorkedSaturdays < ExpectedWorkedSaturdays && !t.HolidaySaturday {
		missing := ExpectedWorkedSaturdays - t.WorkedSaturdays
		if !adj.GraceApplied {
			adj.GraceUsedSaturday = true
			missing--
		}
		adj.SaturdayShortfall = missing
		adj.SaturdayDeduction = perDay.Mul(decimal.NewFromInt(int64(missing)))
	}

	return adj
}

// =============================================================================
// REPORT ASSEMBLY
// =============================================================================

// NotConfiguredSummary is the summary of a report for an unset policy.
const NotConfiguredSummary = "Please set Fixed Monthly Salary and Hourly Rate in settings."

// NotConfiguredReport is the zero-salary report returned instead of an error
// when the policy is missing or invalid. reason, if set, is appended.
func NotConfiguredReport(period PayPeriod, reason string) PayrollReport {
	summary := NotConfiguredSummary
	if reason != "" {
		summary += "\n" + reason
	}
	return PayrollReport{
		TotalSalary:           decimal.Zero,
		GrossSalary:           decimal.Zero,
		TotalSalaryUntilToday: decimal.Zero,
		LateDeduction:         decimal.Zero,
		AbsenceDeduction:      decimal.Zero,
		SaturdayDeduction:     decimal.Zero,
		Days:                  []DayRecord{},
		Summary:               summary,
		PeriodStart:           period.Start,
		PeriodEnd:             period.End,
	}
}

// Calculate runs both phases and assembles the report. It never fails: an
// unconfigured policy yields NotConfiguredReport and bad days are absorbed
// into their records.
func Calculate(in Input) PayrollReport {
	if !in.Policy.IsConfigured() {
		return NotConfiguredReport(in.Period, "")
	}
	if err := in.Policy.Validate(); err != nil {
		return NotConfiguredReport(PayPeriod{}, err.Error())
	}

	perDay := in.Policy.FixedSalaryPerDay()
	tally := TallyPeriod(in)
	adj := ApplyCumulativeRules(in.Policy, tally)
	inProgress := in.InProgress()

	total := in.Policy.FixedMonthlySalary.Sub(adj.Total())

	gross := tally.Gross
	if in.Period.Len() == 31 && !in.Today.IsZero() && in.Period.End.Before(in.Today) {
		gross = gross.Sub(perDay)
	}

	days := make([]DayRecord, len(adj.Days))
	for i, d := range adj.Days {
		d.PayContribution = d.PayContribution.Round(2)
		days[i] = d
	}

	untilToday := decimal.Zero
	if inProgress {
		untilToday = tally.UntilToday
	}

	report := PayrollReport{
		Configured:            true,
		TotalSalary:           total.Round(2),
		GrossSalary:           gross.Round(2),
		TotalSalaryUntilToday: untilToday.Round(2),
		Days:                  days,
		PeriodStart:           in.Period.Start,
		PeriodEnd:             in.Period.End,
		InProgress:            inProgress,
		LateCount:             tally.LateCount,
		LateDeductionDays:     adj.LateDeductionDays,
		LateDeduction:         adj.LateDeduction.Round(2),
		AbsentDays:            tally.AbsentDays,
		AbsenceDeduction:      adj.AbsenceDeduction.Round(2),
		WorkedSaturdays:       tally.WorkedSaturdays,
		HolidaySaturday:       tally.HolidaySaturday,
		SaturdayShortfall:     adj.SaturdayShortfall,
		SaturdayDeduction:     adj.SaturdayDeduction.Round(2),
		GraceApplied:          adj.GraceApplied,
		GraceUsedSaturday:     adj.GraceUsedSaturday,
		NegativeTotal:         total.IsNegative(),
		InvalidEntries:        len(tally.Errors),
	}
	report.Summary = summarize(report)
	return report
}

func summarize(r PayrollReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Salary calculated for period: %s to %s\n", r.PeriodStart, r.PeriodEnd)
	fmt.Fprintf(&b, "Total Late Instances: %d (%d day(s) cut, %s)\n",
		r.LateCount, r.LateDeductionDays, r.LateDeduction.StringFixed(2))
	fmt.Fprintf(&b, "Absences Deducted: %d (%s)\n",
		r.AbsentDays-boolInt(r.GraceApplied), r.AbsenceDeduction.StringFixed(2))

	fmt.Fprintf(&b, "Saturdays Worked (not holidays): %d", r.WorkedSaturdays)
	switch {
	case r.HolidaySaturday:
		b.WriteString(" (quota waived: holiday on a Saturday)")
	case r.SaturdayShortfall > 0:
		fmt.Fprintf(&b, " Deducted for %d unlogged Saturday(s) (Expected %d worked)",
			r.SaturdayShortfall, ExpectedWorkedSaturdays)
	}
	b.WriteString("\n")

	if r.GraceApplied || r.GraceUsedSaturday {
		b.WriteString("One auto-granted paid day off applied.\n")
	}
	if r.InvalidEntries > 0 {
		fmt.Fprintf(&b, "Entries with invalid IN time: %d\n", r.InvalidEntries)
	}
	if r.NegativeTotal {
		b.WriteString("Warning: deductions exceed the fixed monthly salary.\n")
	}
	return b.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
