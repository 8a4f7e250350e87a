package payroll

import "time"

// =============================================================================
// PAY PERIOD - The inclusive date range of one salary calculation
// =============================================================================

// PayPeriod is determined by the policy's roll-over days, not calendar
// months. With the default 28/27 policy, 2025-08-05 falls in
// [2025-07-28, 2025-08-27].
type PayPeriod struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains returns true if d is within [Start, End].
func (p PayPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of days in the period.
func (p PayPeriod) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// Days returns every date in the period in ascending order.
func (p PayPeriod) Days() []Date {
	days := make([]Date, 0, p.Len())
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Validate returns ErrInvalidPeriod if the period ends before it starts.
func (p PayPeriod) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p PayPeriod) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD RESOLVER
// =============================================================================

// ResolvePeriod returns the pay period containing ref.
//
// If ref's day is on or after PeriodStartDay the period starts in ref's
// month and ends on PeriodEndDay of the following month; otherwise it ends in
// ref's month and starts on PeriodStartDay of the previous month. Days past a
// short month's end clamp to its last day. Zero days fall back to 28/27.
// The policy is assumed valid (see PayPolicy.Validate).
func ResolvePeriod(policy PayPolicy, ref Date) PayPeriod {
	startDay, endDay := policy.PeriodStartDay, policy.PeriodEndDay
	if startDay == 0 {
		startDay = DefaultPeriodStartDay
	}
	if endDay == 0 {
		endDay = DefaultPeriodEndDay
	}

	year, month := ref.Year(), ref.Month()
	if ref.Day() >= startDay {
		return PayPeriod{
			Start: dateInMonth(year, month, startDay),
			End:   dateInMonth(year, month+1, endDay),
		}
	}
	return PayPeriod{
		Start: dateInMonth(year, month-1, startDay),
		End:   dateInMonth(year, month, endDay),
	}
}

// ReportMonth selects the period of a past or future month. The period is
// resolved against the first day of the month, so with 28/27 the August
// 2025 report covers 2025-07-28 .. 2025-08-27.
type ReportMonth struct {
	Year  int
	Month time.Month
}

// Reference returns the date the month's period is resolved against.
func (m ReportMonth) Reference() Date {
	return NewDate(m.Year, m.Month, 1)
}

// NextPeriod returns the period following p.
func NextPeriod(policy PayPolicy, p PayPeriod) PayPeriod {
	return ResolvePeriod(policy, p.End.AddDays(1))
}

// PreviousPeriod returns the period before p.
func PreviousPeriod(policy PayPolicy, p PayPeriod) PayPeriod {
	return ResolvePeriod(policy, p.Start.AddDays(-1))
}
