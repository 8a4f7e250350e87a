/*
classify.go - Per-day attendance classification

PURPOSE:
  Decides one day's status, pay contribution and penalty reason from its
  calendar role (holiday, Sunday, Saturday, weekday) and its log.

PRECEDENCE (first match wins):
  1. Public holiday         -> Paid Day Off (Holiday), full day
                               (a Saturday holiday sets HolidaySaturday)
  2. Sunday                 -> Paid Day Off (Sunday), full day
  3. Saturday with IN       -> arrival rules, Working Saturday
     Saturday without IN    -> Unlogged Saturday, 0 (quota rule later)
  4. Weekday without IN     -> Absent, 0 (grace rule later)
  5. Weekday with IN        -> arrival rules, Half Day / Late / On Time

ARRIVAL RULES (applied to the IN time):
  >= 12:00            per day / 2            not late   Half Day
  11:00 - 11:59       per day - 2 x rate     late       2 hours cut
  10:00 - 10:59       per day - 1 x rate     late       1 hour cut
  09:15 < t < 10:00   per day                late
  <= 09:15            per day                on time
  The contribution never goes below zero.

SEE ALSO:
  - aggregate.go: Consumes Classification flags
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Arrival thresholds.
var (
	HalfDayCutoff = Clock(12, 0)
	TwoHourCutoff = Clock(11, 0)
	OneHourCutoff = Clock(10, 0)
	OnTimeCutoff  = Clock(9, 15)
)

// Penalty reasons.
const (
	ReasonHalfDay      = "Half Day (Logged IN after 12:00)"
	ReasonLateTwoHours = "Late (IN after 11:00) - 2 hours cut"
	ReasonLateOneHour  = "Late (IN after 10:00) - 1 hour cut"
	ReasonLate         = "Late (IN after 09:15)"
	ReasonOnTime       = "On Time"
	ReasonNoTimeIn     = "Absent (No IN Time)"
	ReasonInvalidTime  = "Invalid IN Time Format"
	ReasonAutoGranted  = "Grace day-off for first absence"
)

// ArrivalKind is the row of the arrival table a time-in falls into.
type ArrivalKind int

const (
	ArrivalOnTime ArrivalKind = iota
	ArrivalLate
	ArrivalLateOneHour
	ArrivalLateTwoHours
	ArrivalHalfDay
	ArrivalMissing
	ArrivalInvalid
)

// Arrival is the outcome of the arrival rules for one day.
type Arrival struct {
	Kind         ArrivalKind
	Contribution decimal.Decimal
	Late         bool
	Reason       string
}

// ApplyArrivalRules runs the late/half-day table against a stored IN time.
// An empty timeIn yields ArrivalMissing; a malformed one yields
// ArrivalInvalid with the parse error.
func ApplyArrivalRules(timeIn string, perDay, hourlyRate decimal.Decimal) (Arrival, error) {
	if timeIn == "" {
		return Arrival{Kind: ArrivalMissing, Contribution: decimal.Zero, Reason: ReasonNoTimeIn}, nil
	}
	in, err := ParseClock(timeIn)
	if err != nil {
		return Arrival{Kind: ArrivalInvalid, Contribution: decimal.Zero, Reason: ReasonInvalidTime}, err
	}

	var a Arrival
	switch {
	case in >= HalfDayCutoff:
		a = Arrival{Kind: ArrivalHalfDay, Contribution: perDay.Div(decimal.NewFromInt(2)), Reason: ReasonHalfDay}
	case in >= TwoHourCutoff:
		a = Arrival{Kind: ArrivalLateTwoHours, Contribution: perDay.Sub(hourlyRate.Mul(decimal.NewFromInt(2))), Late: true, Reason: ReasonLateTwoHours}
	case in >= OneHourCutoff:
		a = Arrival{Kind: ArrivalLateOneHour, Contribution: perDay.Sub(hourlyRate), Late: true, Reason: ReasonLateOneHour}
	case in > OnTimeCutoff:
		a = Arrival{Kind: ArrivalLate, Contribution: perDay, Late: true, Reason: ReasonLate}
	default:
		a = Arrival{Kind: ArrivalOnTime, Contribution: perDay, Reason: ReasonOnTime}
	}
	if a.Contribution.IsNegative() {
		a.Contribution = decimal.Zero
	}
	return a, nil
}

// Classification is one day's record plus the flags phase 1 accumulates.
type Classification struct {
	Record          DayRecord
	Late            bool // counts toward the cumulative late penalty
	Absent          bool // plain weekday absence, grace candidate
	WorkedSaturday  bool
	HolidaySaturday bool
	Err             *ClassificationError
}

// Classify decides one day. log and holiday may be nil.
func Classify(policy PayPolicy, date Date, log *AttendanceLog, holiday *Holiday) Classification {
	perDay := policy.FixedSalaryPerDay()
	rec := DayRecord{Date: date, PayContribution: decimal.Zero}
	if log != nil {
		rec.TimeIn, rec.TimeOut = log.TimeIn, log.TimeOut
	}
	c := Classification{}

	switch {
	case holiday != nil:
		rec.Status = StatusHoliday
		rec.PayContribution = perDay
		rec.PenaltyReason = holiday.Description
		c.HolidaySaturday = date.IsSaturday()

	case date.IsSunday():
		rec.Status = StatusSunday
		rec.PayContribution = perDay

	case date.IsSaturday() && !log.HasTimeIn():
		rec.Status = StatusUnloggedSat

	case !date.IsSaturday() && !log.HasTimeIn():
		rec.Status = StatusAbsent
		rec.PenaltyReason = ReasonNoTimeIn
		c.Absent = true

	default:
		arrival, err := ApplyArrivalRules(log.TimeIn, perDay, policy.HourlyRate)
		rec.PayContribution = arrival.Contribution
		rec.PenaltyReason = arrival.Reason
		c.Late = arrival.Late
		switch {
		case err != nil:
			rec.Status = StatusInvalidEntry
			c.Err = &ClassificationError{Date: date, Field: "time_in", Value: log.TimeIn}
		case date.IsSaturday():
			rec.Status = StatusWorkingSat
			c.WorkedSaturday = true
		case arrival.Kind == ArrivalHalfDay:
			rec.Status = StatusHalfDay
		case arrival.Late:
			rec.Status = StatusWorkingLate
		default:
			rec.Status = StatusWorkingOnTime
		}
	}

	c.Record = rec
	return c
}

func (c Classification) String() string {
	return fmt.Sprintf("%s %s %s", c.Record.Date, c.Record.Status, c.Record.PayContribution.StringFixed(2))
}
