package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// ENGINE - Provider-backed entry point
// =============================================================================

// Engine reads the policy, logs and holidays for one period and hands them
// to Calculate. It holds no mutable state; concurrent calls are independent.
type Engine struct {
	Settings SettingsProvider
	Logs     LogProvider
	Holidays HolidayProvider

	// Snapshots, if set, supplies the providers for each calculation so the
	// policy, logs and holidays come from one consistent view.
	Snapshots Snapshotter

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// NewEngine wires an engine to a single store.
func NewEngine(store Reader) *Engine {
	e := &Engine{Settings: store, Logs: store, Holidays: store}
	if snap, ok := store.(Snapshotter); ok {
		e.Snapshots = snap
	}
	return e
}

func (e *Engine) today() Date {
	if e.Now != nil {
		return DateOf(e.Now())
	}
	return Today()
}

type providers struct {
	SettingsProvider
	LogProvider
	HolidayProvider
}

func (e *Engine) view(ctx context.Context, fn func(r Reader) error) error {
	if e.Snapshots != nil {
		return e.Snapshots.Snapshot(ctx, fn)
	}
	return fn(providers{e.Settings, e.Logs, e.Holidays})
}

// CalculateMonthlySalary computes the report for month, or for the period
// containing today when month is nil. Only storage failures are returned as
// errors; policy problems produce a zero-salary report.
func (e *Engine) CalculateMonthlySalary(ctx context.Context, month *ReportMonth) (PayrollReport, error) {
	var report PayrollReport
	err := e.view(ctx, func(r Reader) error {
		policy, err := PolicyFromSettings(ctx, r)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("pay policy invalid")
				report = NotConfiguredReport(PayPeriod{}, cfgErr.Error())
				return nil
			}
			return err
		}

		ref := e.today()
		if month != nil {
			ref = month.Reference()
		}
		report, err = e.calculate(ctx, r, policy, ResolvePeriod(policy, ref))
		return err
	})
	return report, err
}

// CalculatePeriod computes the report for an explicit period.
func (e *Engine) CalculatePeriod(ctx context.Context, period PayPeriod) (PayrollReport, error) {
	if err := period.Validate(); err != nil {
		return PayrollReport{}, err
	}
	var report PayrollReport
	err := e.view(ctx, func(r Reader) error {
		policy, err := PolicyFromSettings(ctx, r)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				report = NotConfiguredReport(period, cfgErr.Error())
				return nil
			}
			return err
		}
		report, err = e.calculate(ctx, r, policy, period)
		return err
	})
	return report, err
}

// Policy returns the currently configured policy.
func (e *Engine) Policy(ctx context.Context) (PayPolicy, error) {
	return PolicyFromSettings(ctx, e.Settings)
}

func (e *Engine) calculate(ctx context.Context, r Reader, policy PayPolicy, period PayPeriod) (PayrollReport, error) {
	log := zerolog.Ctx(ctx)
	if !policy.IsConfigured() {
		log.Debug().Str("period", period.String()).Msg("pay policy not configured")
		return NotConfiguredReport(period, ""), nil
	}

	logs, err := r.LogsInRange(ctx, period.Start, period.End)
	if err != nil {
		return PayrollReport{}, fmt.Errorf("load attendance logs %s: %w", period, err)
	}
	holidays, err := r.HolidaysInRange(ctx, period.Start, period.End)
	if err != nil {
		return PayrollReport{}, fmt.Errorf("load holidays %s: %w", period, err)
	}

	report := Calculate(Input{
		Policy:   policy,
		Period:   period,
		Logs:     logs,
		Holidays: holidays,
		Today:    e.today(),
	})

	for _, d := range report.Days {
		if d.Status == StatusInvalidEntry {
			log.Warn().Str("date", d.Date.String()).Str("time_in", d.TimeIn).Msg(ReasonInvalidTime)
		}
	}
	log.Debug().
		Str("period", period.String()).
		Str("total", report.TotalSalary.StringFixed(2)).
		Int("late", report.LateCount).
		Int("absent", report.AbsentDays).
		Int("worked_saturdays", report.WorkedSaturdays).
		Msg("payroll calculated")
	return report, nil
}
