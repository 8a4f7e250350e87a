package payroll

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Setting keys read by the engine.
const (
	SettingFixedMonthlySalary = "fixed_monthly_salary"
	SettingHourlyRate         = "hourly_rate"
	SettingMonthStartDay      = "month_start_day"
	SettingMonthEndDay        = "month_end_day"
)

// Defaults applied when a setting is absent.
const (
	DefaultPeriodStartDay = 28
	DefaultPeriodEndDay   = 27
)

// DefaultSettings are the values a fresh store is seeded with.
var DefaultSettings = map[string]string{
	SettingFixedMonthlySalary: "0",
	SettingHourlyRate:         "0",
	SettingMonthStartDay:      strconv.Itoa(DefaultPeriodStartDay),
	SettingMonthEndDay:        strconv.Itoa(DefaultPeriodEndDay),
}

// Validate checks the roll-over days and that money values are not negative.
func (p PayPolicy) Validate() error {
	if p.FixedMonthlySalary.IsNegative() {
		return &ConfigurationError{Key: SettingFixedMonthlySalary, Value: p.FixedMonthlySalary.String(), Reason: "must not be negative"}
	}
	if p.HourlyRate.IsNegative() {
		return &ConfigurationError{Key: SettingHourlyRate, Value: p.HourlyRate.String(), Reason: "must not be negative"}
	}
	if p.PeriodStartDay < 1 || p.PeriodStartDay > 31 {
		return &ConfigurationError{Key: SettingMonthStartDay, Value: strconv.Itoa(p.PeriodStartDay), Reason: "must be between 1 and 31"}
	}
	if p.PeriodEndDay < 1 || p.PeriodEndDay > 31 {
		return &ConfigurationError{Key: SettingMonthEndDay, Value: strconv.Itoa(p.PeriodEndDay), Reason: "must be between 1 and 31"}
	}
	return nil
}

// PolicyFromSettings resolves a PayPolicy through the settings provider.
//
// Absent values take the defaults (0, 0, 28, 27). A salary or rate that is
// not a number reads as zero, which leaves the policy unconfigured rather
// than failing. A roll-over day that is not an integer, or is out of range,
// returns the policy read so far with a *ConfigurationError. Provider
// failures are returned as-is.
func PolicyFromSettings(ctx context.Context, settings SettingsProvider) (PayPolicy, error) {
	policy := PayPolicy{
		FixedMonthlySalary: decimal.Zero,
		HourlyRate:         decimal.Zero,
		PeriodStartDay:     DefaultPeriodStartDay,
		PeriodEndDay:       DefaultPeriodEndDay,
	}

	var err error
	if policy.FixedMonthlySalary, err = decimalSetting(ctx, settings, SettingFixedMonthlySalary); err != nil {
		return policy, err
	}
	if policy.HourlyRate, err = decimalSetting(ctx, settings, SettingHourlyRate); err != nil {
		return policy, err
	}
	if policy.PeriodStartDay, err = daySetting(ctx, settings, SettingMonthStartDay, DefaultPeriodStartDay); err != nil {
		return policy, err
	}
	if policy.PeriodEndDay, err = daySetting(ctx, settings, SettingMonthEndDay, DefaultPeriodEndDay); err != nil {
		return policy, err
	}
	return policy, policy.Validate()
}

func decimalSetting(ctx context.Context, settings SettingsProvider, key string) (decimal.Decimal, error) {
	raw, ok, err := settings.GetSetting(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, nil
	}
	return v, nil
}

func daySetting(ctx context.Context, settings SettingsProvider, key string, fallback int) (int, error) {
	raw, ok, err := settings.GetSetting(ctx, key)
	if err != nil {
		return fallback, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback, &ConfigurationError{Key: key, Value: raw, Reason: "must be an integer"}
	}
	return v, nil
}

// ApplySettings merges key/value updates into a policy, validating the
// result. Unknown keys are rejected.
func ApplySettings(p PayPolicy, updates map[string]string) (PayPolicy, error) {
	for key, raw := range updates {
		raw = strings.TrimSpace(raw)
		switch key {
		case SettingFixedMonthlySalary, SettingHourlyRate:
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return p, &ConfigurationError{Key: key, Value: raw, Reason: "must be a number"}
			}
			if key == SettingFixedMonthlySalary {
				p.FixedMonthlySalary = v
			} else {
				p.HourlyRate = v
			}
		case SettingMonthStartDay, SettingMonthEndDay:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return p, &ConfigurationError{Key: key, Value: raw, Reason: "must be an integer"}
			}
			if key == SettingMonthStartDay {
				p.PeriodStartDay = v
			} else {
				p.PeriodEndDay = v
			}
		default:
			return p, &ConfigurationError{Key: key, Value: raw, Reason: "unknown setting"}
		}
	}
	return p, p.Validate()
}

// Settings renders a policy as its stored key/value form.
func (p PayPolicy) Settings() map[string]string {
	return map[string]string{
		SettingFixedMonthlySalary: p.FixedMonthlySalary.String(),
		SettingHourlyRate:         p.HourlyRate.String(),
		SettingMonthStartDay:      strconv.Itoa(p.PeriodStartDay),
		SettingMonthEndDay:        strconv.Itoa(p.PeriodEndDay),
	}
}
