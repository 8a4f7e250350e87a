/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Reports are returned
  as payroll.PayrollReport directly; its JSON tags are the public contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags and are checked by
  Handler.decode before any domain call. Format checks that need domain
  parsing (HH:MM[:SS], YYYY-MM-DD) stay in the attendance service and
  payroll.ParseDate.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Report and day record types
*/
package api

import (
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO is the stored pay policy plus whether it is usable.
type SettingsDTO struct {
	FixedMonthlySalary string `json:"fixed_monthly_salary"`
	HourlyRate         string `json:"hourly_rate"`
	MonthStartDay      string `json:"month_start_day"`
	MonthEndDay        string `json:"month_end_day"`
	Configured         bool   `json:"configured"`
	Error              string `json:"error,omitempty"`
}

// UpdateSettingsRequest updates any subset of the four policy keys.
type UpdateSettingsRequest struct {
	FixedMonthlySalary *string `json:"fixed_monthly_salary" validate:"omitempty,numeric"`
	HourlyRate         *string `json:"hourly_rate" validate:"omitempty,numeric"`
	MonthStartDay      *string `json:"month_start_day" validate:"omitempty,number"`
	MonthEndDay        *string `json:"month_end_day" validate:"omitempty,number"`
}

func (r UpdateSettingsRequest) updates() map[string]string {
	updates := make(map[string]string)
	for key, v := range map[string]*string{
		payroll.SettingFixedMonthlySalary: r.FixedMonthlySalary,
		payroll.SettingHourlyRate:         r.HourlyRate,
		payroll.SettingMonthStartDay:      r.MonthStartDay,
		payroll.SettingMonthEndDay:        r.MonthEndDay,
	} {
		if v != nil {
			updates[key] = *v
		}
	}
	return updates
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// LogDTO is one attendance log with its worked duration.
type LogDTO struct {
	Date        string  `json:"date"`
	TimeIn      string  `json:"time_in"`
	TimeOut     string  `json:"time_out"`
	HoursWorked float64 `json:"hours_worked"`
}

// ClockResponse answers the clock in/out endpoints.
type ClockResponse struct {
	Outcome string  `json:"outcome,omitempty"`
	Message string  `json:"message"`
	Log     *LogDTO `json:"log,omitempty"`
}

// CreateLogRequest adds a complete entry.
type CreateLogRequest struct {
	Date    string `json:"date" validate:"required"`
	TimeIn  string `json:"time_in" validate:"required"`
	TimeOut string `json:"time_out" validate:"required"`
}

// UpdateLogRequest edits the entry for the date in the URL.
type UpdateLogRequest struct {
	TimeIn  string `json:"time_in" validate:"required"`
	TimeOut string `json:"time_out"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

type CreateHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required,max=200"`
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

type PayrollRunDTO struct {
	ID          string `json:"id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	TotalSalary string `json:"total_salary"`
	GrossSalary string `json:"gross_salary"`
	Summary     string `json:"summary"`
	CreatedAt   string `json:"created_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Expected    string `json:"expected"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// LoadScenarioResponse reports what was loaded and the period to view it in.
type LoadScenarioResponse struct {
	ScenarioID string `json:"scenario_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Message    string `json:"message"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
