/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that exercise one payroll rule each. All
	scenarios use the same policy (60000 per month, 250 per hour, periods
	28th to 27th) and fill the August 2025 period, 2025-07-28..2025-08-27.
	View the result with GET /api/payroll/report?month=8&year=2025.

AVAILABLE SCENARIOS:

	late-penalty:       Six late arrivals, two days deducted
	weekday-holiday:    A holiday on Thursday 2025-08-14, full pay
	not-configured:     Logs but no salary, zero-salary report
	saturday-shortfall: One Saturday worked, grace spent on an absence

HOW SCENARIOS WORK:
 1. Reset database (clear all data, re-seed default settings)
 2. Write the policy settings
 3. Insert weekday logs, Saturday logs and holidays

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "late-penalty"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Report endpoints
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioMonth is the report month every scenario fills.
var ScenarioMonth = payroll.ReportMonth{Year: 2025, Month: time.August}

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, s payroll.Store) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "late-penalty",
			Name:        "Late Penalty",
			Description: "Every weekday logged at 09:00 except six at 10:30; Saturdays 2 and 9 August worked",
			Expected:    "6 late instances, 2 days (4000.00) deducted, total 56000.00",
		},
		load: loadLatePenalty,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "weekday-holiday",
			Name:        "Weekday Holiday",
			Description: "Holiday on Thursday 2025-08-14 with no log; every other weekday on time",
			Expected:    "2025-08-14 is Paid Day Off (Holiday) at 2000.00, no absence, total 60000.00",
		},
		load: loadWeekdayHoliday,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "not-configured",
			Name:        "Policy Not Configured",
			Description: "On-time logs for the whole period but salary and hourly rate left at 0",
			Expected:    "Total 0, no day records, summary asks for the salary settings",
		},
		load: loadNotConfigured,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "saturday-shortfall",
			Name:        "Saturday Shortfall",
			Description: "Only Saturday 9 August worked out of four; absent on Wednesday 2025-08-20",
			Expected:    "Grace covers the absence, 1 Saturday (2000.00) deducted, total 58000.00",
		},
		load: loadSaturdayShortfall,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := s.load(ctx, h.Store); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = s.ID
	logger.FromContext(ctx).Info().Str("scenario", s.ID).Msg("scenario loaded")

	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		ScenarioID: s.ID,
		Month:      int(ScenarioMonth.Month),
		Year:       ScenarioMonth.Year,
		Message:    s.Expected,
	})
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var scenarioPolicy = map[string]string{
	payroll.SettingFixedMonthlySalary: "60000",
	payroll.SettingHourlyRate:         "250",
	payroll.SettingMonthStartDay:      "28",
	payroll.SettingMonthEndDay:        "27",
}

func scenarioPeriod() payroll.PayPeriod {
	return payroll.ResolvePeriod(payroll.PayPolicy{
		PeriodStartDay: payroll.DefaultPeriodStartDay,
		PeriodEndDay:   payroll.DefaultPeriodEndDay,
	}, ScenarioMonth.Reference())
}

func putSettings(ctx context.Context, s payroll.SettingsStore, settings map[string]string) error {
	for k, v := range settings {
		if err := s.PutSetting(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// insertWeekdays logs every Monday-Friday of the period at 09:00, 18:00.
// late overrides the IN time of given dates; skip leaves dates unlogged.
func insertWeekdays(ctx context.Context, s payroll.LogStore, late map[string]string, skip ...string) error {
	skipped := make(map[string]bool, len(skip))
	for _, d := range skip {
		skipped[d] = true
	}
	for _, d := range scenarioPeriod().Days() {
		if d.IsWeekend() || skipped[d.String()] {
			continue
		}
		in := "09:00"
		if t, ok := late[d.String()]; ok {
			in = t
		}
		if err := s.InsertLog(ctx, payroll.AttendanceLog{Date: d, TimeIn: in, TimeOut: "18:00"}); err != nil {
			return fmt.Errorf("log %s: %w", d, err)
		}
	}
	return nil
}

func insertSaturdays(ctx context.Context, s payroll.LogStore, dates ...string) error {
	for _, raw := range dates {
		d, err := payroll.ParseDate(raw)
		if err != nil {
			return err
		}
		if err := s.InsertLog(ctx, payroll.AttendanceLog{Date: d, TimeIn: "09:00", TimeOut: "14:00"}); err != nil {
			return fmt.Errorf("log %s: %w", d, err)
		}
	}
	return nil
}

func loadLatePenalty(ctx context.Context, s payroll.Store) error {
	if err := putSettings(ctx, s, scenarioPolicy); err != nil {
		return err
	}
	late := map[string]string{
		"2025-07-29": "10:30",
		"2025-08-01": "10:30",
		"2025-08-05": "10:30",
		"2025-08-12": "10:30",
		"2025-08-19": "10:30",
		"2025-08-26": "10:30",
	}
	if err := insertWeekdays(ctx, s, late); err != nil {
		return err
	}
	return insertSaturdays(ctx, s, "2025-08-02", "2025-08-09")
}

func loadWeekdayHoliday(ctx context.Context, s payroll.Store) error {
	if err := putSettings(ctx, s, scenarioPolicy); err != nil {
		return err
	}
	if err := s.SaveHoliday(ctx, payroll.Holiday{
		Date:        payroll.MustParseDate("2025-08-14"),
		Description: "Independence Day",
	}); err != nil {
		return err
	}
	if err := insertWeekdays(ctx, s, nil, "2025-08-14"); err != nil {
		return err
	}
	return insertSaturdays(ctx, s, "2025-08-02", "2025-08-09")
}

func loadNotConfigured(ctx context.Context, s payroll.Store) error {
	return insertWeekdays(ctx, s, nil)
}

func loadSaturdayShortfall(ctx context.Context, s payroll.Store) error {
	if err := putSettings(ctx, s, scenarioPolicy); err != nil {
		return err
	}
	if err := insertWeekdays(ctx, s, nil, "2025-08-20"); err != nil {
		return err
	}
	return insertSaturdays(ctx, s, "2025-08-09")
}
