/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes settings, attendance, holidays, reports and period-close runs
  via REST API. Handles HTTP request/response, JSON serialization and
  validation, and delegates to the payroll engine and attendance service.

ENDPOINTS:
  Settings:
    GET    /api/settings                   Current pay policy
    PUT    /api/settings                   Update any of the four keys

  Attendance:
    GET    /api/attendance/today           Today's log
    POST   /api/attendance/startup         Auto clock-in on app start
    POST   /api/attendance/in              Manual IN (overwrites)
    POST   /api/attendance/out             Manual OUT
    GET    /api/attendance/history?days=   Recent logs (default 30 days)

  Logs:
    GET    /api/logs?from=&to=             Logs in range (default: current period)
    POST   /api/logs                       Add a complete entry
    PUT    /api/logs/{date}                Edit an entry
    DELETE /api/logs/{date}                Delete an entry

  Holidays:
    GET    /api/holidays?from=&to=         Holidays in range (default: this year)
    POST   /api/holidays                   Add a holiday
    DELETE /api/holidays/{date}            Remove a holiday

  Payroll:
    GET    /api/payroll/report?month=&year=       Report (default: current period)
    GET    /api/payroll/report.xlsx?month=&year=  Same report as a spreadsheet
    GET    /api/payroll/runs                      Recorded period-close runs
    POST   /api/payroll/runs/close                Close the last ended period now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid pay policy
  - 404: Log or holiday not found
  - 409: Duplicate log, holiday or run
  - 500: Storage errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
)

var (
	errInvalidBody  = errors.New("invalid request body")
	errInvalidQuery = errors.New("invalid query parameter")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      payroll.Store
	Engine     *payroll.Engine
	Attendance *attendance.Service
	Closer     *PeriodCloseScheduler

	now      func() time.Time
	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the engine, attendance service and period closer to store.
func NewHandler(store payroll.Store) *Handler {
	engine := payroll.NewEngine(store)
	return &Handler{
		Store:      store,
		Engine:     engine,
		Attendance: attendance.NewService(store),
		Closer:     NewPeriodCloseScheduler(store, engine),
		now:        time.Now,
		validate:   newValidator(),
	}
}

// SetClock replaces the wall clock everywhere the handler's components
// read it.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
	h.Engine.Now = now
	h.Attendance.Now = now
	h.Closer.Now = now
}

func (h *Handler) today() payroll.Date {
	return payroll.DateOf(h.now())
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates its tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the stored policy and whether reports can use it.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	dto, err := h.settings(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateSettings validates the merged policy before writing the changed keys.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	updates := req.updates()
	if len(updates) == 0 {
		writeDomainError(w, fmt.Errorf("%w: no settings provided", errInvalidBody))
		return
	}

	ctx := r.Context()
	current, err := h.Engine.Policy(ctx)
	var cfgErr *payroll.ConfigurationError
	if err != nil && !errors.As(err, &cfgErr) {
		writeDomainError(w, err)
		return
	}

	updated, err := payroll.ApplySettings(current, updates)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stored := updated.Settings()
	for key := range updates {
		if err := h.Store.PutSetting(ctx, key, stored[key]); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	logger.FromContext(ctx).Info().Interface("settings", stored).Msg("pay policy updated")

	dto, err := h.settings(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) settings(r *http.Request) (SettingsDTO, error) {
	ctx := r.Context()
	all, err := h.Store.AllSettings(ctx)
	if err != nil {
		return SettingsDTO{}, err
	}
	value := func(key string) string {
		if v, ok := all[key]; ok {
			return v
		}
		return payroll.DefaultSettings[key]
	}

	dto := SettingsDTO{
		FixedMonthlySalary: value(payroll.SettingFixedMonthlySalary),
		HourlyRate:         value(payroll.SettingHourlyRate),
		MonthStartDay:      value(payroll.SettingMonthStartDay),
		MonthEndDay:        value(payroll.SettingMonthEndDay),
	}

	policy, err := h.Engine.Policy(ctx)
	var cfgErr *payroll.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		dto.Error = cfgErr.Error()
	case err != nil:
		return SettingsDTO{}, err
	default:
		dto.Configured = policy.IsConfigured()
	}
	return dto, nil
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// GetToday returns today's log, or a null log when there is none.
func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	log, err := h.Attendance.Today(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := ClockResponse{Message: "No attendance logged today"}
	if log != nil {
		resp.Message = "Attendance logged today"
		resp.Log = toLogDTO(*log)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Startup performs the automatic clock-in the desktop client triggers on launch.
func (h *Handler) Startup(w http.ResponseWriter, r *http.Request) {
	outcome, log, err := h.Attendance.StartupIn(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClockResponse{
		Outcome: string(outcome),
		Message: outcome.Message(),
		Log:     toLogDTO(*log),
	})
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	log, err := h.Attendance.ManualIn(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClockResponse{
		Message: fmt.Sprintf("Logged IN at %s", log.TimeIn),
		Log:     toLogDTO(*log),
	})
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	log, err := h.Attendance.ManualOut(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClockResponse{
		Message: fmt.Sprintf("Logged OUT at %s", log.TimeOut),
		Log:     toLogDTO(*log),
	})
}

// History returns logs for the last ?days= days (default 30).
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeDomainError(w, fmt.Errorf("%w: days must be a non-negative integer", errInvalidQuery))
			return
		}
		days = n
	}

	logs, err := h.Attendance.History(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogDTOs(logs))
}

// =============================================================================
// LOG HANDLERS
// =============================================================================

// ListLogs returns logs in ?from=&to=, defaulting to the current pay period.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policy, err := h.Engine.Policy(ctx)
	var cfgErr *payroll.ConfigurationError
	if err != nil && !errors.As(err, &cfgErr) {
		writeDomainError(w, err)
		return
	}
	current := payroll.ResolvePeriod(policy, h.today())

	from, to, err := dateRange(r, current.Start, current.End)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	logs, err := h.Store.LogsInRange(ctx, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogDTOs(logs))
}

func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := payroll.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log := payroll.AttendanceLog{Date: date, TimeIn: req.TimeIn, TimeOut: req.TimeOut}
	if err := h.Attendance.AddEntry(r.Context(), log); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLogDTO(log))
}

func (h *Handler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	date, err := payroll.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req UpdateLogRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	log := payroll.AttendanceLog{Date: date, TimeIn: req.TimeIn, TimeOut: req.TimeOut}
	if err := h.Attendance.UpdateEntry(r.Context(), log); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogDTO(log))
}

func (h *Handler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	date, err := payroll.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Attendance.DeleteEntry(r.Context(), date); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays in ?from=&to=, defaulting to the current year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	from, to, err := dateRange(r,
		payroll.NewDate(year, time.January, 1),
		payroll.NewDate(year, time.December, 31),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	holidays, err := h.Store.HolidaysInRange(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{Date: hol.Date.String(), Description: hol.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := payroll.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	holiday := payroll.Holiday{Date: date, Description: strings.TrimSpace(req.Description)}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: date.String(), Description: holiday.Description})
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := payroll.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.DeleteHoliday(r.Context(), date); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetReport returns the report for ?month=&year=, or the current period.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportReport returns the same report as an XLSX workbook.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := WriteReportXLSX(&buf, report); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build spreadsheet", err)
		return
	}

	filename := "payroll.xlsx"
	if !report.PeriodStart.IsZero() {
		filename = fmt.Sprintf("payroll_%s_%s.xlsx", report.PeriodStart, report.PeriodEnd)
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (payroll.PayrollReport, bool) {
	month, err := reportMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return payroll.PayrollReport{}, false
	}
	report, err := h.Engine.CalculateMonthlySalary(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return payroll.PayrollReport{}, false
	}
	return report, true
}

// ListRuns returns recorded period-close runs, newest period first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]PayrollRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ClosePeriod records the run for the most recently ended period.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	run, err := h.Closer.CloseLastPeriod(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(*run))
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// reportMonth reads ?month=&year=. Both absent selects the current period.
func reportMonth(r *http.Request) (*payroll.ReportMonth, error) {
	q := r.URL.Query()
	rawMonth, rawYear := q.Get("month"), q.Get("year")
	if rawMonth == "" && rawYear == "" {
		return nil, nil
	}
	if rawMonth == "" || rawYear == "" {
		return nil, fmt.Errorf("%w: month and year must be given together", errInvalidQuery)
	}

	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", errInvalidQuery)
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year must be between 1 and 9999", errInvalidQuery)
	}
	return &payroll.ReportMonth{Year: year, Month: time.Month(month)}, nil
}

// dateRange reads ?from=&to=, falling back to the given bounds.
func dateRange(r *http.Request, defFrom, defTo payroll.Date) (payroll.Date, payroll.Date, error) {
	from, to := defFrom, defTo
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		d, err := payroll.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		from = d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := payroll.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		to = d
	}
	if to.Before(from) {
		return from, to, payroll.ErrInvalidPeriod
	}
	return from, to, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func toLogDTO(log payroll.AttendanceLog) *LogDTO {
	hours, _ := attendance.HoursWorked(log.TimeIn, log.TimeOut)
	return &LogDTO{
		Date:        log.Date.String(),
		TimeIn:      log.TimeIn,
		TimeOut:     log.TimeOut,
		HoursWorked: float64(hours.Round(time.Minute)) / float64(time.Hour),
	}
}

func toLogDTOs(logs []payroll.AttendanceLog) []LogDTO {
	dtos := make([]LogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = *toLogDTO(l)
	}
	return dtos
}

func toRunDTO(run payroll.PayrollRun) PayrollRunDTO {
	return PayrollRunDTO{
		ID:          run.ID,
		PeriodStart: run.PeriodStart.String(),
		PeriodEnd:   run.PeriodEnd.String(),
		TotalSalary: run.TotalSalary.StringFixed(2),
		GrossSalary: run.GrossSalary.StringFixed(2),
		Summary:     run.Summary,
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps validation and payroll errors to a status code.
func writeDomainError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
	case errors.Is(err, errInvalidBody), errors.Is(err, errInvalidQuery), payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case payroll.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
