/*
Package attendance records and edits daily clock-in/clock-out logs.

PURPOSE:
  The write side of attendance. The payroll engine only reads logs; this
  service is what creates them, either from the clock (startup, manual
  IN/OUT) or from explicit edits.

CLOCK OPERATIONS (today only):
  StartupIn  no log          -> insert IN = now
             log with OUT    -> clear OUT, session resumed
             open session    -> nothing, already in
  ManualIn   always          -> IN = now, OUT cleared
  ManualOut  log with IN     -> OUT = now
             otherwise       -> ErrNoClockIn

EDIT OPERATIONS (any date):
  AddEntry, UpdateEntry, DeleteEntry

Times are written as HH:MM; edits also accept HH:MM:SS.

SEE ALSO:
  - payroll/store.go: LogStore
  - api/handlers.go: HTTP surface
*/
package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/payroll-engine/payroll"
)

// DefaultHistoryDays is the window of History when none is given.
const DefaultHistoryDays = 30

// StartupOutcome describes what StartupIn did.
type StartupOutcome string

const (
	StartupLoggedIn  StartupOutcome = "logged_in"
	StartupResumed   StartupOutcome = "resumed"
	StartupAlreadyIn StartupOutcome = "already_in"
)

// Message is the user-facing text of the outcome.
func (o StartupOutcome) Message() string {
	switch o {
	case StartupLoggedIn:
		return "Logged IN automatically for today."
	case StartupResumed:
		return "You are back IN. Previous OUT time cleared."
	default:
		return "You are already logged IN for today. Welcome back!"
	}
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Logs payroll.LogStore

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(logs payroll.LogStore) *Service {
	return &Service{Logs: logs}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) clock() (payroll.Date, string) {
	now := s.now()
	return payroll.DateOf(now), payroll.ClockOf(now).String()
}

// StartupIn performs the automatic IN when the application starts.
func (s *Service) StartupIn(ctx context.Context) (StartupOutcome, *payroll.AttendanceLog, error) {
	today, now := s.clock()
	log, err := s.Logs.GetLog(ctx, today)
	if err != nil {
		return "", nil, err
	}

	switch {
	case log == nil:
		log = &payroll.AttendanceLog{Date: today, TimeIn: now}
		if err := s.Logs.InsertLog(ctx, *log); err != nil {
			return "", nil, fmt.Errorf("startup in: %w", err)
		}
		zerolog.Ctx(ctx).Info().Str("date", today.String()).Str("time_in", now).Msg("logged in")
		return StartupLoggedIn, log, nil

	case log.TimeOut != "":
		log.TimeOut = ""
		if err := s.Logs.UpdateLog(ctx, *log); err != nil {
			return "", nil, fmt.Errorf("startup in: %w", err)
		}
		zerolog.Ctx(ctx).Info().Str("date", today.String()).Msg("session resumed")
		return StartupResumed, log, nil

	default:
		return StartupAlreadyIn, log, nil
	}
}

// ManualIn records IN = now for today, overwriting any IN and clearing OUT.
func (s *Service) ManualIn(ctx context.Context) (*payroll.AttendanceLog, error) {
	today, now := s.clock()
	existing, err := s.Logs.GetLog(ctx, today)
	if err != nil {
		return nil, err
	}

	log := payroll.AttendanceLog{Date: today, TimeIn: now}
	if existing == nil {
		err = s.Logs.InsertLog(ctx, log)
	} else {
		err = s.Logs.UpdateLog(ctx, log)
	}
	if err != nil {
		return nil, fmt.Errorf("manual in: %w", err)
	}
	return &log, nil
}

// ManualOut records OUT = now for today. It fails with ErrNoClockIn when
// there is no IN time to close.
func (s *Service) ManualOut(ctx context.Context) (*payroll.AttendanceLog, error) {
	today, now := s.clock()
	log, err := s.Logs.GetLog(ctx, today)
	if err != nil {
		return nil, err
	}
	if !log.HasTimeIn() {
		return nil, payroll.ErrNoClockIn
	}

	log.TimeOut = now
	if err := s.Logs.UpdateLog(ctx, *log); err != nil {
		return nil, fmt.Errorf("manual out: %w", err)
	}
	return log, nil
}

// =============================================================================
// EDITS
// =============================================================================

// AddEntry inserts a complete entry for a past or future date. All three
// fields are required; a second entry for the same date fails with
// ErrDuplicateLog.
func (s *Service) AddEntry(ctx context.Context, log payroll.AttendanceLog) error {
	log.TimeIn, log.TimeOut = strings.TrimSpace(log.TimeIn), strings.TrimSpace(log.TimeOut)
	if log.Date.IsZero() || log.TimeIn == "" || log.TimeOut == "" {
		return payroll.ErrIncompleteEntry
	}
	if err := validateTimes(log); err != nil {
		return err
	}
	return s.Logs.InsertLog(ctx, log)
}

// UpdateEntry replaces the times of an existing entry. IN is required, OUT
// may be cleared.
func (s *Service) UpdateEntry(ctx context.Context, log payroll.AttendanceLog) error {
	log.TimeIn, log.TimeOut = strings.TrimSpace(log.TimeIn), strings.TrimSpace(log.TimeOut)
	if log.TimeIn == "" {
		return payroll.ErrMissingTimeIn
	}
	if err := validateTimes(log); err != nil {
		return err
	}
	return s.Logs.UpdateLog(ctx, log)
}

func (s *Service) DeleteEntry(ctx context.Context, date payroll.Date) error {
	return s.Logs.DeleteLog(ctx, date)
}

func validateTimes(log payroll.AttendanceLog) error {
	if _, err := payroll.ParseClock(log.TimeIn); err != nil {
		return fmt.Errorf("time_in: %w", err)
	}
	if log.TimeOut == "" {
		return nil
	}
	if _, err := payroll.ParseClock(log.TimeOut); err != nil {
		return fmt.Errorf("time_out: %w", err)
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Today returns today's log, or nil.
func (s *Service) Today(ctx context.Context) (*payroll.AttendanceLog, error) {
	today, _ := s.clock()
	return s.Logs.GetLog(ctx, today)
}

// History returns logs from days ago through today, ascending. days <= 0
// uses DefaultHistoryDays.
func (s *Service) History(ctx context.Context, days int) ([]payroll.AttendanceLog, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	today, _ := s.clock()
	return s.Logs.LogsInRange(ctx, today.AddDays(-days), today)
}

// HoursWorked returns the duration between IN and OUT. An OUT earlier than
// IN is an overnight shift. Either time missing yields zero.
func HoursWorked(timeIn, timeOut string) (time.Duration, error) {
	if timeIn == "" || timeOut == "" {
		return 0, nil
	}
	in, err := payroll.ParseClock(timeIn)
	if err != nil {
		return 0, err
	}
	out, err := payroll.ParseClock(timeOut)
	if err != nil {
		return 0, err
	}
	if out < in {
		out += payroll.Clock(24, 0)
	}
	return time.Duration(out-in) * time.Second, nil
}
