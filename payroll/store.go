/*
store.go - Collaborator interfaces for the payroll engine

PURPOSE:
  Defines the boundary between the engine and storage. The engine only
  consumes the three read-only providers; the write-side interfaces are
  used by the attendance service and the HTTP API.

KEY INTERFACES:
  SettingsProvider: Pay policy key/value lookup
  LogProvider:      Attendance logs in an inclusive date range
  HolidayProvider:  Holidays in an inclusive date range
  Store:            Everything above plus writes, implemented by
                    store/sqlite, store/postgres and payroll/store (memory)

CONSISTENT READS:
  One report reads logs and holidays in two calls. A store shared with
  writers must give both calls the same view; the sqlite store serializes
  with a RWMutex and the postgres store exposes Snapshot for a
  REPEATABLE READ transaction.

SEE ALSO:
  - engine.go: Uses the providers
  - attendance/service.go: Uses LogStore
*/
package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READ-ONLY PROVIDERS - All the engine ever touches
// =============================================================================

// SettingsProvider returns a setting's stored value; ok is false if absent.
type SettingsProvider interface {
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
}

// LogProvider returns logs in [from, to], one per date, ascending.
type LogProvider interface {
	LogsInRange(ctx context.Context, from, to Date) ([]AttendanceLog, error)
}

// HolidayProvider returns holidays in [from, to], one per date, ascending.
type HolidayProvider interface {
	HolidaysInRange(ctx context.Context, from, to Date) ([]Holiday, error)
}

// Reader is the union of the read-only providers.
type Reader interface {
	SettingsProvider
	LogProvider
	HolidayProvider
}

// Snapshotter runs fn against a view that does not change while fn runs.
// Stores shared with concurrent writers implement it; the engine uses it
// when present.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(r Reader) error) error
}

// =============================================================================
// WRITE-SIDE STORES
// =============================================================================

type SettingsStore interface {
	SettingsProvider
	PutSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

// LogStore is the attendance log table. GetLog returns (nil, nil) when no
// log exists; InsertLog fails with ErrDuplicateLog and UpdateLog/DeleteLog
// with ErrLogNotFound.
type LogStore interface {
	LogProvider
	GetLog(ctx context.Context, date Date) (*AttendanceLog, error)
	InsertLog(ctx context.Context, log AttendanceLog) error
	UpdateLog(ctx context.Context, log AttendanceLog) error
	DeleteLog(ctx context.Context, date Date) error
}

// HolidayStore is the holiday calendar. SaveHoliday fails with
// ErrDuplicateHoliday and DeleteHoliday with ErrHolidayNotFound.
type HolidayStore interface {
	HolidayProvider
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, date Date) error
}

// =============================================================================
// PAYROLL RUNS - Period-close bookkeeping
// =============================================================================

// PayrollRun records that a closed period's final report was computed.
// Only totals are kept; day records are recomputed on demand.
type PayrollRun struct {
	ID          string          `json:"id"`
	PeriodStart Date            `json:"period_start"`
	PeriodEnd   Date            `json:"period_end"`
	TotalSalary decimal.Decimal `json:"total_salary"`
	GrossSalary decimal.Decimal `json:"gross_salary"`
	Summary     string          `json:"summary"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RunStore fails SaveRun with ErrRunExists for an already-recorded period.
type RunStore interface {
	SaveRun(ctx context.Context, run PayrollRun) error
	ListRuns(ctx context.Context) ([]PayrollRun, error)
	IsRunRecorded(ctx context.Context, period PayPeriod) (bool, error)
}

// Store is the full persistence surface used by the application.
type Store interface {
	SettingsStore
	LogStore
	HolidayStore
	RunStore

	// Reset clears all data and re-seeds DefaultSettings.
	Reset(ctx context.Context) error
}
