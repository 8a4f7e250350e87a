/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  The embedded store used by the server by default and by the API tests
  (":memory:"). It holds settings, attendance logs, holidays and the
  period-close run history.

KEY TABLES:
  settings:         Pay policy key/value pairs, seeded with 0, 0, 28, 27
  attendance_logs:  One row per date (UNIQUE), times as HH:MM[:SS] text
  holidays:         One row per holiday_date (UNIQUE)
  payroll_runs:     One row per closed period (UNIQUE start, end)

Dates are stored as YYYY-MM-DD text, so BETWEEN on the text column is a
date-range query. Money is stored as decimal text.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Snapshot holds the read lock across
  a read-only transaction so one report never sees a half-applied write.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging): readers do not
  block each other and there is a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := payroll.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/store.go: The interfaces implemented here
  - store/postgres: The same surface on PostgreSQL
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ payroll.Store       = (*Store)(nil)
	_ payroll.Snapshotter = (*Store)(nil)
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema and seeds default settings.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT
	);

	CREATE TABLE IF NOT EXISTS attendance_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		time_in TEXT,
		time_out TEXT
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		holiday_date TEXT NOT NULL UNIQUE,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		total_salary TEXT NOT NULL,
		gross_salary TEXT NOT NULL,
		summary TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (period_start, period_end)
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return seedSettings(ctx, s.db)
}

func seedSettings(ctx context.Context, q querier) error {
	for key, value := range payroll.DefaultSettings {
		if _, err := q.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value,
		); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

// Reset clears all data and re-seeds the default settings.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"attendance_logs", "holidays", "payroll_runs", "settings"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return seedSettings(ctx, s.db)
}

// =============================================================================
// SNAPSHOT (payroll.Snapshotter)
// =============================================================================

// Snapshot runs fn against a read-only transaction under the read lock.
func (s *Store) Snapshot(ctx context.Context, fn func(r payroll.Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	return fn(reader{q: tx})
}

// reader answers the provider interfaces without taking the store lock.
type reader struct {
	q querier
}

func (r reader) GetSetting(ctx context.Context, key string) (string, bool, error) {
	return getSetting(ctx, r.q, key)
}

func (r reader) LogsInRange(ctx context.Context, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	return logsInRange(ctx, r.q, from, to)
}

func (r reader) HolidaysInRange(ctx context.Context, from, to payroll.Date) ([]payroll.Holiday, error) {
	return holidaysInRange(ctx, r.q, from, to)
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSetting(ctx, s.db, key)
}

func getSetting(ctx context.Context, q querier, key string) (string, bool, error) {
	var value sql.NullString
	err := q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting: %w", err)
	}
	return value.String, value.Valid, nil
}

// PutSetting inserts or replaces a setting.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value.String
	}
	return settings, rows.Err()
}

// =============================================================================
// ATTENDANCE LOGS
// =============================================================================

// GetLog returns the log for date, or nil if there is none.
func (s *Store) GetLog(ctx context.Context, date payroll.Date) (*payroll.AttendanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var timeIn, timeOut sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT time_in, time_out FROM attendance_logs WHERE date = ?", date.String(),
	).Scan(&timeIn, &timeOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance log: %w", err)
	}
	return &payroll.AttendanceLog{Date: date, TimeIn: timeIn.String, TimeOut: timeOut.String}, nil
}

func (s *Store) InsertLog(ctx context.Context, log payroll.AttendanceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO attendance_logs (date, time_in, time_out) VALUES (?, ?, ?)",
		log.Date.String(), nullString(log.TimeIn), nullString(log.TimeOut),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateLog
		}
		return fmt.Errorf("failed to insert attendance log: %w", err)
	}
	return nil
}

func (s *Store) UpdateLog(ctx context.Context, log payroll.AttendanceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE attendance_logs SET time_in = ?, time_out = ? WHERE date = ?",
		nullString(log.TimeIn), nullString(log.TimeOut), log.Date.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance log: %w", err)
	}
	return requireAffected(res, payroll.ErrLogNotFound)
}

func (s *Store) DeleteLog(ctx context.Context, date payroll.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM attendance_logs WHERE date = ?", date.String())
	if err != nil {
		return fmt.Errorf("failed to delete attendance log: %w", err)
	}
	return requireAffected(res, payroll.ErrLogNotFound)
}

func (s *Store) LogsInRange(ctx context.Context, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return logsInRange(ctx, s.db, from, to)
}

func logsInRange(ctx context.Context, q querier, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT date, time_in, time_out
		FROM attendance_logs
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC
	`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.AttendanceLog
	for rows.Next() {
		var (
			date            string
			timeIn, timeOut sql.NullString
		)
		if err := rows.Scan(&date, &timeIn, &timeOut); err != nil {
			return nil, fmt.Errorf("failed to scan attendance log: %w", err)
		}
		d, err := payroll.ParseDate(date)
		if err != nil {
			return nil, err
		}
		logs = append(logs, payroll.AttendanceLog{Date: d, TimeIn: timeIn.String, TimeOut: timeOut.String})
	}
	return logs, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h payroll.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO holidays (holiday_date, description) VALUES (?, ?)",
		h.Date.String(), h.Description,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateHoliday
		}
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, date payroll.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE holiday_date = ?", date.String())
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return requireAffected(res, payroll.ErrHolidayNotFound)
}

func (s *Store) HolidaysInRange(ctx context.Context, from, to payroll.Date) ([]payroll.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return holidaysInRange(ctx, s.db, from, to)
}

func holidaysInRange(ctx context.Context, q querier, from, to payroll.Date) ([]payroll.Holiday, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT holiday_date, description
		FROM holidays
		WHERE holiday_date BETWEEN ? AND ?
		ORDER BY holiday_date ASC
	`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []payroll.Holiday
	for rows.Next() {
		var (
			date        string
			description sql.NullString
		)
		if err := rows.Scan(&date, &description); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		d, err := payroll.ParseDate(date)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, payroll.Holiday{Date: d, Description: description.String})
	}
	return holidays, rows.Err()
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run payroll.PayrollRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_runs
		(id, period_start, period_end, total_salary, gross_salary, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.PeriodStart.String(),
		run.PeriodEnd.String(),
		run.TotalSalary.String(),
		run.GrossSalary.String(),
		run.Summary,
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrRunExists
		}
		return fmt.Errorf("failed to save payroll run: %w", err)
	}
	return nil
}

// ListRuns returns every recorded run, most recent period first.
func (s *Store) ListRuns(ctx context.Context) ([]payroll.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_start, period_end, total_salary, gross_salary, summary, created_at
		FROM payroll_runs
		ORDER BY period_end DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) IsRunRecorded(ctx context.Context, period payroll.PayPeriod) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payroll_runs WHERE period_start = ? AND period_end = ?",
		period.Start.String(), period.End.String(),
	).Scan(&count)
	return count > 0, err
}

func scanRun(rows *sql.Rows) (payroll.PayrollRun, error) {
	var (
		run          payroll.PayrollRun
		start, end   string
		total, gross string
		summary      sql.NullString
		createdAt    string
	)
	if err := rows.Scan(&run.ID, &start, &end, &total, &gross, &summary, &createdAt); err != nil {
		return run, fmt.Errorf("failed to scan payroll run: %w", err)
	}

	var err error
	if run.PeriodStart, err = payroll.ParseDate(start); err != nil {
		return run, err
	}
	if run.PeriodEnd, err = payroll.ParseDate(end); err != nil {
		return run, err
	}
	if run.TotalSalary, err = decimal.NewFromString(total); err != nil {
		return run, fmt.Errorf("payroll run %s total: %w", run.ID, err)
	}
	if run.GrossSalary, err = decimal.NewFromString(gross); err != nil {
		return run, fmt.Errorf("payroll run %s gross: %w", run.ID, err)
	}
	run.Summary = summary.String
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return run, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
