/*
Package postgres provides a PostgreSQL-backed implementation of payroll.Store.

PURPOSE:
  The server-side alternative to store/sqlite, selected with
  DB_DRIVER=postgres. Same tables, same failure semantics.

DIALECT DIFFERENCES FROM SQLITE:
  - Dates are DATE columns, money is NUMERIC(14,2) and IDs are UUID
  - Seeding uses ON CONFLICT DO NOTHING instead of INSERT OR IGNORE
  - Unique violations are detected by SQLSTATE 23505

CONSISTENT READS:
  Snapshot opens a REPEATABLE READ, READ ONLY transaction; every query in
  one report sees the same snapshot with no application lock.

SEE ALSO:
  - store/sqlite/sqlite.go: Embedded equivalent
  - payroll/store.go: Interfaces implemented here
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements payroll.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ payroll.Store       = (*Store)(nil)
	_ payroll.Snapshotter = (*Store)(nil)
)

// New connects, pings and migrates.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS attendance_logs (
	id BIGSERIAL PRIMARY KEY,
	date DATE NOT NULL UNIQUE,
	time_in TEXT,
	time_out TEXT
);

CREATE TABLE IF NOT EXISTS holidays (
	id BIGSERIAL PRIMARY KEY,
	holiday_date DATE NOT NULL UNIQUE,
	description TEXT
);

CREATE TABLE IF NOT EXISTS payroll_runs (
	id UUID PRIMARY KEY,
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	total_salary NUMERIC(14,2) NOT NULL,
	gross_salary NUMERIC(14,2) NOT NULL,
	summary TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (period_start, period_end)
);
`

func (s *Store) migrate(ctx context.Context) error {
	return WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return err
		}
		return seedSettings(ctx, tx)
	})
}

func seedSettings(ctx context.Context, q Querier) error {
	for key, value := range payroll.DefaultSettings {
		if _, err := q.Exec(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`, key, value,
		); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

// Reset truncates every table and re-seeds the default settings.
func (s *Store) Reset(ctx context.Context) error {
	return WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE attendance_logs, holidays, payroll_runs, settings`); err != nil {
			return err
		}
		return seedSettings(ctx, tx)
	})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTransaction executes fn inside a transaction, rolling back on error
// or panic.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	return withTx(ctx, pool, pgx.TxOptions{}, fn)
}

func withTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Snapshot runs fn inside a REPEATABLE READ, READ ONLY transaction.
func (s *Store) Snapshot(ctx context.Context, fn func(r payroll.Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return withTx(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(reader{q: tx})
	})
}

type reader struct {
	q Querier
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
	return getSetting(ctx, s.pool, key)
}

func getSetting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value *string
	err := q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, COALESCE(value, '') FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// =============================================================================
// ATTENDANCE LOGS
// =============================================================================

func (s *Store) GetLog(ctx context.Context, date payroll.Date) (*payroll.AttendanceLog, error) {
	var timeIn, timeOut string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(time_in, ''), COALESCE(time_out, '')
		FROM attendance_logs WHERE date = $1
	`, date.Time).Scan(&timeIn, &timeOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance log %s: %w", date, err)
	}
	return &payroll.AttendanceLog{Date: date, TimeIn: timeIn, TimeOut: timeOut}, nil
}

func (s *Store) InsertLog(ctx context.Context, log payroll.AttendanceLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attendance_logs (date, time_in, time_out) VALUES ($1, $2, $3)`,
		log.Date.Time, nullable(log.TimeIn), nullable(log.TimeOut),
	)
	if isUniqueViolation(err) {
		return payroll.ErrDuplicateLog
	}
	if err != nil {
		return fmt.Errorf("insert attendance log %s: %w", log.Date, err)
	}
	return nil
}

func (s *Store) UpdateLog(ctx context.Context, log payroll.AttendanceLog) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE attendance_logs SET time_in = $1, time_out = $2 WHERE date = $3`,
		nullable(log.TimeIn), nullable(log.TimeOut), log.Date.Time,
	)
	if err != nil {
		return fmt.Errorf("update attendance log %s: %w", log.Date, err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrLogNotFound
	}
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, date payroll.Date) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attendance_logs WHERE date = $1`, date.Time)
	if err != nil {
		return fmt.Errorf("delete attendance log %s: %w", date, err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrLogNotFound
	}
	return nil
}

func (s *Store) LogsInRange(ctx context.Context, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	return logsInRange(ctx, s.pool, from, to)
}

func logsInRange(ctx context.Context, q Querier, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	rows, err := q.Query(ctx, `
		SELECT date, COALESCE(time_in, ''), COALESCE(time_out, '')
		FROM attendance_logs
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC
	`, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("query attendance logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.AttendanceLog
	for rows.Next() {
		var (
			date time.Time
			log  payroll.AttendanceLog
		)
		if err := rows.Scan(&date, &log.TimeIn, &log.TimeOut); err != nil {
			return nil, fmt.Errorf("scan attendance log: %w", err)
		}
		log.Date = payroll.DateOf(date)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h payroll.Holiday) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO holidays (holiday_date, description) VALUES ($1, $2)`,
		h.Date.Time, h.Description,
	)
	if isUniqueViolation(err) {
		return payroll.ErrDuplicateHoliday
	}
	if err != nil {
		return fmt.Errorf("save holiday %s: %w", h.Date, err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, date payroll.Date) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM holidays WHERE holiday_date = $1`, date.Time)
	if err != nil {
		return fmt.Errorf("delete holiday %s: %w", date, err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrHolidayNotFound
	}
	return nil
}

func (s *Store) HolidaysInRange(ctx context.Context, from, to payroll.Date) ([]payroll.Holiday, error) {
	return holidaysInRange(ctx, s.pool, from, to)
}

func holidaysInRange(ctx context.Context, q Querier, from, to payroll.Date) ([]payroll.Holiday, error) {
	rows, err := q.Query(ctx, `
		SELECT holiday_date, COALESCE(description, '')
		FROM holidays
		WHERE holiday_date BETWEEN $1 AND $2
		ORDER BY holiday_date ASC
	`, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []payroll.Holiday
	for rows.Next() {
		var (
			date time.Time
			h    payroll.Holiday
		)
		if err := rows.Scan(&date, &h.Description); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		h.Date = payroll.DateOf(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run payroll.PayrollRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payroll_runs
		(id, period_start, period_end, total_salary, gross_salary, summary, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7)
	`,
		run.ID,
		run.PeriodStart.Time,
		run.PeriodEnd.Time,
		run.TotalSalary.String(),
		run.GrossSalary.String(),
		run.Summary,
		run.CreatedAt,
	)
	if isUniqueViolation(err) {
		return payroll.ErrRunExists
	}
	if err != nil {
		return fmt.Errorf("save payroll run: %w", err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context) ([]payroll.PayrollRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, period_start, period_end, total_salary::text, gross_salary::text,
		       COALESCE(summary, ''), created_at
		FROM payroll_runs
		ORDER BY period_end DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		var (
			run          payroll.PayrollRun
			start, end   time.Time
			total, gross string
		)
		if err := rows.Scan(&run.ID, &start, &end, &total, &gross, &run.Summary, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payroll run: %w", err)
		}
		run.PeriodStart, run.PeriodEnd = payroll.DateOf(start), payroll.DateOf(end)
		if run.TotalSalary, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if run.GrossSalary, err = decimal.NewFromString(gross); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) IsRunRecorded(ctx context.Context, period payroll.PayPeriod) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payroll_runs WHERE period_start = $1 AND period_end = $2)`,
		period.Start.Time, period.End.Time,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check payroll run %s: %w", period, err)
	}
	return exists, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
