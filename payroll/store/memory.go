// Package store provides an in-memory payroll.Store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	settings map[string]string
	logs     map[string]payroll.AttendanceLog
	holidays map[string]payroll.Holiday
	runs     []payroll.PayrollRun
}

var _ payroll.Store = (*Memory)(nil)

// NewMemory returns a store seeded with payroll.DefaultSettings.
func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.settings = make(map[string]string, len(payroll.DefaultSettings))
	for k, v := range payroll.DefaultSettings {
		m.settings[k] = v
	}
	m.logs = make(map[string]payroll.AttendanceLog)
	m.holidays = make(map[string]payroll.Holiday)
	m.runs = nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// Settings

func (m *Memory) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *Memory) PutSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// DeleteSetting removes a key so it reads as absent.
func (m *Memory) DeleteSetting(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
}

func (m *Memory) AllSettings(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

// Attendance logs

func (m *Memory) GetLog(_ context.Context, date payroll.Date) (*payroll.AttendanceLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.logs[date.String()]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *Memory) InsertLog(_ context.Context, log payroll.AttendanceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[log.Date.String()]; ok {
		return payroll.ErrDuplicateLog
	}
	m.logs[log.Date.String()] = log
	return nil
}

func (m *Memory) UpdateLog(_ context.Context, log payroll.AttendanceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[log.Date.String()]; !ok {
		return payroll.ErrLogNotFound
	}
	m.logs[log.Date.String()] = log
	return nil
}

func (m *Memory) DeleteLog(_ context.Context, date payroll.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[date.String()]; !ok {
		return payroll.ErrLogNotFound
	}
	delete(m.logs, date.String())
	return nil
}

func (m *Memory) LogsInRange(_ context.Context, from, to payroll.Date) ([]payroll.AttendanceLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.AttendanceLog
	for _, l := range m.logs {
		if from.BeforeOrEqual(l.Date) && l.Date.BeforeOrEqual(to) {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Holidays

func (m *Memory) SaveHoliday(_ context.Context, h payroll.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[h.Date.String()]; ok {
		return payroll.ErrDuplicateHoliday
	}
	m.holidays[h.Date.String()] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, date payroll.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[date.String()]; !ok {
		return payroll.ErrHolidayNotFound
	}
	delete(m.holidays, date.String())
	return nil
}

func (m *Memory) HolidaysInRange(_ context.Context, from, to payroll.Date) ([]payroll.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.Holiday
	for _, h := range m.holidays {
		if from.BeforeOrEqual(h.Date) && h.Date.BeforeOrEqual(to) {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Payroll runs

func (m *Memory) SaveRun(_ context.Context, run payroll.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.PeriodStart.Equal(run.PeriodStart) && r.PeriodEnd.Equal(run.PeriodEnd) {
			return payroll.ErrRunExists
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context) ([]payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]payroll.PayrollRun(nil), m.runs...)
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd.After(out[j].PeriodEnd) })
	return out, nil
}

func (m *Memory) IsRunRecorded(_ context.Context, period payroll.PayPeriod) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.PeriodStart.Equal(period.Start) && r.PeriodEnd.Equal(period.End) {
			return true, nil
		}
	}
	return false, nil
}
