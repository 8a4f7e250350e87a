/*
scheduler.go - Automated period-close scheduler

PURPOSE:
  Once a pay period has ended, computes its final report and records a
  PayrollRun with the totals. Runs on a cron schedule and can be triggered
  through POST /api/payroll/runs/close.

DESIGN:
  - robfig/cron drives the checks (default "@daily")
  - The period closed is always the one before the period containing today
  - A period already recorded is skipped (ErrRunExists on manual close)
  - An unconfigured policy is skipped; there is nothing to close

USAGE:
  closer := NewPeriodCloseScheduler(store, engine)
  if err := closer.Start("@daily"); err != nil {
      ...
  }
  defer closer.Stop()

SEE ALSO:
  - handlers.go: ClosePeriod, ListRuns endpoints
  - payroll/engine.go: CalculatePeriod
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
)

// PeriodCloseScheduler records one PayrollRun per ended period.
type PeriodCloseScheduler struct {
	Store  payroll.RunStore
	Engine *payroll.Engine

	// Now defaults to time.Now.
	Now func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

// NewPeriodCloseScheduler creates a stopped scheduler.
func NewPeriodCloseScheduler(store payroll.RunStore, engine *payroll.Engine) *PeriodCloseScheduler {
	return &PeriodCloseScheduler{
		Store:  store,
		Engine: engine,
	}
}

func (s *PeriodCloseScheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start schedules the check with a standard cron spec or descriptor and
// runs it once immediately.
func (s *PeriodCloseScheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()

	go s.RunNow()
	logger.Get().Info().Str("spec", spec).Msg("period-close scheduler started")
	return nil
}

// Stop waits for a running check to finish.
func (s *PeriodCloseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	logger.Get().Info().Msg("period-close scheduler stopped")
}

// RunNow closes the last ended period if it is not recorded yet.
func (s *PeriodCloseScheduler) RunNow() {
	ctx := logger.WithContext(context.Background(), map[string]interface{}{"job": "period_close"})
	log := logger.FromContext(ctx)

	run, err := s.CloseLastPeriod(ctx)
	switch {
	case errors.Is(err, payroll.ErrRunExists):
		log.Debug().Msg("last period already closed")
	case errors.Is(err, payroll.ErrNotConfigured):
		log.Debug().Err(err).Msg("skipping period close")
	case err != nil:
		log.Error().Err(err).Msg("period close failed")
	default:
		log.Info().
			Str("run_id", run.ID).
			Str("period_start", run.PeriodStart.String()).
			Str("period_end", run.PeriodEnd.String()).
			Str("total", run.TotalSalary.StringFixed(2)).
			Msg("period closed")
	}
}

// LastEndedPeriod returns the period before the one containing today.
func (s *PeriodCloseScheduler) LastEndedPeriod(policy payroll.PayPolicy) payroll.PayPeriod {
	current := payroll.ResolvePeriod(policy, payroll.DateOf(s.now()))
	return payroll.PreviousPeriod(policy, current)
}

// CloseLastPeriod computes and records the run for the last ended period.
// It fails with a *payroll.ConfigurationError when the policy is not usable
// and with payroll.ErrRunExists when the period was already recorded.
func (s *PeriodCloseScheduler) CloseLastPeriod(ctx context.Context) (*payroll.PayrollRun, error) {
	policy, err := s.Engine.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.IsConfigured() {
		return nil, &payroll.ConfigurationError{
			Key:    payroll.SettingFixedMonthlySalary,
			Reason: "salary and hourly rate must be set before closing a period",
		}
	}

	period := s.LastEndedPeriod(policy)
	done, err := s.Store.IsRunRecorded(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("check run %s: %w", period, err)
	}
	if done {
		return nil, payroll.ErrRunExists
	}

	report, err := s.Engine.CalculatePeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if !report.Configured {
		return nil, &payroll.ConfigurationError{Key: payroll.SettingFixedMonthlySalary, Reason: report.Summary}
	}

	run := payroll.PayrollRun{
		ID:          uuid.NewString(),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		TotalSalary: report.TotalSalary,
		GrossSalary: report.GrossSalary,
		Summary:     report.Summary,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	if err := s.Store.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return &run, nil
}
