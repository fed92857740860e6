package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ETFDesk/internal/recorder"
	"ETFDesk/internal/session"
)

// Scheduler runs maintenance jobs. It never triggers analyses; those only
// run on an explicit user action.
type Scheduler struct {
	Cron          *cron.Cron
	Recorder      recorder.Recorder
	Sessions      *session.Store
	RetentionDays int
	Now           func() time.Time
}

// NewScheduler creates a new Scheduler. A nil sessions skips the sweep job.
func NewScheduler(rec recorder.Recorder, sessions *session.Store, retentionDays int) *Scheduler {
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Recorder:      rec,
		Sessions:      sessions,
		RetentionDays: retentionDays,
		Now:           time.Now,
	}
}

// RegisterAll registers the journal prune job and the idle session sweep.
// Retention of zero keeps every journal row.
func (s *Scheduler) RegisterAll(pruneCron, sweepCron string) error {
	if s.RetentionDays > 0 {
		if _, err := s.Cron.AddFunc(pruneCron, func() { s.PruneNow() }); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	} else {
		zap.L().Info("journal retention disabled")
	}
	if s.Sessions != nil && s.Sessions.IdleTTL > 0 {
		if _, err := s.Cron.AddFunc(sweepCron, func() { s.SweepNow() }); err != nil {
			return fmt.Errorf("register session sweep: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	zap.L().Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	zap.L().Info("scheduler stopped")
}

// PruneNow deletes journal rows older than the retention window.
func (s *Scheduler) PruneNow() int64 {
	before := s.Now().AddDate(0, 0, -s.RetentionDays)
	n, err := s.Recorder.Prune(before)
	if err != nil {
		zap.L().Error("prune journal", zap.Error(err))
		return 0
	}
	zap.L().Info("journal pruned", zap.Int64("rows", n), zap.Time("before", before))
	return n
}

// SweepNow drops idle sessions.
func (s *Scheduler) SweepNow() int {
	n := s.Sessions.Sweep()
	if n > 0 {
		zap.L().Info("idle sessions dropped", zap.Int("count", n), zap.Int("remaining", s.Sessions.Len()))
	}
	return n
}
