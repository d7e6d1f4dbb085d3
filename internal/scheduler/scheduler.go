package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pruner drops request log entries recorded before a cutoff
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler periodically prunes the request log down to the retention window
type Scheduler struct {
	store     Pruner
	retention time.Duration
	log       *logrus.Logger
	now       func() time.Time
}

func New(store Pruner, retention time.Duration, log *logrus.Logger) *Scheduler {
	return &Scheduler{store: store, retention: retention, log: log, now: time.Now}
}

// PruneOnce removes every entry older than the retention window
func (s *Scheduler) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune request log: %w", err)
	}
	return n, nil
}

// Run prunes on the given cron schedule until ctx is cancelled.
// A zero retention disables pruning and Run returns at once.
func (s *Scheduler) Run(ctx context.Context, schedule string) error {
	if s.retention == 0 {
		s.log.Info("Request log retention disabled, pruning not scheduled")
		return nil
	}

	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(s.log)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(s.log)), cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)
	if _, err := c.AddFunc(schedule, func() {
		n, err := s.PruneOnce(ctx)
		if err != nil {
			s.log.Errorf("Scheduled prune failed: %v", err)
			return
		}
		if n > 0 {
			s.log.Infof("Pruned %d request log entries older than %s", n, s.retention)
		}
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	c.Start()
	s.log.Infof("Request log pruning scheduled %q, retention %s", schedule, s.retention)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
