package health

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper checks every deployment on a cron schedule.
type Sweeper struct {
	checker *Checker
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewSweeper validates schedule (standard cron syntax or descriptors such
// as "@every 5m") and registers the sweep job.
func NewSweeper(checker *Checker, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid health sweep schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{
		checker: checker,
		cron:    cron.New(),
		timeout: 2 * time.Minute,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("failed to schedule health sweep: %w", err)
	}
	return s, nil
}

// Start begins running scheduled sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("health sweep failed", zap.Error(err))
	}
}

// Sweep checks every deployment once. A failing deployment is logged and
// skipped.
func (s *Sweeper) Sweep(ctx context.Context) ([]*Report, error) {
	deployments, err := s.checker.store.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(deployments))
	for _, d := range deployments {
		report, err := s.checker.Check(ctx, d.Slug)
		if err != nil {
			s.logger.Warn("health check failed", zap.String("deployment", d.Slug), zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	s.logger.Info("health sweep finished", zap.Int("deployments", len(reports)))
	return reports, nil
}
