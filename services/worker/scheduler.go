package worker

import (
	"context"
	"sync"

	"sjsage522/learningfield/logger"

	"github.com/robfig/cron/v3"
)

// Runner is something the scheduler can trigger
type Runner interface {
	RunOnce(ctx context.Context) (RunStats, error)
}

// Scheduler triggers a runner on a cron schedule, skipping a tick while the
// previous pass is still running
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler for a standard five-field cron expression
func NewScheduler(schedule string, runner Runner) *Scheduler {
	zl := logger.ForPipeline().Zerolog()
	cronLogger := cron.PrintfLogger(&zl)

	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		runner:   runner,
		schedule: schedule,
	}
}

// Start registers the job and starts the cron loop. Running passes are
// cancelled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	log := logger.ForPipeline()
	_, err := s.cron.AddFunc(s.schedule, func() {
		log.Info().Msg("Starting scheduled run")
		stats, err := s.runner.RunOnce(runCtx)
		if err != nil {
			log.Error().Err(err).Int("added", stats.Added).Msg("Scheduled run failed")
			return
		}
		log.Info().Int("added", stats.Added).Msg("Scheduled run completed")
	})
	if err != nil {
		cancel()
		return err
	}

	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop cancels any running pass and waits for it to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	logger.ForPipeline().Info().Msg("Scheduler stopped")
}

// Trigger runs the job immediately through the same skip-if-running chain
func (s *Scheduler) Trigger() {
	for _, e := range s.cron.Entries() {
		go e.WrappedJob.Run()
	}
}
