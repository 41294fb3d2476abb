package poller

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/clubot/internal/logger"
	"github.com/robfig/cron/v3"
)

// Cycler runs one poll cycle
type Cycler interface {
	RunCycle(ctx context.Context) ([]Outcome, error)
}

// Scheduler runs cycles on a cron schedule without overlap
type Scheduler struct {
	cycler Cycler
	spec   string
}

// NewScheduler creates a scheduler. spec accepts standard cron expressions
// and descriptors such as "@every 600s".
func NewScheduler(cycler Cycler, spec string) *Scheduler {
	return &Scheduler{cycler: cycler, spec: spec}
}

// Run executes one cycle immediately, then on schedule until ctx is done.
// On cancellation it waits for the running cycle to return.
func (s *Scheduler) Run(ctx context.Context) error {
	log := cronLogger{}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.runOnce(ctx)
	if ctx.Err() != nil {
		return nil
	}

	c.Start()
	logger.Info("Scheduler started", logger.Fields{"schedule": s.spec})

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Scheduler stopped", nil)

	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	outcomes, err := s.cycler.RunCycle(ctx)
	if err != nil {
		logger.Warn("Cycle finished with errors", logger.Fields{"activities": len(outcomes), "error": err.Error()})
		return
	}
	logger.Debug("Cycle finished", logger.Fields{"activities": len(outcomes)})
}

// cronLogger routes cron's own messages to the package logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(keysAndValues []interface{}) logger.Fields {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
