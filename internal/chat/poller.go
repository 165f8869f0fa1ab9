package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/assistant"
	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/logging"
)

const (
	// DefaultPollInterval is the delay between run status checks
	DefaultPollInterval = time.Second
	// cancelGrace bounds the best-effort remote cancel after polling stops
	cancelGrace = 5 * time.Second
)

// Poller waits for a run to leave the queued/in_progress states
type Poller struct {
	// Interval between status checks; zero means DefaultPollInterval.
	Interval time.Duration
	// Timeout bounds the whole wait; zero means no deadline.
	Timeout time.Duration
	// OnStatus, if set, observes every status retrieved.
	OnStatus func(assistant.RunStatus)
	Logger   *zap.Logger
}

// Wait polls runID until it reaches a terminal status, ctx is cancelled or
// the timeout passes. When polling stops early the run is cancelled remotely.
func (p Poller) Wait(ctx context.Context, svc assistant.Service, threadID, runID string) (assistant.Run, error) {
	logger := logging.OrNop(p.Logger)
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	pollCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	polls := 0
	for {
		run, err := svc.RetrieveRun(pollCtx, threadID, runID)
		polls++
		if err != nil {
			if pollCtx.Err() != nil {
				return run, p.stopped(ctx, pollCtx, svc, threadID, runID, logger)
			}
			return run, err
		}

		if p.OnStatus != nil {
			p.OnStatus(run.Status)
		}
		logger.Debug("run status",
			zap.String("run_id", runID),
			zap.String("status", string(run.Status)),
			zap.Int("poll", polls))

		if !run.Status.Pending() {
			return run, nil
		}

		timer.Reset(interval)
		select {
		case <-pollCtx.Done():
			return run, p.stopped(ctx, pollCtx, svc, threadID, runID, logger)
		case <-timer.C:
		}
	}
}

// stopped cancels the remote run and reports why polling ended.
func (p Poller) stopped(parent, pollCtx context.Context, svc assistant.Service, threadID, runID string, logger *zap.Logger) error {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), cancelGrace)
	defer cancel()
	if _, err := svc.CancelRun(cancelCtx, threadID, runID); err != nil {
		logger.Warn("failed to cancel run", zap.String("run_id", runID), zap.Error(err))
	}

	if parent.Err() != nil {
		return fmt.Errorf("polling run %s: %w", runID, parent.Err())
	}
	if errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(fmt.Sprintf("run %s still pending after %s", runID, p.Timeout))
	}
	return pollCtx.Err()
}
