// Package scheduler runs the periodic background jobs of the server.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs every job on its own ticker. A tick that arrives while the previous
// run of the same job is still in flight is skipped.
type Scheduler struct {
	jobs   []Job
	logger *zap.SugaredLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for jobs. Jobs with a non-positive interval are ignored.
func New(logger *zap.SugaredLogger, jobs ...Job) *Scheduler {
	s := &Scheduler{logger: logger.With("component", "scheduler")}
	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			s.logger.Warnw("job disabled", "job", job.Name, "interval", job.Interval)
			continue
		}
		s.jobs = append(s.jobs, job)
	}
	return s
}

// Start launches the job loops. They stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop cancels the loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	log := s.logger.With("job", job.Name)
	log.Infow("starting job", "interval", job.Interval)

	var running atomic.Bool
	var runs sync.WaitGroup
	defer runs.Wait()

	for {
		select {
		case <-ticker.C:
			if !running.CompareAndSwap(false, true) {
				log.Warnw("previous run still in flight, tick skipped")
				continue
			}
			runs.Add(1)
			go func() {
				defer runs.Done()
				defer running.Store(false)
				defer func() {
					if p := recover(); p != nil {
						log.Errorw("job panicked", "panic", p)
					}
				}()
				start := time.Now()
				job.Run(ctx)
				log.Debugw("job finished", "duration", time.Since(start))
			}()
		case <-ctx.Done():
			log.Infow("stopping job")
			return
		}
	}
}
