package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
)

// minBaseInterval floors the tick interval to prevent CPU thrashing.
const minBaseInterval = time.Second

// Emitter is the part of the action dispatcher the scheduler needs.
type Emitter interface {
	Emit(kind action.Kind, payload any)
}

// Job is one scheduled action.
type Job struct {
	// Name identifies the job in logs and timing state. Names must be unique.
	Name string

	// Kind is the action emitted when the job is due.
	Kind action.Kind

	// Interval is how often the job runs. If 0, the scheduler's default
	// interval is used.
	Interval time.Duration

	// Payload builds the action payload each time the job runs. If nil the
	// action carries no payload.
	Payload func() any
}

// Scheduler emits job actions at their intervals.
//
// The scheduler runs every job immediately on start, then uses a
// tick-and-check pattern: it ticks at the GCD of all job intervals and runs
// only the jobs that are due.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	jobs     []Job
	interval time.Duration // default interval
	emitter  Emitter
	logger   *slog.Logger
	minTick  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	// per-job timing for tick-and-check pattern
	lastRunAt    map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a [Scheduler].
//
// Parameters:
//   - jobs: Jobs to run
//   - interval: Default interval for jobs without their own
//   - emitter: Dispatcher the actions are emitted through
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(jobs []Job, interval time.Duration, emitter Emitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:     jobs,
		interval: interval,
		emitter:  emitter,
		logger:   logger,
		minTick:  minBaseInterval,
	}
}

// calculateBaseInterval determines the tick interval for the scheduler.
// Uses the GCD of all job intervals to ensure timely runs.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.jobs) == 0 {
		return s.interval
	}

	result := s.intervalOf(s.jobs[0])
	for _, j := range s.jobs[1:] {
		result = gcdDuration(result, s.intervalOf(j))
	}

	if result < s.minTick {
		result = s.minTick
	}
	return result
}

func (s *Scheduler) intervalOf(j Job) time.Duration {
	if j.Interval > 0 {
		return j.Interval
	}
	return s.interval
}

// gcdDuration calculates the greatest common divisor of two durations.
func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the scheduling loop in a background goroutine.
//
// Start is non-blocking. The scheduler will:
//  1. Run all jobs immediately
//  2. Tick at the GCD of all job intervals
//  3. Run only jobs that are due on each tick
//  4. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastRunAt = make(map[string]time.Time, len(s.jobs))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.runDueJobs(true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runDueJobs(false)
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop to exit.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// runDueJobs emits the actions of jobs that are due.
// If immediate is true, runs every job regardless of timing.
//
// lastRunAt is updated when a job is emitted, so the effective interval is
// measured between emits, not between applied actions.
func (s *Scheduler) runDueJobs(immediate bool) {
	now := time.Now()
	due := make([]Job, 0, len(s.jobs))

	s.mu.Lock()
	for _, j := range s.jobs {
		last, exists := s.lastRunAt[j.Name]
		if immediate || !exists || now.Sub(last) >= s.intervalOf(j) {
			due = append(due, j)
			s.lastRunAt[j.Name] = now
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		payload, err := s.safePayload(j)
		if err != nil {
			continue
		}
		s.emitter.Emit(j.Kind, payload)
		s.logger.Debug("scheduled action emitted", "job", j.Name, "kind", j.Kind)
	}
}

// safePayload builds a job's payload with panic recovery.
// If the builder panics, it logs the full stack trace with a correlation ID
// and the job is skipped for this tick.
func (s *Scheduler) safePayload(j Job) (payload any, err error) {
	if j.Payload == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("job payload panic",
				"correlation_id", correlationID,
				"job", j.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			payload = nil
			err = fmt.Errorf("job payload panic (correlation_id: %s)", correlationID)
		}
	}()
	return j.Payload(), nil
}
