// Package scheduler is a generic recurring-task runner for background jobs
// under device constraints: named unique jobs, constraint predicates,
// exponential backoff on failure, and a run-once-at-a-time guarantee per
// logical name.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// State is a job's position in its lifecycle.
type State string

const (
	StateEnqueued  State = "ENQUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateRetrying  State = "RETRY_WITH_BACKOFF"
	StateFailed    State = "PERMANENT_FAILURE"
)

// Job describes one recurring task.
type Job struct {
	Name         string
	Every        time.Duration // period between slots
	InitialDelay time.Duration
	Constraints  []Constraint
	Backoff      Backoff
	MaxRetries   int // retries after the first attempt; 0 means no retry
	Run          func(ctx context.Context) error
	// OnExhausted fires once when a slot's retry budget runs out. The next
	// periodic slot starts with a fresh budget.
	OnExhausted func()
}

type jobState struct {
	mu      sync.Mutex
	state   State
	running bool
}

// Scheduler owns the background goroutines. All writes the jobs perform are
// transactional, so cancelling mid-run is safe by construction.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*jobState
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*jobState),
		ctx:    ctx,
		cancel: cancel,
	}
}

// EnqueueUniquePeriodic registers a periodic job under its name with
// keep-existing semantics: if the name is already enqueued the call is a
// no-op and returns false.
func (s *Scheduler) EnqueueUniquePeriodic(job Job) bool {
	s.mu.Lock()
	if _, exists := s.jobs[job.Name]; exists {
		s.mu.Unlock()
		log.Printf("[scheduler] %s already enqueued, keeping existing", job.Name)
		return false
	}
	js := &jobState{state: StateEnqueued}
	s.jobs[job.Name] = js
	s.mu.Unlock()

	s.wg.Add(1)
	go s.periodicLoop(job, js)
	return true
}

// EnqueueOnce schedules a single execution of the job after its initial
// delay, on top of whatever periodic schedule exists.
func (s *Scheduler) EnqueueOnce(job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if !s.sleep(job.InitialDelay) {
			return
		}
		js := &jobState{state: StateEnqueued}
		s.runSlot(job, js)
	}()
}

// Stop cancels every job and waits for in-flight runs to wind down.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// JobState reports the last observed state for a periodic job name.
func (s *Scheduler) JobState(name string) (State, bool) {
	s.mu.Lock()
	js, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.state, true
}

// periodicLoop runs the first slot once the initial delay elapses, then a
// slot per period.
func (s *Scheduler) periodicLoop(job Job, js *jobState) {
	defer s.wg.Done()

	if !s.sleep(job.InitialDelay) {
		return
	}
	s.runSlot(job, js)

	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runSlot(job, js)
		}
	}
}

// runSlot executes one scheduled slot: constraint check, then the attempt
// loop with backoff. A slot that fires while the previous one is still
// running (long backoff, slow upload) is skipped, which is the
// run-once-at-a-time guarantee.
func (s *Scheduler) runSlot(job Job, js *jobState) {
	js.mu.Lock()
	if js.running {
		js.mu.Unlock()
		log.Printf("[scheduler] %s still running, skipping slot", job.Name)
		return
	}
	js.running = true
	js.mu.Unlock()
	defer func() {
		js.mu.Lock()
		js.running = false
		js.mu.Unlock()
	}()

	for _, c := range job.Constraints {
		if !c.Met() {
			log.Printf("[scheduler] %s skipped: constraint %s not met", job.Name, c.Name)
			return
		}
	}

	for attempt := 0; ; attempt++ {
		js.setState(StateRunning)
		err := job.Run(s.ctx)
		if err == nil {
			js.setState(StateSucceeded)
			return
		}
		if s.ctx.Err() != nil {
			return
		}

		if attempt >= job.MaxRetries {
			log.Printf("[scheduler] %s failed permanently after %d attempts: %v", job.Name, attempt+1, err)
			js.setState(StateFailed)
			if job.OnExhausted != nil {
				job.OnExhausted()
			}
			return
		}

		delay := job.Backoff.Delay(attempt + 1)
		log.Printf("[scheduler] %s failed (attempt %d): %v, retrying in %s", job.Name, attempt+1, err, delay)
		js.setState(StateRetrying)
		if !s.sleep(delay) {
			return
		}
	}
}

// sleep waits for d or until the scheduler stops; false means stopped.
func (s *Scheduler) sleep(d time.Duration) bool {
	if d <= 0 {
		return s.ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (js *jobState) setState(state State) {
	js.mu.Lock()
	js.state = state
	js.mu.Unlock()
}
