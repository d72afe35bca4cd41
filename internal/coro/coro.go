// Package coro implements a single-threaded, cooperative scheduler that
// runs a fixed set of CPU-bound tasks to completion under a shared
// time-quantum discipline: each task yields back to the scheduler once it
// has run for roughly one quantum, so that K tasks sharing a target
// latency L each get a fair q = L/K slice before any other task is given
// another turn.
//
// Go has no native stackful coroutine primitive, so each Task is backed by
// its own goroutine and handed control explicitly through a pair of
// unbuffered, rendezvous channels — the scheduler and at most one task
// goroutine are ever runnable at the same instant, which is what makes the
// CPU-time accounting below exact rather than an estimate.
package coro

import (
	"sync/atomic"
	"time"
)

// TaskFunc is the user-supplied body of a coroutine. It receives the Task
// it is running as, so it can call Yield or CheckYield at its own
// checkpoints, and returns whatever result the caller wants to observe
// after the scheduler finishes.
type TaskFunc func(t *Task) any

type signal struct {
	finished bool
}

// Task is one cooperatively scheduled unit of work. Its CPU-time
// accounting and switch count are only meaningful after the owning
// Scheduler's Run has returned.
type Task struct {
	id    int
	fn    TaskFunc
	arg   any
	resume chan struct{}
	yield  chan signal

	quantum     time.Duration
	lastResume  time.Time
	workTime    time.Duration
	switchCount int
	finished    atomic.Bool
	result      any
}

// ID identifies the task within its scheduler, in spawn order.
func (t *Task) ID() int { return t.id }

// WorkTime is the accumulated CPU time the task actually spent running,
// counting only resume-to-yield intervals; time spent suspended is never
// included.
func (t *Task) WorkTime() time.Duration { return t.workTime }

// SwitchCount is the number of times this task voluntarily yielded.
func (t *Task) SwitchCount() int { return t.switchCount }

// Result is the value fn returned. Valid only once the task has finished.
func (t *Task) Result() any { return t.result }

// IsFinished reports whether the task has run to completion. It is safe to
// call from a goroutine other than the one driving the owning Scheduler's
// Run: the underlying flag is published with a release store from run() and
// observed with an acquire load here, so a true result also makes Result
// and the accounting fields (WorkTime, SwitchCount) visible.
func (t *Task) IsFinished() bool { return t.finished.Load() }

// Yield suspends the calling task, handing control back to the scheduler,
// and blocks until the scheduler resumes it. It updates the CPU-time
// accumulator for the interval just finished before suspending, and
// re-reads the clock on resumption so the next interval is measured from
// the true resume instant rather than from when Yield was called.
func (t *Task) Yield() {
	now := time.Now()
	t.workTime += now.Sub(t.lastResume)
	t.switchCount++
	t.yield <- signal{finished: false}
	<-t.resume
	t.lastResume = time.Now()
}

// CheckYield is the natural per-checkpoint call: if the task has been
// running for at least one quantum since it was last resumed, it yields;
// otherwise it returns immediately and keeps running.
func (t *Task) CheckYield() {
	if time.Since(t.lastResume) >= t.quantum {
		t.Yield()
	}
}

func (t *Task) run() {
	<-t.resume
	t.lastResume = time.Now()
	t.result = t.fn(t)
	t.workTime += time.Since(t.lastResume)
	t.finished.Store(true)
	t.yield <- signal{finished: true}
}

// Scheduler owns a batch of tasks that all share one target latency. All
// tasks must be spawned before Run is called: the quantum is computed once,
// from the task count at that moment, as q = L/K — tasks spawned after Run
// has started are not supported.
type Scheduler struct {
	targetLatency time.Duration
	tasks         []*Task
}

// NewScheduler creates a scheduler targeting the given total wall-clock
// latency for however many tasks are Spawned onto it before Run.
func NewScheduler(targetLatency time.Duration) *Scheduler {
	return &Scheduler{targetLatency: targetLatency}
}

// Spawn registers a new coroutine. It does not start running until Run is
// called; the returned Task is a stable handle good for reading results
// and statistics after Run returns.
func (s *Scheduler) Spawn(fn TaskFunc, arg any) *Task {
	t := &Task{
		id:     len(s.tasks),
		fn:     fn,
		arg:    arg,
		resume: make(chan struct{}),
		yield:  make(chan signal),
	}
	s.tasks = append(s.tasks, t)
	go t.run()
	return t
}

// Tasks returns every task spawned on this scheduler, in spawn order.
func (s *Scheduler) Tasks() []*Task {
	out := make([]*Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Run drives every spawned task to completion, round-robin, enforcing the
// shared quantum q = L/K computed from the number of tasks spawned by the
// time Run is called. It returns once every task has finished.
func (s *Scheduler) Run() {
	if len(s.tasks) == 0 {
		return
	}
	q := s.targetLatency / time.Duration(len(s.tasks))
	for _, t := range s.tasks {
		t.quantum = q
	}

	pending := make([]*Task, len(s.tasks))
	copy(pending, s.tasks)
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		next.resume <- struct{}{}
		sig := <-next.yield
		if !sig.finished {
			pending = append(pending, next)
		}
	}
}

// WaitAny blocks until at least one of the given tasks has finished and
// returns it. It is meant for callers that spawned tasks on a scheduler
// whose Run they are driving from a different goroutine; within a single
// Run call tasks already finish in the order Run observes them.
func WaitAny(tasks []*Task) *Task {
	for {
		for _, t := range tasks {
			if t.IsFinished() {
				return t
			}
		}
		time.Sleep(time.Microsecond * 50)
	}
}
