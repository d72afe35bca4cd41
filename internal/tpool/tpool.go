// Package tpool implements a bounded pool of goroutine workers draining a
// shared task queue, with joinable and detachable tasks. It is the
// concurrent counterpart to the cooperative scheduler in coro: here,
// multiple tasks genuinely run in parallel, coordinated with a pool-level
// mutex/condition pair for the queue and a second, per-task mutex/
// condition pair for that task's own status and result.
//
// The two lock domains are never held at once while user code runs: a
// worker dequeues under the pool mutex, releases it, runs the task's
// function with no lock held, then takes the task mutex only to publish
// the result.
package tpool

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"sysprog-lab/internal/obslog"
)

const (
	// MaxThreads bounds how many workers any single pool may create.
	MaxThreads = 64
	// MaxTasks bounds how many tasks may sit queued, unstarted, at once.
	MaxTasks = 4096
)

var (
	ErrInvalidArgument = errors.New("tpool: invalid argument")
	ErrHasTasks        = errors.New("tpool: pool has queued or in-progress tasks")
	ErrTooManyTasks    = errors.New("tpool: task queue is saturated")
	ErrTaskNotPushed   = errors.New("tpool: task has not been pushed, or is detached")
	ErrTaskInPool      = errors.New("tpool: task is still owned by the pool")
)

// Status is a task's position in the CREATED -> WAITING -> RUNNING ->
// COMPLETED -> JOINED state machine, with DETACHED as a side branch out of
// WAITING or RUNNING.
type Status int32

const (
	StatusCreated Status = iota
	StatusWaiting
	StatusRunning
	StatusCompleted
	StatusJoined
	StatusDetached
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusWaiting:
		return "waiting"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusJoined:
		return "joined"
	case StatusDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Func is a unit of pool work. Its return value becomes the task's result;
// it cannot fail through the pool's interface.
type Func func() any

// Task is a single unit of work: a function, its eventual result, and the
// mutex/condition pair a joiner waits on. The status field is additionally
// readable without the lock for cheap, advisory checks (IsRunning,
// IsFinished); every transition that matters is still made under mu.
type Task struct {
	id     string
	fn     Func
	status atomic.Int32

	mu     sync.Mutex
	cond   *sync.Cond
	result any
}

// NewTask creates a task in the CREATED state. It does no work until
// Pushed onto a Pool.
func NewTask(fn Func) *Task {
	t := &Task{id: uuid.NewString(), fn: fn}
	t.cond = sync.NewCond(&t.mu)
	t.status.Store(int32(StatusCreated))
	return t
}

// ID is a stable identifier for the task, suitable for job-tracking maps.
func (t *Task) ID() string { return t.id }

// Status is an advisory, lock-free read of the task's current state.
func (t *Task) Status() Status { return Status(t.status.Load()) }

// IsFinished reports whether the task has run to completion (regardless
// of whether it has since been joined; a detached task counts once its
// worker has finished it and marked it JOINED).
func (t *Task) IsFinished() bool {
	switch t.Status() {
	case StatusCompleted, StatusJoined:
		return true
	default:
		return false
	}
}

// IsRunning reports whether a worker is currently executing this task.
func (t *Task) IsRunning() bool { return t.Status() == StatusRunning }

// Join blocks until the task reaches COMPLETED, then transitions it to
// JOINED and returns its result. Joining a task that was never pushed
// fails with ErrTaskNotPushed; joining a detached task is not supported,
// since the worker has already disposed of it.
func (t *Task) Join() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch Status(t.status.Load()) {
	case StatusCreated, StatusDetached:
		return nil, ErrTaskNotPushed
	}
	for Status(t.status.Load()) == StatusWaiting || Status(t.status.Load()) == StatusRunning {
		t.cond.Wait()
	}
	if Status(t.status.Load()) != StatusCompleted {
		// already joined by a previous call
		return t.result, nil
	}
	t.status.Store(int32(StatusJoined))
	return t.result, nil
}

// Detach disavows the caller's interest in the task's result. If the task
// is still queued or running, it is marked DETACHED and the worker that
// eventually finishes it is responsible for disposing of it. If the task
// has already COMPLETED, Detach instead transitions it straight to JOINED,
// mirroring the reference semantics where a detach racing a just-finished
// task still results in exactly one side performing cleanup.
func (t *Task) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch Status(t.status.Load()) {
	case StatusCreated:
		return ErrTaskNotPushed
	case StatusCompleted:
		t.status.Store(int32(StatusJoined))
		return nil
	case StatusWaiting, StatusRunning:
		t.status.Store(int32(StatusDetached))
		return nil
	default:
		return ErrTaskNotPushed
	}
}

// Delete releases a task's bookkeeping. It is legal only in CREATED or
// JOINED: a task still owned by the pool (WAITING, RUNNING, or DETACHED,
// which the worker itself disposes of) cannot be deleted by the caller.
func (t *Task) Delete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch Status(t.status.Load()) {
	case StatusCreated, StatusJoined:
		return nil
	default:
		return ErrTaskInPool
	}
}

// Pool is a bounded set of worker goroutines draining a shared task
// stack. Workers are created lazily, one at a time, only when the queue
// has work that no idle existing worker can absorb.
type Pool struct {
	max int

	mu           sync.Mutex
	cond         *sync.Cond
	queue        []*Task
	workers      int
	inProgress   int
	shuttingDown bool
	wg           sync.WaitGroup

	submitted int64
	completed int64
	rejected  int64
}

// New creates a pool capped at max concurrent workers. max must be in
// (0, MaxThreads].
func New(max int) (*Pool, error) {
	if max <= 0 || max > MaxThreads {
		return nil, ErrInvalidArgument
	}
	p := &Pool{max: max}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// ThreadCount returns the number of workers currently alive.
func (p *Pool) ThreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Push enqueues task, transitioning it to WAITING, and spawns one
// additional worker iff the queued tasks outnumber the workers not already
// running a task (every existing worker is busy or already has a queued
// task waiting for it) and the pool has not yet reached its cap. It fails with ErrTooManyTasks if the
// queue is already saturated.
func (p *Pool) Push(task *Task) error {
	p.mu.Lock()

	if len(p.queue) >= MaxTasks {
		p.mu.Unlock()
		atomic.AddInt64(&p.rejected, 1)
		return ErrTooManyTasks
	}

	task.mu.Lock()
	task.status.Store(int32(StatusWaiting))
	task.mu.Unlock()

	p.queue = append(p.queue, task)
	atomic.AddInt64(&p.submitted, 1)

	if len(p.queue) > p.workers-p.inProgress && p.workers < p.max {
		p.workers++
		p.wg.Add(1)
		go p.worker()
	}
	p.cond.Signal()
	p.mu.Unlock()
	return nil
}

// worker is the loop run by every spawned goroutine: wait for work or
// shutdown, pop the most recently pushed task (LIFO), run it with no lock
// held, and publish its result under the task's own mutex.
func (p *Pool) worker() {
	defer p.wg.Done()
	log := obslog.Info("tpool")
	log.Log("worker started")

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shuttingDown {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.shuttingDown {
			p.mu.Unlock()
			return
		}
		task := p.queue[len(p.queue)-1]
		p.queue = p.queue[:len(p.queue)-1]
		p.inProgress++
		p.mu.Unlock()

		task.mu.Lock()
		if Status(task.status.Load()) != StatusDetached {
			task.status.Store(int32(StatusRunning))
		}
		task.mu.Unlock()

		result := task.fn()

		task.mu.Lock()
		task.result = result
		if Status(task.status.Load()) == StatusDetached {
			task.status.Store(int32(StatusJoined))
			task.mu.Unlock()
		} else {
			task.status.Store(int32(StatusCompleted))
			task.cond.Broadcast()
			task.mu.Unlock()
		}

		p.mu.Lock()
		p.inProgress--
		p.mu.Unlock()
		atomic.AddInt64(&p.completed, 1)
	}
}

// Delete shuts the pool down. It fails with ErrHasTasks if any task is
// still queued or in progress; otherwise it sets the shutdown flag,
// broadcasts to wake every idle worker, and waits for all of them to
// exit before returning.
func (p *Pool) Delete() error {
	p.mu.Lock()
	if len(p.queue) > 0 || p.inProgress > 0 {
		p.mu.Unlock()
		return ErrHasTasks
	}
	p.shuttingDown = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Stat is a point-in-time snapshot, used by the /metrics surface.
type Stat struct {
	Workers    int
	QueueLen   int
	InProgress int
	Submitted  int64
	Completed  int64
	Rejected   int64
}

func (p *Pool) Stat() Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stat{
		Workers:    p.workers,
		QueueLen:   len(p.queue),
		InProgress: p.inProgress,
		Submitted:  atomic.LoadInt64(&p.submitted),
		Completed:  atomic.LoadInt64(&p.completed),
		Rejected:   atomic.LoadInt64(&p.rejected),
	}
}
