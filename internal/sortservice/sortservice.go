// Package sortservice composes the three independent cores — coro, ufs,
// and tpool — to answer one request: sort N named files' worth of
// integers under a shared latency budget, merge the results, and publish
// them back into the file system. None of the three cores imports this
// package or one another; this is the only place they are wired together.
package sortservice

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"sysprog-lab/internal/coro"
	"sysprog-lab/internal/obslog"
	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

// Request describes one sort job: names of already-open-and-written input
// files in the shared file system, the latency budget in microseconds
// that drives the coroutine scheduler's quantum, and the name under which
// the merged result should be written.
type Request struct {
	Inputs          []string
	TargetLatencyUs int64
	Output          string
}

// WorkerStat reports one input file's coroutine accounting.
type WorkerStat struct {
	File        string `json:"file"`
	WorkTimeUs  int64  `json:"work_time_us"`
	SwitchCount int    `json:"switch_count"`
}

// Result is what a sort job produces.
type Result struct {
	Output  string       `json:"output"`
	Count   int          `json:"count"`
	Workers []WorkerStat `json:"workers"`
	Err     error        `json:"-"`
}

// Service runs sort jobs against the shared ufs.FileSystem and tpool.Pool
// a server exposes over HTTP; it is the only package that combines them
// with coro.
type Service struct {
	fsys *ufs.FileSystem
	pool *tpool.Pool
	fsMu sync.Mutex // ufs.FileSystem has no locking of its own (spec: single-threaded)
}

// New wires a Service over an existing file system and worker pool. Both
// are owned by the caller and typically shared with other HTTP handlers
// (direct /fs/* and /pool/* operations).
func New(fsys *ufs.FileSystem, pool *tpool.Pool) *Service {
	return &Service{fsys: fsys, pool: pool}
}

// Submit pushes one sort job onto the pool and returns its task handle
// immediately; the caller joins it later (e.g. via a jobs.Manager) to
// retrieve the Result.
func (s *Service) Submit(req Request) (*tpool.Task, error) {
	task := tpool.NewTask(func() any { return s.run(req) })
	if err := s.pool.Push(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) run(req Request) Result {
	log := obslog.Info("sortservice")
	log.Str("output", req.Output).Int("inputs", len(req.Inputs)).Log("sort job started")

	datasets := make([][]int, len(req.Inputs))
	s.fsMu.Lock()
	for i, name := range req.Inputs {
		data, err := s.readInts(name)
		if err != nil {
			s.fsMu.Unlock()
			return Result{Err: fmt.Errorf("reading %q: %w", name, err)}
		}
		datasets[i] = data
	}
	s.fsMu.Unlock()

	sched := coro.NewScheduler(time.Duration(req.TargetLatencyUs) * time.Microsecond)
	tasks := make([]*coro.Task, len(datasets))
	for i, data := range datasets {
		tasks[i] = sched.Spawn(coro.QuickSortTask(data), nil)
	}
	sched.Run()

	merged := coro.MergeSorted(datasets)

	s.fsMu.Lock()
	err := s.writeInts(req.Output, merged)
	s.fsMu.Unlock()
	if err != nil {
		return Result{Err: fmt.Errorf("writing %q: %w", req.Output, err)}
	}

	stats := make([]WorkerStat, len(tasks))
	for i, t := range tasks {
		stats[i] = WorkerStat{
			File:        req.Inputs[i],
			WorkTimeUs:  t.WorkTime().Microseconds(),
			SwitchCount: t.SwitchCount(),
		}
	}
	log.Str("output", req.Output).Log("sort job finished")
	return Result{Output: req.Output, Count: len(merged), Workers: stats}
}

// readInts opens name read-only, decodes whitespace-separated integers
// from it in full, and closes the descriptor — the Go equivalent of the
// reference exercise's own "read an int file into an array" glue, which
// the core scheduler was always meant to receive data from, not to
// implement itself.
func (s *Service) readInts(name string) ([]int, error) {
	fd, err := s.fsys.Open(name, ufs.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer s.fsys.Close(fd)

	sc := bufio.NewScanner(&ufsReader{fsys: s.fsys, fd: fd})
	sc.Split(bufio.ScanWords)
	var out []int
	for sc.Scan() {
		n, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, sc.Err()
}

// writeInts creates (or truncates, by unlinking first) name and writes
// values as whitespace-separated decimal text.
func (s *Service) writeInts(name string, values []int) error {
	_ = s.fsys.Unlink(name)
	fd, err := s.fsys.Open(name, ufs.Create)
	if err != nil {
		return err
	}
	defer s.fsys.Close(fd)

	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	_, err = s.fsys.Write(fd, []byte(b.String()))
	return err
}

// ufsReader adapts a ufs.FileSystem descriptor to io.Reader.
type ufsReader struct {
	fsys *ufs.FileSystem
	fd   int
}

func (r *ufsReader) Read(p []byte) (int, error) {
	n, err := r.fsys.Read(r.fd, p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
