// Package jobs tracks sort jobs submitted through sortservice as
// addressable, pollable records: a submitter gets a job ID back
// immediately, and later asks for status or the final result without
// having to hold on to the underlying tpool.Task handle itself.
package jobs

import (
	"encoding/json"
	"sync"
	"time"

	"sysprog-lab/internal/sortservice"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is one submitted sort request and its evolving outcome.
type Job struct {
	ID         string              `json:"id"`
	Request    sortservice.Request `json:"request"`
	Status     Status              `json:"status"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	EndedAt    *time.Time          `json:"ended_at,omitempty"`
	Result     *sortservice.Result `json:"result,omitempty"`
}

// Manager keeps an in-memory record of submitted jobs, garbage-collecting
// finished ones after ttl has elapsed.
type Manager struct {
	svc *sortservice.Service

	mu   sync.RWMutex
	jobs map[string]*Job

	ttl   time.Duration
	stopC chan struct{}
}

// NewManager creates a job manager over svc with the given finished-job
// retention window.
func NewManager(svc *sortservice.Service, ttl time.Duration) *Manager {
	m := &Manager{
		svc:   svc,
		jobs:  make(map[string]*Job),
		ttl:   ttl,
		stopC: make(chan struct{}),
	}
	go m.gcLoop()
	return m
}

// Close stops the background GC goroutine.
func (m *Manager) Close() { close(m.stopC) }

func (m *Manager) gcLoop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.cleanup()
		case <-m.stopC:
			return
		}
	}
}

func (m *Manager) cleanup() {
	cut := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if (j.Status == StatusDone || j.Status == StatusFailed) && j.EndedAt != nil && j.EndedAt.Before(cut) {
			delete(m.jobs, id)
		}
	}
}

// Submit pushes req onto the pool via sortservice and tracks it under the
// task's own ID. It returns immediately; the job's status updates in the
// background as the task runs.
func (m *Manager) Submit(req sortservice.Request) (string, error) {
	task, err := m.svc.Submit(req)
	if err != nil {
		return "", err
	}

	id := task.ID()
	job := &Job{ID: id, Request: req, Status: StatusQueued, EnqueuedAt: time.Now()}
	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	go func() {
		start := time.Now()
		m.mu.Lock()
		job.StartedAt = &start
		job.Status = StatusRunning
		m.mu.Unlock()

		raw, joinErr := task.Join()
		end := time.Now()

		m.mu.Lock()
		defer m.mu.Unlock()
		job.EndedAt = &end
		if joinErr != nil {
			job.Status = StatusFailed
			return
		}
		result := raw.(sortservice.Result)
		job.Result = &result
		if result.Err != nil {
			job.Status = StatusFailed
		} else {
			job.Status = StatusDone
		}
	}()

	return id, nil
}

// SnapshotJSON returns a JSON view of the job's current metadata.
func (m *Manager) SnapshotJSON(id string) (string, bool) {
	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, _ := json.Marshal(j)
	return string(b), true
}

// ResultJSON returns the job's result once finished. ok is false if the
// job ID is unknown; err is non-nil if the job exists but has not
// finished yet.
func (m *Manager) ResultJSON(id string) (body string, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, found := m.jobs[id]
	if !found {
		return "", false, nil
	}
	if j.Status != StatusDone && j.Status != StatusFailed {
		return "", true, errNotReady
	}
	b, marshalErr := json.Marshal(j.Result)
	if marshalErr != nil {
		return "", true, marshalErr
	}
	return string(b), true, nil
}

var errNotReady = jobNotReadyError{}

type jobNotReadyError struct{}

func (jobNotReadyError) Error() string { return "job has not finished yet" }

// ListJSON lists every tracked job's ID and status.
func (m *Manager) ListJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type lite struct {
		ID     string `json:"id"`
		Status Status `json:"status"`
	}
	out := make([]lite, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, lite{ID: j.ID, Status: j.Status})
	}
	b, _ := json.Marshal(out)
	return string(b)
}
