package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"sysprog-lab/internal/resp"
	"sysprog-lab/internal/tpool"
)

// PoolPush pushes a small, generic unit of work (sleep for sleep_ms) onto
// the shared pool and joins it immediately, exercising the pool directly
// without going through the sort service.
func PoolPush(q map[string]string) resp.Result {
	ms, err := strconv.Atoi(q["sleep_ms"])
	if err != nil || ms < 0 {
		return resp.BadReq("sleep_ms", "sleep_ms must be a non-negative integer")
	}

	task := tpool.NewTask(func() any {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms
	})
	if err := pool.Push(task); err != nil {
		if errors.Is(err, tpool.ErrTooManyTasks) {
			return resp.TooMany("too_many_tasks", err.Error())
		}
		return resp.IntErr("pool_error", err.Error())
	}

	result, err := task.Join()
	if err != nil {
		return resp.IntErr("pool_error", err.Error())
	}
	b, _ := json.Marshal(map[string]any{"slept_ms": result, "task_id": task.ID()})
	return resp.JSONOK(string(b))
}

// PoolStatus reports the shared pool's live counters.
func PoolStatus(_ map[string]string) resp.Result {
	b, _ := json.Marshal(pool.Stat())
	return resp.JSONOK(string(b))
}
