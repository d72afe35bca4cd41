// Package router dispatches parsed HTTP/1.0 requests to the handlers that
// front the three cores (file system, thread pool, coroutine sort
// service) and the jobs tracker composing them.
package router

import (
	"encoding/json"

	"sysprog-lab/internal/handlers"
	"sysprog-lab/internal/http10"
	"sysprog-lab/internal/jobs"
	"sysprog-lab/internal/resp"
	"sysprog-lab/internal/sortservice"
	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

var jobman *jobs.Manager
var poolRef *tpool.Pool
var fsysRef *ufs.FileSystem

// Init wires the shared core instances into both the router (for
// /status and /metrics) and the handlers package (for the per-route
// logic). Call once at startup before serving any connection.
func Init(fsys *ufs.FileSystem, pool *tpool.Pool, svc *sortservice.Service, jm *jobs.Manager) {
	fsysRef = fsys
	poolRef = pool
	jobman = jm
	handlers.Init(fsys, pool, svc, jm)
}

// Dispatch resolves a route over HTTP/1.0 (GET only — this is a read-and-
// mutate-in-memory-state lab server, not a general web framework).
func Dispatch(method, target string) resp.Result {
	if method != "GET" {
		return resp.BadReq("method", "only GET")
	}

	path, q := http10.SplitTarget(target)
	args := http10.ParseQuery(q)

	switch path {
	case "/":
		return resp.PlainOK("hello\n")
	case "/help":
		return handlers.Help()
	case "/timestamp":
		return handlers.Timestamp(nil)

	case "/fs/open":
		return handlers.FsOpen(args)
	case "/fs/write":
		return handlers.FsWrite(args)
	case "/fs/read":
		return handlers.FsRead(args)
	case "/fs/close":
		return handlers.FsClose(args)
	case "/fs/unlink":
		return handlers.FsUnlink(args)

	case "/pool/push":
		return handlers.PoolPush(args)
	case "/pool/status":
		return handlers.PoolStatus(args)

	case "/sort/submit":
		return handlers.SortSubmit(args)
	case "/jobs/status":
		return handlers.JobsStatus(args)
	case "/jobs/result":
		return handlers.JobsResult(args)
	case "/jobs/list":
		return handlers.JobsList(args)

	case "/metrics":
		return resp.JSONOK(MetricsJSON())
	}

	return resp.NotFound("not_found", "route")
}

// Close releases background resources owned by the router (the jobs
// manager's GC loop and the shared pool).
func Close() {
	if jobman != nil {
		jobman.Close()
	}
	if poolRef != nil {
		_ = poolRef.Delete()
	}
}

// MetricsJSON reports live counters for the file system and thread pool.
func MetricsJSON() string {
	out := map[string]any{
		"fs":   fsysRef.Stat(),
		"pool": poolRef.Stat(),
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// StatusSummary is consumed by internal/server for /status, kept separate
// from MetricsJSON so /status can add process-level fields without
// reshaping /metrics.
func StatusSummary() map[string]any {
	return map[string]any{
		"fs":   fsysRef.Stat(),
		"pool": poolRef.Stat(),
	}
}
