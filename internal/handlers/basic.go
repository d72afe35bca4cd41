package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"sysprog-lab/internal/resp"
)

// boot is process start time. Nothing reads it: /status takes its uptime
// from internal/server's own start time.
var boot = time.Now()

// timestampCore builds a JSON payload with Unix epoch and UTC timestamp.
func timestampCore() string {
	now := time.Now().UTC()
	out := map[string]any{
		"unix": now.Unix(),
		"utc":  now.Format(time.RFC3339),
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// Help lists the available routes.
func Help() resp.Result {
	return resp.PlainOK(strings.TrimSpace(`
/                      -> hello
/help                  -> this listing
/status                -> process + core status (pid, uptime, conns, fs, pool)
/metrics               -> JSON metrics for the file system and thread pool

/timestamp             -> JSON with epoch/UTC

# in-memory, block-addressed file system
/fs/open?name=FILE&flags=create,readonly,writeonly
/fs/write?fd=N&data=TEXT
/fs/read?fd=N&size=N
/fs/close?fd=N
/fs/unlink?name=FILE

# bounded thread pool
/pool/push?sleep_ms=N
/pool/status

# sort service: scheduler + file system + pool composed
/sort/submit?inputs=a,b&output=merged&target_latency_us=US
/jobs/status?id=JOBID
/jobs/result?id=JOBID
/jobs/list
`) + "\n")
}

// Timestamp returns JSON with epoch and UTC time.
func Timestamp(_ map[string]string) resp.Result {
	return resp.JSONOK(timestampCore())
}
