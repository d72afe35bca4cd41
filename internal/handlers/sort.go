package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"sysprog-lab/internal/resp"
	"sysprog-lab/internal/sortservice"
)

// SortSubmit queues a sort job: each of inputs is read from the shared
// file system, sorted under the coroutine scheduler with the given
// latency budget, merged, and the merged result written back as output.
func SortSubmit(q map[string]string) resp.Result {
	rawInputs := q["inputs"]
	if rawInputs == "" {
		return resp.BadReq("inputs", "inputs is required (comma-separated file names)")
	}
	inputs := strings.Split(rawInputs, ",")

	output := q["output"]
	if output == "" {
		return resp.BadReq("output", "output is required")
	}

	latency, err := strconv.ParseInt(q["target_latency_us"], 10, 64)
	if err != nil || latency <= 0 {
		return resp.BadReq("target_latency_us", "target_latency_us must be a positive integer")
	}

	id, err := jobman.Submit(sortservice.Request{
		Inputs:          inputs,
		TargetLatencyUs: latency,
		Output:          output,
	})
	if err != nil {
		return resp.TooMany("too_many_tasks", err.Error())
	}

	b, _ := json.Marshal(map[string]any{"job_id": id, "status": "queued"})
	return resp.JSONOK(string(b))
}

// JobsStatus reports a sort job's current metadata.
func JobsStatus(q map[string]string) resp.Result {
	id := q["id"]
	if id == "" {
		return resp.BadReq("id", "id is required")
	}
	if body, ok := jobman.SnapshotJSON(id); ok {
		return resp.JSONOK(body)
	}
	return resp.NotFound("not_found", "job not found")
}

// JobsResult reports a finished sort job's result.
func JobsResult(q map[string]string) resp.Result {
	id := q["id"]
	if id == "" {
		return resp.BadReq("id", "id is required")
	}
	body, ok, err := jobman.ResultJSON(id)
	if !ok {
		return resp.NotFound("not_found", "job not found")
	}
	if err != nil {
		return resp.Conflict("not_ready", err.Error())
	}
	return resp.JSONOK(body)
}

// JobsList lists every tracked job's ID and status.
func JobsList(_ map[string]string) resp.Result {
	return resp.JSONOK(jobman.ListJSON())
}
