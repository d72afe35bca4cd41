package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"sysprog-lab/internal/resp"
	"sysprog-lab/internal/ufs"
)

// parseFlags turns a comma-separated flags query param (create, readonly,
// writeonly) into an ufs.OpenFlag bitmask. Unknown tokens are ignored.
func parseFlags(s string) ufs.OpenFlag {
	var f ufs.OpenFlag
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "create":
			f |= ufs.Create
		case "readonly":
			f |= ufs.ReadOnly
		case "writeonly":
			f |= ufs.WriteOnly
		}
	}
	return f
}

func ufsErrorResult(err error) resp.Result {
	switch {
	case errors.Is(err, ufs.ErrNoFile):
		return resp.NotFound("no_file", err.Error())
	case errors.Is(err, ufs.ErrNoMem):
		return resp.TooLarge("no_mem", err.Error())
	case errors.Is(err, ufs.ErrNoPermission):
		return resp.Forbidden("no_permission", err.Error())
	default:
		return resp.IntErr("fs_error", err.Error())
	}
}

// FsOpen opens (and optionally creates) a named in-memory file, returning
// its descriptor number.
func FsOpen(q map[string]string) resp.Result {
	name := q["name"]
	if name == "" {
		return resp.BadReq("name", "name is required")
	}
	fd, err := fsys.Open(name, parseFlags(q["flags"]))
	if err != nil {
		return ufsErrorResult(err)
	}
	b, _ := json.Marshal(map[string]any{"fd": fd})
	return resp.JSONOK(string(b))
}

// FsWrite appends data (taken verbatim from the query value) at the
// descriptor's current position.
func FsWrite(q map[string]string) resp.Result {
	fd, err := strconv.Atoi(q["fd"])
	if err != nil {
		return resp.BadReq("fd", "fd must be an integer")
	}
	n, err := fsys.Write(fd, []byte(q["data"]))
	if err != nil {
		return ufsErrorResult(err)
	}
	b, _ := json.Marshal(map[string]any{"written": n})
	return resp.JSONOK(string(b))
}

// FsRead reads up to size bytes from the descriptor's current position.
func FsRead(q map[string]string) resp.Result {
	fd, err := strconv.Atoi(q["fd"])
	if err != nil {
		return resp.BadReq("fd", "fd must be an integer")
	}
	size, err := strconv.Atoi(q["size"])
	if err != nil || size < 0 {
		return resp.BadReq("size", "size must be a non-negative integer")
	}
	buf := make([]byte, size)
	n, err := fsys.Read(fd, buf)
	if err != nil {
		return ufsErrorResult(err)
	}
	b, _ := json.Marshal(map[string]any{"data": string(buf[:n]), "read": n})
	return resp.JSONOK(string(b))
}

// FsClose closes a descriptor.
func FsClose(q map[string]string) resp.Result {
	fd, err := strconv.Atoi(q["fd"])
	if err != nil {
		return resp.BadReq("fd", "fd must be an integer")
	}
	if err := fsys.Close(fd); err != nil {
		return ufsErrorResult(err)
	}
	return resp.PlainOK("closed\n")
}

// FsUnlink removes a file's name from the live index.
func FsUnlink(q map[string]string) resp.Result {
	name := q["name"]
	if name == "" {
		return resp.BadReq("name", "name is required")
	}
	if err := fsys.Unlink(name); err != nil {
		return ufsErrorResult(err)
	}
	return resp.PlainOK("unlinked\n")
}
