package server

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sysprog-lab/internal/jobs"
	"sysprog-lab/internal/router"
	"sysprog-lab/internal/sortservice"
	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	fsys := ufs.New()
	pool, err := tpool.New(2)
	require.NoError(t, err)
	svc := sortservice.New(fsys, pool)
	jobman := jobs.NewManager(svc, time.Minute)
	router.Init(fsys, pool, svc, jobman)
	t.Cleanup(router.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go HandleConn(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

// rawGet sends a bare HTTP/1.0 GET over a fresh connection and returns the
// status code and body, the way a real client on this protocol would.
func rawGet(t *testing.T, addr, target string) (status int, body string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET " + target + " HTTP/1.0\r\n\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	require.NoError(t, err)

	var proto, reason string
	_, err = fmt.Sscanf(statusLine, "%s %d %s", &proto, &status, &reason)
	require.NoError(t, err)

	for {
		h, err := r.ReadString('\n')
		require.NoError(t, err)
		if h == "\r\n" {
			break
		}
	}

	rest := make([]byte, 0, 256)
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		rest = append(rest, buf[:n]...)
		if err != nil {
			break
		}
	}
	return status, string(rest)
}

func TestStatusAndHelp(t *testing.T) {
	addr := startTestServer(t)

	status, _ := rawGet(t, addr, "/status")
	require.Equal(t, 200, status)

	status, body := rawGet(t, addr, "/help")
	require.Equal(t, 200, status)
	require.Contains(t, body, "/fs/open")
}

func TestUnknownRouteIs404(t *testing.T) {
	addr := startTestServer(t)
	status, _ := rawGet(t, addr, "/nope")
	require.Equal(t, 404, status)
}
