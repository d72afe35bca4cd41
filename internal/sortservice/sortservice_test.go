package sortservice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

func writeFile(t *testing.T, fsys *ufs.FileSystem, name, contents string) {
	t.Helper()
	fd, err := fsys.Open(name, ufs.Create)
	require.NoError(t, err)
	_, err = fsys.Write(fd, []byte(contents))
	require.NoError(t, err)
	require.NoError(t, fsys.Close(fd))
}

func TestSortServiceEndToEnd(t *testing.T) {
	fsys := ufs.New()
	writeFile(t, fsys, "a", "3 1 2")
	writeFile(t, fsys, "b", "6 5 4")

	pool, err := tpool.New(2)
	require.NoError(t, err)
	svc := New(fsys, pool)

	task, err := svc.Submit(Request{
		Inputs:          []string{"a", "b"},
		TargetLatencyUs: 2000,
		Output:          "merged",
	})
	require.NoError(t, err)

	raw, err := task.Join()
	require.NoError(t, err)
	result := raw.(Result)
	require.NoError(t, result.Err)
	require.Equal(t, 6, result.Count)
	require.Len(t, result.Workers, 2)
	for _, w := range result.Workers {
		require.LessOrEqual(t, w.WorkTimeUs, int64(2000))
	}

	fd, err := fsys.Open("merged", ufs.ReadOnly)
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := fsys.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, "1 2 3 4 5 6", string(buf[:n]))

	require.NoError(t, pool.Delete())
}
