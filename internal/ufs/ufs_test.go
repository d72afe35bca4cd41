package ufs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	fsys := New()

	fd, err := fsys.Open("a", Create)
	require.NoError(t, err)
	n, err := fsys.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, fsys.Close(fd))

	fd2, err := fsys.Open("a", ReadWrite)
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err = fsys.Read(fd2, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	n, err = fsys.Read(fd2, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPerDescriptorCursorsAreIndependent(t *testing.T) {
	fsys := New()

	fd1, err := fsys.Open("x", Create)
	require.NoError(t, err)
	_, err = fsys.Write(fd1, []byte("hello"))
	require.NoError(t, err)

	fd2, err := fsys.Open("x", ReadWrite)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := fsys.Read(fd2, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf), "fd2 must read from its own cursor at 0, unaffected by fd1 having advanced to EOF")

	n, err = fsys.Read(fd1, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n, "fd1's own cursor is still at EOF from the write")

	require.NoError(t, fsys.Close(fd1))
	require.NoError(t, fsys.Close(fd2))
}

func TestUnlinkWhileOpen(t *testing.T) {
	fsys := New()

	fd, err := fsys.Open("b", Create)
	require.NoError(t, err)
	payload := make([]byte, 1024*1024)
	n, err := fsys.Write(fd, payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	require.NoError(t, fsys.Unlink("b"))

	_, err = fsys.Open("b", ReadWrite)
	require.ErrorIs(t, err, ErrNoFile)

	fd2, err := fsys.Open("b", Create)
	require.NoError(t, err)
	require.NotEqual(t, fd, fd2, "reopening the name with Create while the unlinked file is still open must hand out a new descriptor")

	require.NoError(t, fsys.Close(fd))
	require.NoError(t, fsys.Close(fd2))
}

func TestPermissionEnforced(t *testing.T) {
	fsys := New()

	fd, err := fsys.Open("c", Create|ReadOnly)
	require.NoError(t, err)
	_, err = fsys.Write(fd, []byte("x"))
	require.ErrorIs(t, err, ErrNoPermission)

	fd2, err := fsys.Open("d", Create|WriteOnly)
	require.NoError(t, err)
	_, err = fsys.Write(fd2, []byte("ok"))
	require.NoError(t, err)
	_, err = fsys.Read(fd2, make([]byte, 1))
	require.ErrorIs(t, err, ErrNoPermission)
}

func TestSizeCeiling(t *testing.T) {
	fsys := New()
	fd, err := fsys.Open("huge", Create)
	require.NoError(t, err)

	d := fsys.descriptors[fd]
	blocks := make([]*block, MaxBlocks)
	for i := range blocks {
		blocks[i] = &block{occupied: BlockSize}
	}
	d.file.blocks = blocks
	d.blockIdx = MaxBlocks - 1
	d.byteOff = BlockSize

	n, err := fsys.Write(fd, []byte{1})
	require.ErrorIs(t, err, ErrNoMem)
	require.Equal(t, 0, n)
	require.Equal(t, MaxBlocks, len(d.file.blocks), "failed write must not allocate the overflowing block")
}

func TestDescriptorReuse(t *testing.T) {
	fsys := New()

	fd0, err := fsys.Open("e", Create)
	require.NoError(t, err)
	fd1, err := fsys.Open("f", Create)
	require.NoError(t, err)
	require.Equal(t, fd0+1, fd1)

	require.NoError(t, fsys.Close(fd0))

	fd2, err := fsys.Open("g", Create)
	require.NoError(t, err)
	require.Equal(t, fd0, fd2, "the lowest free slot must be reused")
}

func TestDestroy(t *testing.T) {
	fsys := New()
	_, err := fsys.Open("h", Create)
	require.NoError(t, err)
	require.Equal(t, 1, fsys.Stat().LiveFiles)

	fsys.Destroy()
	require.Equal(t, 0, fsys.Stat().LiveFiles)
	require.Equal(t, 0, fsys.Stat().OpenDescriptors)
}
