package vsfs

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestImage(t *testing.T) *FileSystem {
	t.Helper()
	path := t.TempDir() + "/test.img"

	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = Format(f, FormatOptions{NumInodes: 64, NumData: 256})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fsys, err := Mount(path)
	require.NoError(t, err)
	t.Cleanup(func() { fsys.Unmount() })
	return fsys
}

func TestRootDirectorySeeded(t *testing.T) {
	fsys := newTestImage(t)

	inum, err := fsys.Lookup(RootInum, ".")
	require.NoError(t, err)
	require.EqualValues(t, RootInum, inum)

	inum, err = fsys.Lookup(RootInum, "..")
	require.NoError(t, err)
	require.EqualValues(t, RootInum, inum)
}

// TestMountIdempotence: unmounting and remounting the same image yields an
// identical observable state (spec §8 property 2).
func TestMountIdempotence(t *testing.T) {
	path := t.TempDir() + "/idempotent.img"
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = Format(f, FormatOptions{NumInodes: 64, NumData: 256})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fsys, err := Mount(path)
	require.NoError(t, err)
	require.NoError(t, fsys.Creat(RootInum, TypeDirectory, "dir"))
	require.NoError(t, fsys.Unmount())

	fsys2, err := Mount(path)
	require.NoError(t, err)
	defer fsys2.Unmount()

	inum, err := fsys2.Lookup(RootInum, "dir")
	require.NoError(t, err)
	require.EqualValues(t, 1, inum)
}

// TestDirectoryConsistency: every live directory always contains exactly
// its created children plus "." and ".." (spec §8 property 3).
func TestDirectoryConsistency(t *testing.T) {
	fsys := newTestImage(t)

	require.NoError(t, fsys.Creat(RootInum, TypeDirectory, "a"))
	require.NoError(t, fsys.Creat(RootInum, TypeDirectory, "b"))
	require.NoError(t, fsys.Creat(RootInum, TypeRegular, "c"))

	for _, name := range []string{".", "..", "a", "b", "c"} {
		_, err := fsys.Lookup(RootInum, name)
		require.NoError(t, err, "expected %q to be found", name)
	}

	require.EqualValues(t, 5*dirEntrySize, fsys.inodes[RootInum].Size)
}

// TestNoAliasing: two distinct Creat calls never return (are never
// assigned) the same inode number while both are live (spec §8 property 4).
func TestNoAliasing(t *testing.T) {
	fsys := newTestImage(t)

	seen := map[int32]bool{RootInum: true}
	names := []string{"n0", "n1", "n2", "n3", "n4"}
	for _, n := range names {
		require.NoError(t, fsys.Creat(RootInum, TypeRegular, n))
		inum, err := fsys.Lookup(RootInum, n)
		require.NoError(t, err)
		require.False(t, seen[inum], "inode %d reused while still live", inum)
		seen[inum] = true
	}
}

// TestLookupDeterminism: lookup(p, n) keeps returning the same inum across
// repeated calls until an intervening unlink (spec §8 property 5).
func TestLookupDeterminism(t *testing.T) {
	fsys := newTestImage(t)
	require.NoError(t, fsys.Creat(RootInum, TypeRegular, "stable"))

	first, err := fsys.Lookup(RootInum, "stable")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := fsys.Lookup(RootInum, "stable")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}

	require.NoError(t, fsys.Unlink(RootInum, "stable"))
	_, err = fsys.Lookup(RootInum, "stable")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestReadAfterWriteScenario covers read-after-write and the overlapping
// overwrite, mirroring spec §8's concrete end-to-end walkthrough directly
// against the engine (no transport involved).
func TestReadAfterWriteScenario(t *testing.T) {
	fsys := newTestImage(t)

	require.NoError(t, fsys.Creat(RootInum, TypeDirectory, "dir"))
	dirInum, err := fsys.Lookup(RootInum, "dir")
	require.NoError(t, err)
	require.EqualValues(t, 1, dirInum)

	require.NoError(t, fsys.Creat(dirInum, TypeDirectory, "dir2"))
	dir2Inum, err := fsys.Lookup(dirInum, "dir2")
	require.NoError(t, err)
	require.EqualValues(t, 2, dir2Inum)

	require.NoError(t, fsys.Creat(dir2Inum, TypeRegular, "file"))
	fileInum, err := fsys.Lookup(dir2Inum, "file")
	require.NoError(t, err)
	require.EqualValues(t, 3, fileInum)

	rng := rand.New(rand.NewSource(42))
	str := make([]byte, 10000)
	for i := range str {
		str[i] = byte('a' + rng.Intn(26))
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, fsys.Write(fileInum, str[2000*i:2000*i+2000], int32(2000*i), 2000))
	}

	for i := 0; i <= 5; i++ {
		buf := make([]byte, 4000)
		require.NoError(t, fsys.Read(fileInum, buf, int32(1000*i), 4000))
		require.Equal(t, str[1000*i:1000*i+4000], buf)
	}

	str2 := make([]byte, 3000)
	for i := range str2 {
		str2[i] = byte('A' + rng.Intn(26))
	}
	copy(str[3000:6000], str2)
	require.NoError(t, fsys.Write(fileInum, str2, 3000, 3000))

	for i := 0; i <= 5; i++ {
		buf := make([]byte, 4000)
		require.NoError(t, fsys.Read(fileInum, buf, int32(1000*i), 4000))
		require.Equal(t, str[1000*i:1000*i+4000], buf)
	}

	require.ErrorIs(t, fsys.Unlink(dirInum, "dir2"), ErrNotEmpty)
	require.NoError(t, fsys.Unlink(dir2Inum, "file"))
	_, err = fsys.Lookup(dir2Inum, "file")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, fsys.Unlink(dirInum, "dir2"))
	_, err = fsys.Lookup(dirInum, "dir2")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSizeMonotonicity: every write in an append-only sequence strictly
// increases size (spec §8 property 6); the documented overwrite-drift
// quirk (spec §9, Write's doc comment) is intentionally out of scope here.
func TestSizeMonotonicity(t *testing.T) {
	fsys := newTestImage(t)
	require.NoError(t, fsys.Creat(RootInum, TypeRegular, "grow"))
	inum, err := fsys.Lookup(RootInum, "grow")
	require.NoError(t, err)

	buf := make([]byte, 100)
	prevSize := int32(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, fsys.Write(inum, buf, prevSize, 100))
		require.Greater(t, fsys.inodes[inum].Size, prevSize)
		prevSize = fsys.inodes[inum].Size
	}
}

func TestCreatRejectsDuplicateName(t *testing.T) {
	fsys := newTestImage(t)
	require.NoError(t, fsys.Creat(RootInum, TypeRegular, "dup"))
	require.ErrorIs(t, fsys.Creat(RootInum, TypeRegular, "dup"), ErrAlreadyExists)
}

func TestCreatRejectsNameTooLong(t *testing.T) {
	fsys := newTestImage(t)
	long := make([]byte, maxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	require.ErrorIs(t, fsys.Creat(RootInum, TypeRegular, string(long)), ErrNameTooLong)
}

func TestWriteRejectsOversizedChunk(t *testing.T) {
	fsys := newTestImage(t)
	require.NoError(t, fsys.Creat(RootInum, TypeRegular, "big"))
	inum, err := fsys.Lookup(RootInum, "big")
	require.NoError(t, err)

	buf := make([]byte, BlockSize+1)
	require.ErrorIs(t, fsys.Write(inum, buf, 0, int32(len(buf))), ErrOutOfRange)
}

func TestUnlinkUnknownNameFails(t *testing.T) {
	fsys := newTestImage(t)
	require.ErrorIs(t, fsys.Unlink(RootInum, "nope"), ErrNotFound)
}
