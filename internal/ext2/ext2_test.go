package ext2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenValidImage(t *testing.T) {
	path := buildImage(t, false)
	fs, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, uint16(Magic), fs.Superblock().Magic)
	require.EqualValues(t, 1, fs.bgCount())
	require.Equal(t, 1, fs.GroupCount())
}

func TestOpenBadMagic(t *testing.T) {
	path := buildImage(t, true)
	_, err := Open(path)
	require.Error(t, err)
	require.ErrorIs(t, errCause(err), ErrBadMagic)
}

func TestGetDirRoot(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	entries, err := fs.GetDir(2)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := make([]string, len(entries))
	var sum uint32
	for i, e := range entries {
		names[i] = e.Name
		sum += uint32(e.RecordLength)
	}
	require.Equal(t, []string{".", "..", "hello", "sub"}, names)
	require.EqualValues(t, fs.Superblock().BlockSize(), sum)
	require.NotZero(t, entries[len(entries)-1].Inode)
}

func TestReadFile(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	data, err := fs.ReadFile(12)
	require.NoError(t, err)
	require.Equal(t, "hello, world\n", string(data))
}

func TestReadFileRejectsDirectory(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	_, err = fs.ReadFile(2)
	require.ErrorIs(t, errCause(err), ErrNotAFile)
}

func TestGetDirRejectsRegularFile(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	_, err = fs.GetDir(12)
	require.ErrorIs(t, errCause(err), ErrNotADir)
}

func TestCdIntoSubdirAndBack(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	root, err := fs.GetDir(2)
	require.NoError(t, err)

	sub, err := fs.ResolveChild(2, "sub")
	require.NoError(t, err)
	require.EqualValues(t, 13, sub.Inode)

	subEntries, err := fs.GetDir(sub.Inode)
	require.NoError(t, err)
	require.Equal(t, []string{".", ".."}, []string{subEntries[0].Name, subEntries[1].Name})

	parent, err := fs.ResolveChild(sub.Inode, "..")
	require.NoError(t, err)
	require.EqualValues(t, 2, parent.Inode)

	rootAgain, err := fs.GetDir(parent.Inode)
	require.NoError(t, err)
	require.Equal(t, root, rootAgain)
}

func TestResolveChildNotFound(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	_, err = fs.ResolveChild(2, "nope")
	require.ErrorIs(t, errCause(err), ErrNotFound)
}

func TestInodeAddressing(t *testing.T) {
	sb := &Superblock{InodesPerGroup: 8}

	fs := &Filesystem{sb: sb}
	require.EqualValues(t, 1, fs.InodeToBG(9))
	require.EqualValues(t, 0, inodeToIndex(sb, 9))
	require.EqualValues(t, 0, fs.InodeToBG(1))
	require.EqualValues(t, 0, inodeToIndex(sb, 1))
}

func TestFiletypeName(t *testing.T) {
	require.Equal(t, "file", FiletypeName(FileTypeFile))
	require.Equal(t, "dir", FiletypeName(FileTypeDir))
	require.Equal(t, "invalid", FiletypeName(200))
}

func TestSaveRoundTrip(t *testing.T) {
	path := buildImage(t, false)
	fs, err := Open(path)
	require.NoError(t, err)

	out := path + ".out"
	t.Cleanup(func() { removeIfExists(out) })
	require.NoError(t, fs.Save(out))

	orig, err := readFileBytes(path)
	require.NoError(t, err)
	saved, err := readFileBytes(out)
	require.NoError(t, err)
	require.Equal(t, orig, saved)
}

func TestUnlinkFirstEntryFoldsNextForward(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	// Root dir's first entry is "." (inode 2, the same inode as the
	// directory itself); unlinking it must fold ".." into slot 0 rather
	// than zeroing the inode field, which would terminate the chain.
	require.NoError(t, fs.unlinkEntry(2, 2))

	entries, err := fs.GetDir(2)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.Equal(t, []string{"..", "hello", "sub"}, names)
}

func TestDeleteFileUnlinksEntry(t *testing.T) {
	fs, err := Open(buildImage(t, false))
	require.NoError(t, err)

	hello, err := fs.ResolveChild(2, "hello")
	require.NoError(t, err)

	require.NoError(t, fs.DeleteFile(2, hello))

	entries, err := fs.GetDir(2)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.NotContains(t, names, "hello")
}

func TestDeleteFileClearsBitmapsAndPersistsAcrossSave(t *testing.T) {
	path := buildImage(t, false)
	fs, err := Open(path)
	require.NoError(t, err)

	hello, err := fs.ResolveChild(2, "hello")
	require.NoError(t, err)
	require.NoError(t, fs.DeleteFile(2, hello))

	out := path + ".out"
	t.Cleanup(func() { removeIfExists(out) })
	require.NoError(t, fs.Save(out))

	saved, err := readFileBytes(out)
	require.NoError(t, err)

	const blockSize = 1024
	blockBitmap := saved[3*blockSize:]
	inodeBitmap := saved[4*blockSize:]

	require.Zero(t, blockBitmap[9/8]&(1<<(9%8)), "data block 9's bit should be clear after save")
	require.Zero(t, inodeBitmap[11/8]&(1<<(11%8)), "inode 12's bit should be clear after save")
}
