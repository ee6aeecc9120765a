package shell

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ext2p/ext2p/internal/elog"
)

// buildTestImage constructs a smaller variant of the single-block-group
// image used by the internal/ext2 package tests: 9 blocks, root dir with
// "." ".." "hello" and no subdirectory, "hello" in block 8. It is sized for
// the shell-level scenarios in spec.md §8.
func buildTestImage(t *testing.T, badMagic bool) string {
	t.Helper()

	const blockSize = 1024
	buf := make([]byte, 9*blockSize)
	le := binary.LittleEndian

	sb := 1024
	le.PutUint32(buf[sb+0:], 16)
	le.PutUint32(buf[sb+4:], 9)
	le.PutUint32(buf[sb+20:], 1)
	le.PutUint32(buf[sb+24:], 0)
	le.PutUint32(buf[sb+32:], 8192)
	le.PutUint32(buf[sb+36:], 8192)
	le.PutUint32(buf[sb+40:], 16)
	if badMagic {
		le.PutUint16(buf[sb+56:], 0)
	} else {
		le.PutUint16(buf[sb+56:], 0xEF53)
	}
	le.PutUint16(buf[sb+58:], 1)
	le.PutUint16(buf[sb+60:], 1)
	le.PutUint32(buf[sb+76:], 0)
	le.PutUint16(buf[sb+88:], 128)

	gd := 2 * blockSize
	le.PutUint32(buf[gd+0:], 3)
	le.PutUint32(buf[gd+4:], 4)
	le.PutUint32(buf[gd+8:], 5)

	inodeTable := 5 * blockSize
	writeInode := func(slot int, mode uint16, size uint32, block0 uint32) {
		off := inodeTable + slot*128
		le.PutUint16(buf[off+0:], mode)
		le.PutUint32(buf[off+4:], size)
		le.PutUint32(buf[off+28:], 2)
		le.PutUint32(buf[off+40:], block0)
	}
	const modeDir = 0x4000 | 0755
	const modeFile = 0x8000 | 0644
	writeInode(1, modeDir, blockSize, 7)
	writeInode(11, modeFile, 13, 8)

	writeDirEntry := func(block int, off int, inode uint32, recLen uint16, name string, fileType uint8) {
		base := block*blockSize + off
		le.PutUint32(buf[base:], inode)
		le.PutUint16(buf[base+4:], recLen)
		buf[base+6] = byte(len(name))
		buf[base+7] = fileType
		copy(buf[base+8:], name)
	}
	writeDirEntry(7, 0, 2, 12, ".", 2)
	writeDirEntry(7, 12, 2, 12, "..", 2)
	writeDirEntry(7, 24, 12, 1024-24, "hello", 1)

	copy(buf[8*blockSize:], "hello, world\n")

	f, err := ioutil.TempFile("", "ext2p-shell-test-*.img")
	require.NoError(t, err)
	_, err = f.Write(buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })

	return f.Name()
}

func newTestShell(t *testing.T, imagePath string) (*Shell, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	log := elog.New(true, false, false)
	sh, err := New(strings.NewReader(""), out, log, true, imagePath)
	require.NoError(t, err)
	return sh, out
}

func TestLsRootListing(t *testing.T) {
	sh, out := newTestShell(t, buildTestImage(t, false))
	sh.cmdLs(nil)
	require.False(t, sh.lastFailed)
	require.Equal(t, "  file    hello\n", out.String())
}

func TestCatHello(t *testing.T) {
	sh, out := newTestShell(t, buildTestImage(t, false))
	sh.cmdCat([]string{"hello"})
	require.False(t, sh.lastFailed)
	require.Equal(t, "hello, world\n", out.String())
}

func TestUnknownCommandSuggestion(t *testing.T) {
	sh, out := newTestShell(t, buildTestImage(t, false))
	sh.dispatch("lss", nil)
	require.True(t, sh.lastFailed)
	require.Equal(t, "no such command 'lss' (did you mean 'ls'?)\n", out.String())
}

func TestOpenBadMagicFails(t *testing.T) {
	_, err := New(strings.NewReader(""), &bytes.Buffer{}, elog.New(true, false, false), true, buildTestImage(t, true))
	require.Error(t, err)
}

func TestLevenshteinSuggestion(t *testing.T) {
	s, ok := suggestCommand("lss")
	require.True(t, ok)
	require.Equal(t, "ls", s)

	_, ok = suggestCommand("xyzxyzxyz")
	require.False(t, ok)
}

func TestCdWithoutMountFails(t *testing.T) {
	out := &bytes.Buffer{}
	sh, err := New(strings.NewReader(""), out, elog.New(true, false, false), true, "")
	require.NoError(t, err)
	sh.cmdCd([]string{"sub"})
	require.True(t, sh.lastFailed)
}
