package ext2

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"testing"
)

// buildImage constructs a minimal, single-block-group ext2 image (block
// size 1024) with:
//   - root dir (inode 2, block 7) containing ".", "..", "hello", "sub"
//   - regular file "hello" (inode 12, block 9, 13 bytes "hello, world\n")
//   - subdirectory "sub" (inode 13, block 8) containing "." and ".."
//
// Layout of 10 blocks (1024 bytes each):
//
//	0: boot area      1: superblock      2: group descriptor table
//	3: block bitmap    4: inode bitmap    5-6: inode table (16 * 128B)
//	7: root dir data   8: sub dir data    9: hello file data
func buildImage(t *testing.T, badMagic bool) string {
	t.Helper()

	const blockSize = 1024
	buf := make([]byte, 10*blockSize)
	le := binary.LittleEndian

	sb := 1024 // superblock offset
	le.PutUint32(buf[sb+0:], 16)    // InodeCount
	le.PutUint32(buf[sb+4:], 10)    // BlockCount
	le.PutUint32(buf[sb+20:], 1)    // FirstDataBlock
	le.PutUint32(buf[sb+24:], 0)    // LogBlockSize -> 1024
	le.PutUint32(buf[sb+32:], 8192) // BlocksPerGroup
	le.PutUint32(buf[sb+36:], 8192) // FragsPerGroup
	le.PutUint32(buf[sb+40:], 16)   // InodesPerGroup
	if badMagic {
		le.PutUint16(buf[sb+56:], 0)
	} else {
		le.PutUint16(buf[sb+56:], Magic)
	}
	le.PutUint16(buf[sb+58:], 1) // State
	le.PutUint16(buf[sb+60:], 1) // ErrorPolicy
	le.PutUint32(buf[sb+76:], 0) // RevLevel = 0 (old)
	le.PutUint16(buf[sb+88:], 128)

	// Group descriptor table at block 2.
	gd := 2 * blockSize
	le.PutUint32(buf[gd+0:], 3) // BlockBitmap
	le.PutUint32(buf[gd+4:], 4) // InodeBitmap
	le.PutUint32(buf[gd+8:], 5) // InodeTable

	// Mark inode 12 ("hello") and its sole data block (9) allocated in the
	// bitmaps, so deleteFile's bit-clearing has a set bit to clear and
	// tests can observe it surviving a save.
	blockBitmap := 3 * blockSize
	inodeBitmap := 4 * blockSize
	buf[blockBitmap+9/8] |= 1 << (9 % 8)
	buf[inodeBitmap+11/8] |= 1 << (11 % 8) // inode 12 -> index (12-1)%16 == 11

	inodeTable := 5 * blockSize
	writeInode := func(slot int, mode uint16, size uint32, block0 uint32) {
		off := inodeTable + slot*128
		le.PutUint16(buf[off+0:], mode)
		le.PutUint32(buf[off+4:], size)
		le.PutUint32(buf[off+28:], 2) // Blocks: 2 sectors == one 1024B block
		le.PutUint32(buf[off+40:], block0)
	}
	writeInode(1, ModeDir|0755, blockSize, 7)    // inode 2: root
	writeInode(11, ModeFile|0644, 13, 9)         // inode 12: hello
	writeInode(12, ModeDir|0755, blockSize, 8)   // inode 13: sub

	writeDirEntry := func(block int, off int, inode uint32, recLen uint16, name string, fileType uint8) {
		base := block*blockSize + off
		le.PutUint32(buf[base:], inode)
		le.PutUint16(buf[base+4:], recLen)
		buf[base+6] = byte(len(name))
		buf[base+7] = fileType
		copy(buf[base+8:], name)
	}

	// Root dir block 7: "." ".." "hello" "sub", summing to exactly 1024.
	writeDirEntry(7, 0, 2, 12, ".", FileTypeDir)
	writeDirEntry(7, 12, 2, 12, "..", FileTypeDir)
	writeDirEntry(7, 24, 12, 16, "hello", FileTypeFile)
	writeDirEntry(7, 40, 13, 1024-40, "sub", FileTypeDir)

	// Sub dir block 8: "." ".." summing to exactly 1024.
	writeDirEntry(8, 0, 13, 12, ".", FileTypeDir)
	writeDirEntry(8, 12, 2, 1024-12, "..", FileTypeDir)

	// Hello file data, block 9.
	copy(buf[9*blockSize:], "hello, world\n")

	f, err := ioutil.TempFile("", "ext2p-test-*.img")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })

	return f.Name()
}
