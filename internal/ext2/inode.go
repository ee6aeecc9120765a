package ext2

import "github.com/pkg/errors"

// InodeRecordSize is the fixed portion of an on-disk inode this decoder
// understands; revLevel-1 filesystems may declare a larger inodeSize, and
// the extra trailing bytes are skipped by the caller between reads.
const InodeRecordSize = 128

// Inode mode bits this package inspects directly (the rest of the
// permission bits are out of scope).
const (
	ModeDir    = 0x4000
	ModeFile   = 0x8000
	ModeSymlnk = 0xA000
)

// Inode flag bit for htree/hash-indexed directories (unsupported; the
// decoder falls back to the linked-list scan and warns).
const FlagIndexDir = 0x00001000

// DirectBlockCount is the number of direct block-pointer slots; blocks
// 12..14 are the single/double/triple indirect pointers, never followed.
const DirectBlockCount = 12

// Inode is the decoded 128-byte fixed layout of one inode record.
type Inode struct {
	Mode         uint16
	UID          uint16
	SizeLo       uint32
	AccessTime   uint32
	CreateTime   uint32
	ModifyTime   uint32
	DeleteTime   uint32
	GID          uint16
	LinkCount    uint16
	Blocks       uint32 // count of 512-byte sectors reserved
	Flags        uint32
	OSDependent1 uint32
	Block        [15]uint32
	Generation   uint32
	FileACL      uint32
	SizeHi       uint32
	FAddr        uint32
	OSDependent2 [12]byte
}

// IsDir reports whether the inode's mode marks it a directory.
func (i *Inode) IsDir() bool { return i.Mode&ModeDir != 0 }

// IsRegular reports whether the inode's mode has the regular-file bit
// (ModeFile) set. Symlink (ModeSymlnk) and socket modes also carry that bit,
// so they report true as well.
func (i *Inode) IsRegular() bool { return i.Mode&ModeFile != 0 }

// readInode reads the 128-byte fixed inode layout from c. It does not skip
// the revLevel-1 trailing padding; callers reading a sequence of inodes are
// responsible for skipping inodeSize-128 bytes between reads (§4.4).
func readInode(c *ByteCursor) (*Inode, error) {
	in := &Inode{}
	var err error
	read16 := func(dst *uint16) {
		if err != nil {
			return
		}
		*dst, err = c.read16()
	}
	read32 := func(dst *uint32) {
		if err != nil {
			return
		}
		*dst, err = c.read32()
	}

	read16(&in.Mode)
	read16(&in.UID)
	read32(&in.SizeLo)
	read32(&in.AccessTime)
	read32(&in.CreateTime)
	read32(&in.ModifyTime)
	read32(&in.DeleteTime)
	read16(&in.GID)
	read16(&in.LinkCount)
	read32(&in.Blocks)
	read32(&in.Flags)
	read32(&in.OSDependent1)
	for idx := range in.Block {
		read32(&in.Block[idx])
	}
	read32(&in.Generation)
	read32(&in.FileACL)
	read32(&in.SizeHi)
	read32(&in.FAddr)
	if err != nil {
		return nil, errors.Wrap(err, "reading inode")
	}

	tail, err := c.copyBytes(12)
	if err != nil {
		return nil, errors.Wrap(err, "reading inode os-dependent tail")
	}
	copy(in.OSDependent2[:], tail)

	return in, nil
}

// inodeSize applies the §3 revLevel rule: file size is SizeLo alone when
// revLevel is 0, otherwise (SizeHi<<32)|SizeLo.
func inodeSize(sb *Superblock, in *Inode) uint64 {
	if sb.RevLevel == 0 {
		return uint64(in.SizeLo)
	}
	return uint64(in.SizeHi)<<32 | uint64(in.SizeLo)
}
