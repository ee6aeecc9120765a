package ext2

import "github.com/pkg/errors"

// BlockGroup owns one block group's decoded descriptor, its two bitmaps,
// and its inode table, plus a data cursor that logically borrows the
// filesystem's image buffer (spec.md §9, "Cloned cursors -> borrowed
// views": no second copy of the image is ever allocated).
type BlockGroup struct {
	sb   *Superblock
	desc *GroupDescriptor

	blockBitmap []byte
	inodeBitmap []byte
	inodes      []*Inode

	data *ByteCursor
	warn func(format string, args ...interface{})

	// blocksRead is the cursor position just past this group's inode
	// table, in whole filesystem blocks from the start of the image, kept
	// for parity with spec.md's DATA MODEL. Nothing reads it: it is NOT
	// used to address data blocks; see offsetBlock below and DESIGN.md's
	// Open Question resolution.
	blocksRead uint32
}

// readBlockGroup implements the bgRead protocol of spec.md §4.5 for group
// number num, given a master cursor positioned just after the group-0 boot
// area (byte 1024) and a warn callback for non-fatal superblock anomalies.
func readBlockGroup(master *ByteCursor, num uint32, warn func(format string, args ...interface{})) (*BlockGroup, error) {
	c := master.clone()

	sb, err := readSuperblock(c, warn)
	if err != nil {
		return nil, errors.Wrapf(err, "group %d: reading superblock copy", num)
	}
	blockSize := sb.BlockSize()

	// If the block size is larger than 1024, the superblock occupied one
	// full block; re-seek so the descriptor table read starts on a block
	// boundary.
	if blockSize != 1024 {
		if err := c.seek(int64(blockSize)); err != nil {
			return nil, err
		}
	}

	// Corrected descriptor-table skip (spec.md §9, first open question):
	// each descriptor is GroupDescriptorSize bytes, so skipping to
	// descriptor num from the start of the table is num*32 bytes, not
	// num*(blockSize/32).
	if err := c.skip(int64(num) * GroupDescriptorSize); err != nil {
		return nil, errors.Wrapf(err, "group %d: skipping to descriptor", num)
	}

	desc, err := readGroupDescriptor(c)
	if err != nil {
		return nil, errors.Wrapf(err, "group %d: reading descriptor", num)
	}

	// Bitmaps are read as live views into the image buffer, not copies:
	// deleteFile/deleteDir clear bits in place, and those clears must be
	// visible through fs.cursor for Save to persist them (see cursor.go's
	// viewBytes).
	if err := c.seek(int64(blockSize) * int64(desc.BlockBitmap)); err != nil {
		return nil, err
	}
	blockBitmap, err := c.viewBytes(int(blockSize))
	if err != nil {
		return nil, errors.Wrapf(err, "group %d: reading block bitmap", num)
	}

	if err := c.seek(int64(blockSize) * int64(desc.InodeBitmap)); err != nil {
		return nil, err
	}
	inodeBitmap, err := c.viewBytes(int(blockSize))
	if err != nil {
		return nil, errors.Wrapf(err, "group %d: reading inode bitmap", num)
	}

	if err := c.seek(int64(blockSize) * int64(desc.InodeTable)); err != nil {
		return nil, err
	}
	inodes := make([]*Inode, 0, sb.InodesPerGroup)
	inodeSz := int64(sb.InodeSize())
	for i := uint32(0); i < sb.InodesPerGroup; i++ {
		in, err := readInode(c)
		if err != nil {
			return nil, errors.Wrapf(err, "group %d: reading inode %d", num, i)
		}
		inodes = append(inodes, in)
		if pad := inodeSz - InodeRecordSize; pad > 0 {
			if err := c.skip(pad); err != nil {
				return nil, err
			}
		}
	}

	data := c.clone()
	blocksRead := uint32(c.pos() / int64(blockSize))

	return &BlockGroup{
		sb:          sb,
		desc:        desc,
		blockBitmap: blockBitmap,
		inodeBitmap: inodeBitmap,
		inodes:      inodes,
		data:        data,
		warn:        warn,
		blocksRead:  blocksRead,
	}, nil
}

// offsetBlock returns the absolute byte offset within the whole image at
// which filesystem block `block` begins. spec.md §9's second open question
// flags the source's "(block - blocksRead) * blockSize" formula as wrong
// when metadata doesn't end exactly on a block boundary relative to the
// group's own start; this implementation uses the corrected, always-valid
// absolute addressing block * blockSize.
func (bg *BlockGroup) offsetBlock(block uint32) int64 {
	return int64(block) * int64(bg.sb.BlockSize())
}

// inodeToIndex returns the 0-based slot of a global inode number within
// this group's inode table.
func inodeToIndex(sb *Superblock, inodeNum uint32) uint32 {
	return (inodeNum - 1) % sb.InodesPerGroup
}

// getInode returns a copy of the decoded inode at the slot inodeNum maps to
// within this group.
func (bg *BlockGroup) getInode(inodeNum uint32) (*Inode, error) {
	idx := inodeToIndex(bg.sb, inodeNum)
	if int(idx) >= len(bg.inodes) {
		return nil, errors.Wrapf(ErrOutOfBounds, "inode index %d beyond group table of %d", idx, len(bg.inodes))
	}
	cp := *bg.inodes[idx]
	return &cp, nil
}

// getInodeSize applies the revLevel rule from §3.
func (bg *BlockGroup) getInodeSize(in *Inode) uint64 {
	return inodeSize(bg.sb, in)
}

// getDir locates the inode, verifies it is a directory, and decodes its
// first data block into a sequence of entries (spec.md §4.5, §4.7).
func (bg *BlockGroup) getDir(inodeNum uint32) ([]DirEntry, error) {
	in, err := bg.getInode(inodeNum)
	if err != nil {
		return nil, err
	}
	if !in.IsDir() {
		return nil, errors.Wrapf(ErrNotADir, "inode %d", inodeNum)
	}
	if in.Flags&FlagIndexDir != 0 && bg.warn != nil {
		bg.warn("inode %d uses hash/B-tree directory indexing, unsupported: falling back to linked-list decode", inodeNum)
	}

	data := bg.data.clone()
	if err := data.seek(bg.offsetBlock(in.Block[0])); err != nil {
		return nil, err
	}
	return decodeDirBlock(data, bg.sb.BlockSize())
}

// readFile requires a regular-file inode, reads its direct-block-only
// contents, and returns exactly inodeSize(in) bytes (spec.md §4.5).
// Indirect blocks (block[12..14]) are never followed; a file whose
// reserved sectors imply more than 12 blocks returns ErrUnimplemented.
func (bg *BlockGroup) readFile(inodeNum uint32) ([]byte, error) {
	in, err := bg.getInode(inodeNum)
	if err != nil {
		return nil, err
	}
	if !in.IsRegular() {
		return nil, errors.Wrapf(ErrNotAFile, "inode %d", inodeNum)
	}

	size := bg.getInodeSize(in)
	blockSize := bg.sb.BlockSize()
	sectorsPerBlock := uint64(2) << bg.sb.LogBlockSize // blocks field counts 512-byte sectors
	maxBlocks := uint64(in.Blocks) / sectorsPerBlock

	if maxBlocks > DirectBlockCount {
		return nil, errors.Wrapf(ErrUnimplemented, "inode %d needs %d blocks, only direct blocks 0..11 are supported", inodeNum, maxBlocks)
	}

	out := make([]byte, 0, size)
	data := bg.data.clone()
	for i := uint64(0); i < maxBlocks && uint64(len(out)) < size; i++ {
		if err := data.seek(bg.offsetBlock(in.Block[i])); err != nil {
			return nil, err
		}
		toRead := blockSize
		if remaining := size - uint64(len(out)); uint64(toRead) > remaining {
			toRead = uint32(remaining)
		}
		chunk, err := data.copyBytes(int(toRead))
		if err != nil {
			return nil, errors.Wrapf(err, "reading block %d of inode %d", i, inodeNum)
		}
		out = append(out, chunk...)
	}

	return out, nil
}
