package ext2

import (
	"github.com/pkg/errors"
)

// bootAreaSize is the boot sector/area preceding group 0; the superblock
// itself begins at this offset.
const bootAreaSize = 1024

// Filesystem owns the image byte buffer and the array of block groups; it
// maps inode numbers to (group, slot) and forwards directory/file
// operations to the owning group (spec.md §4.6).
type Filesystem struct {
	cursor *ByteCursor
	groups []*BlockGroup
	sb     *Superblock

	// Warnf receives non-fatal structural warnings (out-of-range
	// superblock enumerations, unsupported directory indexing). Defaults
	// to a no-op; the shell wires it to internal/elog.
	Warnf func(format string, args ...interface{})
}

// Open reads path fully into memory, validates the group-0 superblock, and
// eagerly reads every block group (spec.md §4.6 permits either eager or
// lazy group reads; this implementation reads eagerly, which keeps getInode
// free of reader-side effects).
func Open(path string) (*Filesystem, error) {
	cursor, err := openCursor(path)
	if err != nil {
		return nil, err
	}

	fs := &Filesystem{
		cursor: cursor,
		Warnf:  func(string, ...interface{}) {},
	}

	if err := cursor.skip(bootAreaSize); err != nil {
		return nil, errors.Wrap(err, "skipping boot area")
	}

	group0, err := readBlockGroup(cursor, 0, fs.warn)
	if err != nil {
		return nil, err
	}
	fs.sb = group0.sb
	fs.groups = make([]*BlockGroup, 1, fs.bgCount())
	fs.groups[0] = group0

	for num := uint32(1); num < fs.bgCount(); num++ {
		bg, err := readBlockGroup(cursor, num, fs.warn)
		if err != nil {
			return nil, errors.Wrapf(err, "reading block group %d", num)
		}
		fs.groups = append(fs.groups, bg)
	}

	return fs, nil
}

func (fs *Filesystem) warn(format string, args ...interface{}) {
	if fs.Warnf != nil {
		fs.Warnf(format, args...)
	}
}

// bgCount returns ceil(blockCount / blocksPerGroup).
func (fs *Filesystem) bgCount() uint32 {
	sb := fs.sb
	return (sb.BlockCount + sb.BlocksPerGroup - 1) / sb.BlocksPerGroup
}

// Superblock returns the filesystem's group-0 superblock.
func (fs *Filesystem) Superblock() *Superblock { return fs.sb }

// GroupCount returns the number of block groups.
func (fs *Filesystem) GroupCount() int { return len(fs.groups) }

// Group returns the block group at index i.
func (fs *Filesystem) Group(i int) *BlockGroup { return fs.groups[i] }

// InodeToBG returns the 0-based block-group index owning a global inode
// number.
func (fs *Filesystem) InodeToBG(inodeNum uint32) uint32 {
	return (inodeNum - 1) / fs.sb.InodesPerGroup
}

func (fs *Filesystem) groupFor(inodeNum uint32) (*BlockGroup, error) {
	bg := fs.InodeToBG(inodeNum)
	if int(bg) >= len(fs.groups) {
		return nil, errors.Wrapf(ErrNotFound, "inode %d maps to group %d, have %d groups", inodeNum, bg, len(fs.groups))
	}
	return fs.groups[bg], nil
}

// GetInode forwards to the owning group.
func (fs *Filesystem) GetInode(inodeNum uint32) (*Inode, error) {
	bg, err := fs.groupFor(inodeNum)
	if err != nil {
		return nil, err
	}
	return bg.getInode(inodeNum)
}

// GetInodeSize applies the revLevel size rule using the filesystem's
// superblock; no group lookup is needed.
func (fs *Filesystem) GetInodeSize(in *Inode) uint64 {
	return inodeSize(fs.sb, in)
}

// GetDir forwards to the owning group.
func (fs *Filesystem) GetDir(inodeNum uint32) ([]DirEntry, error) {
	bg, err := fs.groupFor(inodeNum)
	if err != nil {
		return nil, err
	}
	return bg.getDir(inodeNum)
}

// ReadFile forwards to the owning group.
func (fs *Filesystem) ReadFile(inodeNum uint32) ([]byte, error) {
	bg, err := fs.groupFor(inodeNum)
	if err != nil {
		return nil, err
	}
	return bg.readFile(inodeNum)
}

// ResolveChild looks up name within the directory inode dirInode and
// returns the matching entry, or ErrNotFound.
func (fs *Filesystem) ResolveChild(dirInode uint32, name string) (*DirEntry, error) {
	entries, err := fs.GetDir(dirInode)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "%q", name)
}

// DeleteFile implements spec.md §4.6's intended (not the source's no-op)
// semantics: clear the inode's bit in its group's inode bitmap, clear each
// of its direct data blocks in the block bitmap, unlink its directory entry
// from parentInode's block, and persist the mutation to the in-memory
// image (a subsequent Save writes it out).
func (fs *Filesystem) DeleteFile(parentInode uint32, entry *DirEntry) error {
	if entry.FileType != FileTypeFile {
		return errors.Wrapf(ErrBadArgs, "%q is not a regular file", entry.Name)
	}
	return fs.bgDeleteFile(parentInode, entry)
}

// DeleteDir recursively deletes a directory: files become DeleteFile calls,
// subdirectories recurse, "." and ".." are skipped, then the directory's
// own inode and blocks are deallocated exactly as for a file.
func (fs *Filesystem) DeleteDir(parentInode uint32, entry *DirEntry) error {
	if entry.FileType != FileTypeDir {
		return errors.Wrapf(ErrBadArgs, "%q is not a directory", entry.Name)
	}

	children, err := fs.GetDir(entry.Inode)
	if err != nil {
		return err
	}
	for i := range children {
		child := children[i]
		if child.Name == "." || child.Name == ".." {
			continue
		}
		switch child.FileType {
		case FileTypeDir:
			if err := fs.DeleteDir(entry.Inode, &child); err != nil {
				return err
			}
		default:
			if err := fs.DeleteFile(entry.Inode, &child); err != nil {
				return err
			}
		}
	}

	return fs.bgDeleteFile(parentInode, entry)
}

// bgDeleteFile performs the shared bitmap-clear / block-clear / unlink /
// persist steps used by both DeleteFile and DeleteDir's final step.
func (fs *Filesystem) bgDeleteFile(parentInode uint32, entry *DirEntry) error {
	bg, err := fs.groupFor(entry.Inode)
	if err != nil {
		return err
	}
	in, err := bg.getInode(entry.Inode)
	if err != nil {
		return err
	}

	clearBit(bg.inodeBitmap, inodeToIndex(bg.sb, entry.Inode))

	sectorsPerBlock := uint64(2) << bg.sb.LogBlockSize
	maxBlocks := uint64(in.Blocks) / sectorsPerBlock
	if maxBlocks > DirectBlockCount {
		maxBlocks = DirectBlockCount
	}
	for i := uint64(0); i < maxBlocks; i++ {
		blk := in.Block[i]
		if blk == 0 {
			continue
		}
		clearBlockBit(fs, blk)
	}

	return fs.unlinkEntry(parentInode, entry.Inode)
}

// clearBit clears bit idx within a bitmap buffer (little-endian bit order,
// per ext2 convention: bit 0 of byte 0 is the lowest-numbered item).
func clearBit(bitmap []byte, idx uint32) {
	byteIdx := idx / 8
	if int(byteIdx) >= len(bitmap) {
		return
	}
	bitmap[byteIdx] &^= 1 << (idx % 8)
}

// clearBlockBit clears the bit for absolute block number blk within the
// block bitmap of the group that owns it.
func clearBlockBit(fs *Filesystem, blk uint32) {
	groupSize := fs.sb.BlocksPerGroup
	groupIdx := blk / groupSize
	if int(groupIdx) >= len(fs.groups) {
		return
	}
	localIdx := blk % groupSize
	clearBit(fs.groups[groupIdx].blockBitmap, localIdx)
}

// unlinkEntry removes childInode's directory entry from dirInode's data
// block. A non-first entry is removed by folding its recordLength into its
// predecessor; the first entry is removed by overwriting its slot with the
// next entry's header (or zeroing it, if it was the only entry), since
// zeroing the first entry's inode field in place would trip
// decodeDirBlock's inode==0 sentinel and truncate every entry after it.
func (fs *Filesystem) unlinkEntry(dirInode uint32, childInode uint32) error {
	bg, err := fs.groupFor(dirInode)
	if err != nil {
		return err
	}
	dirNode, err := bg.getInode(dirInode)
	if err != nil {
		return err
	}

	blockOffset := bg.offsetBlock(dirNode.Block[0])

	entries, err := fs.GetDir(dirInode)
	if err != nil {
		return err
	}

	// Recompute each entry's on-disk byte offset within the block so we
	// can fold the removed entry's recordLength into its predecessor.
	var offsets []uint32
	var off uint32
	for _, e := range entries {
		offsets = append(offsets, off)
		off += uint32(e.RecordLength)
	}

	targetIdx := -1
	for i, e := range entries {
		if e.Inode == childInode {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return errors.Wrapf(ErrNotFound, "inode %d not linked in directory %d", childInode, dirInode)
	}

	if targetIdx == 0 {
		// First entry: decodeDirBlock treats inode==0 as an immediate
		// end-of-chain sentinel, so zeroing it in place would silently
		// discard every entry after it, not just this one. If a next
		// entry exists, fold it into slot 0 (absorbing the removed
		// entry's recordLength); otherwise this was the only entry and
		// zeroing it is correct.
		writeAt := fs.cursor.clone()
		if err := writeAt.seek(blockOffset); err != nil {
			return err
		}
		if len(entries) == 1 {
			writeAt.write32(0)
			return nil
		}
		next := entries[1]
		writeAt.write32(next.Inode)
		writeAt.write16(entries[0].RecordLength + next.RecordLength)
		writeAt.write8(next.NameLength)
		writeAt.write8(next.FileType)
		writeAt.writeBytes([]byte(next.Name))
		return nil
	}

	prevOffset := offsets[targetIdx-1]
	removedLen := entries[targetIdx].RecordLength
	writeAt := fs.cursor.clone()
	if err := writeAt.seek(blockOffset + int64(prevOffset) + 4); err != nil { // +4 skips prev.inode
		return err
	}
	prevLen, err := writeAt.read16()
	if err != nil {
		return err
	}
	if err := writeAt.rewind(2); err != nil {
		return err
	}
	writeAt.write16(prevLen + removedLen)

	return nil
}

// Save writes the entire in-memory image buffer to path, unconditionally
// from offset 0, per the corrected semantics of spec.md §9's last open
// question ("write the whole buffer from the start").
func (fs *Filesystem) Save(path string) error {
	return fs.cursor.save(path)
}
