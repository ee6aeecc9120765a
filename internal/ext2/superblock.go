package ext2

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Magic is the required ext2 superblock signature.
const Magic = 0xEF53

// Superblock is the decoded 1024-byte ext2 superblock. Field names follow
// the semantic names in the on-disk format rather than the short
// s_-prefixed C names.
type Superblock struct {
	InodeCount     uint32
	BlockCount     uint32
	ReservedBlocks uint32
	FreeBlocks     uint32
	FreeInodes     uint32
	FirstDataBlock uint32
	LogBlockSize   uint32
	LogFragSize    int32
	BlocksPerGroup uint32
	FragsPerGroup  uint32
	InodesPerGroup uint32
	MountTime      uint32
	WriteTime      uint32
	MountCount     uint16
	MaxMountCount  int16
	Magic          uint16
	State          uint16
	ErrorPolicy    uint16
	MinorRevLevel  uint16
	LastCheck      uint32
	CheckInterval  uint32
	CreatorOS      uint32
	RevLevel       uint32
	DefResUID      uint16
	DefResGID      uint16

	// Dynamic-revision fields (zero/defaulted when RevLevel == 0).
	FirstInode         uint32
	InodeSizeRaw       uint16
	BlockGroupNr       uint16
	FeaturesCompat     uint32
	FeaturesIncompat   uint32
	FeaturesROCompat   uint32
	VolumeUUID         uuid.UUID
	VolumeName         string
	LastMounted        string
	AlgoBitmap         uint32
	PreallocBlocks     uint8
	PreallocDirBlocks  uint8
	JournalUUID        [16]byte
	JournalInum        uint32
	JournalDev         uint32
	LastOrphan         uint32
	HashSeed           [4]uint32
	DefHashVersion     uint8
	DefaultMountOpts   uint32
	FirstMetaBG        uint32
}

// BlockSize returns the filesystem block size in bytes: 1024 << LogBlockSize.
func (s *Superblock) BlockSize() uint32 {
	return 1024 << s.LogBlockSize
}

// FragSize returns the fragment size in bytes.
func (s *Superblock) FragSize() int64 {
	if s.LogFragSize >= 0 {
		return 1024 << uint(s.LogFragSize)
	}
	return 1024 >> uint(-s.LogFragSize)
}

// InodeSize returns the on-disk inode record size: 128 for revLevel 0,
// otherwise the declared size.
func (s *Superblock) InodeSize() uint16 {
	if s.RevLevel == 0 {
		return 128
	}
	return s.InodeSizeRaw
}

// FirstInodeNum returns the first non-reserved inode number: 11 for
// revLevel 0, otherwise the declared value.
func (s *Superblock) FirstInodeNum() uint32 {
	if s.RevLevel == 0 {
		return 11
	}
	return s.FirstInode
}

// readSuperblock decodes 264 bytes of superblock fields from c, then skips
// 760 bytes so the cursor advances a total of 1024 bytes (one superblock
// record), matching spec.md §4.2. It validates the magic and warns (via the
// supplied warn callback) on out-of-range state/errors/creatorOS/revLevel
// values without failing the read for those.
func readSuperblock(c *ByteCursor, warn func(format string, args ...interface{})) (*Superblock, error) {
	sb := &Superblock{}

	var err error
	read := func(dst *uint32) {
		if err != nil {
			return
		}
		*dst, err = c.read32()
	}
	read16 := func(dst *uint16) {
		if err != nil {
			return
		}
		*dst, err = c.read16()
	}

	read(&sb.InodeCount)
	read(&sb.BlockCount)
	read(&sb.ReservedBlocks)
	read(&sb.FreeBlocks)
	read(&sb.FreeInodes)
	read(&sb.FirstDataBlock)
	read(&sb.LogBlockSize)
	var logFrag uint32
	read(&logFrag)
	sb.LogFragSize = int32(logFrag)
	read(&sb.BlocksPerGroup)
	read(&sb.FragsPerGroup)
	read(&sb.InodesPerGroup)
	read(&sb.MountTime)
	read(&sb.WriteTime)
	read16(&sb.MountCount)
	var maxMnt uint16
	read16(&maxMnt)
	sb.MaxMountCount = int16(maxMnt)
	read16(&sb.Magic)
	read16(&sb.State)
	read16(&sb.ErrorPolicy)
	read16(&sb.MinorRevLevel)
	read(&sb.LastCheck)
	read(&sb.CheckInterval)
	read(&sb.CreatorOS)
	read(&sb.RevLevel)
	read16(&sb.DefResUID)
	read16(&sb.DefResGID)

	read(&sb.FirstInode)
	read16(&sb.InodeSizeRaw)
	read16(&sb.BlockGroupNr)
	read(&sb.FeaturesCompat)
	read(&sb.FeaturesIncompat)
	read(&sb.FeaturesROCompat)

	if err != nil {
		return nil, errors.Wrap(err, "reading superblock")
	}

	uuidBytes, err := c.copyBytes(16)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock volume uuid")
	}
	sb.VolumeUUID, _ = uuid.FromBytes(uuidBytes)

	nameBytes, err := c.copyBytes(16)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock volume name")
	}
	sb.VolumeName = cString(nameBytes)

	lastMountedBytes, err := c.copyBytes(64)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock last-mounted path")
	}
	sb.LastMounted = cString(lastMountedBytes)

	read(&sb.AlgoBitmap)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock algo bitmap")
	}

	b, err := c.read8()
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock prealloc blocks")
	}
	sb.PreallocBlocks = b
	b, err = c.read8()
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock prealloc dir blocks")
	}
	sb.PreallocDirBlocks = b

	if err := c.skip(2); err != nil { // padding
		return nil, err
	}

	journalUUID, err := c.copyBytes(16)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock journal uuid")
	}
	copy(sb.JournalUUID[:], journalUUID)

	read(&sb.JournalInum)
	read(&sb.JournalDev)
	read(&sb.LastOrphan)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock journal fields")
	}

	for i := range sb.HashSeed {
		sb.HashSeed[i], err = c.read32()
		if err != nil {
			return nil, errors.Wrap(err, "reading superblock hash seed")
		}
	}

	sb.DefHashVersion, err = c.read8()
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock hash version")
	}
	if err := c.skip(3); err != nil { // padding
		return nil, err
	}

	read(&sb.DefaultMountOpts)
	read(&sb.FirstMetaBG)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock tail fields")
	}

	// 264 bytes consumed above; skip the remaining 760 reserved bytes so
	// the cursor advances exactly one 1024-byte superblock record.
	if err := c.skip(760); err != nil {
		return nil, errors.Wrap(err, "skipping superblock reserved region")
	}

	if sb.Magic != Magic {
		return nil, errors.Wrapf(ErrBadMagic, "got 0x%04x, want 0x%04x", sb.Magic, Magic)
	}
	if sb.RevLevel > 1 {
		warn("superblock: unexpected rev level %d, continuing", sb.RevLevel)
	}
	if sb.State != 1 && sb.State != 2 {
		warn("superblock: unexpected state %d, continuing", sb.State)
	}
	if sb.ErrorPolicy != 1 && sb.ErrorPolicy != 2 && sb.ErrorPolicy != 3 {
		warn("superblock: unexpected error policy %d, continuing", sb.ErrorPolicy)
	}
	if sb.CreatorOS > 4 {
		warn("superblock: unexpected creator OS %d, continuing", sb.CreatorOS)
	}

	return sb, nil
}

// cString trims a fixed-width NUL-padded byte field down to its printable
// prefix.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
