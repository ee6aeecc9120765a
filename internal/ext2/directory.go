package ext2

import "github.com/pkg/errors"

// DirEntry is one decoded directory entry. Per spec.md §9 ("Linked entries
// -> owned sequence"), entries are returned as an owned slice rather than a
// heap-linked chain; the name is length-prefixed (via the Go string) rather
// than NUL-terminated.
type DirEntry struct {
	Inode        uint32
	RecordLength uint16
	NameLength   uint8
	FileType     uint8
	Name         string
}

// File type codes stored in a directory entry's fileType byte.
const (
	FileTypeUnknown = 0
	FileTypeFile    = 1
	FileTypeDir     = 2
	FileTypeChrdev  = 3
	FileTypeBlkdev  = 4
	FileTypeFIFO    = 5
	FileTypeSocket  = 6
	FileTypeSymlink = 7
)

var fileTypeNames = [...]string{
	FileTypeUnknown: "unknown",
	FileTypeFile:    "file",
	FileTypeDir:     "dir",
	FileTypeChrdev:  "chrdev",
	FileTypeBlkdev:  "blkdev",
	FileTypeFIFO:    "buffer",
	FileTypeSocket:  "socket",
	FileTypeSymlink: "symlink",
}

// FiletypeName maps a directory-entry fileType byte to its display name;
// anything outside 0..7 maps to "invalid".
func FiletypeName(code uint8) string {
	if int(code) < len(fileTypeNames) {
		return fileTypeNames[code]
	}
	return "invalid"
}

// decodeDirBlock turns one directory block into its sequence of entries
// per spec.md §4.7. c must be positioned at the start of the block.
func decodeDirBlock(c *ByteCursor, blockSize uint32) ([]DirEntry, error) {
	var entries []DirEntry
	var sentinel uint32

	for {
		inode, err := c.read32()
		if err != nil {
			return nil, errors.Wrap(err, "decoding directory entry inode")
		}
		if inode == 0 {
			break
		}

		recordLength, err := c.read16()
		if err != nil {
			return nil, errors.Wrap(err, "decoding directory entry record length")
		}
		nameLength, err := c.read8()
		if err != nil {
			return nil, errors.Wrap(err, "decoding directory entry name length")
		}
		fileType, err := c.read8()
		if err != nil {
			return nil, errors.Wrap(err, "decoding directory entry file type")
		}

		nameBytes, err := c.copyBytes(int(nameLength))
		if err != nil {
			return nil, errors.Wrap(err, "decoding directory entry name")
		}

		entries = append(entries, DirEntry{
			Inode:        inode,
			RecordLength: recordLength,
			NameLength:   nameLength,
			FileType:     fileType,
			Name:         string(nameBytes),
		})

		sentinel += uint32(recordLength)
		if sentinel >= blockSize {
			break
		}

		// Rewind to the start of the current entry (8 header bytes plus
		// the name we just consumed), then skip recordLength to land on
		// the next entry.
		if err := c.rewind(int64(8 + int(nameLength))); err != nil {
			return nil, err
		}
		if err := c.skip(int64(recordLength)); err != nil {
			return nil, errors.Wrap(err, "advancing to next directory entry")
		}
	}

	return entries, nil
}
