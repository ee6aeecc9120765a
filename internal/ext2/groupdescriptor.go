package ext2

import "github.com/pkg/errors"

// GroupDescriptorSize is the fixed on-disk size of one block-group
// descriptor record.
const GroupDescriptorSize = 32

// GroupDescriptor is one 32-byte block-group descriptor table entry.
type GroupDescriptor struct {
	BlockBitmap uint32
	InodeBitmap uint32
	InodeTable  uint32
	FreeBlocks  uint16
	FreeInodes  uint16
	DirInodes   uint16
	// 14 reserved bytes are skipped, not retained.
}

// readGroupDescriptor decodes a single 32-byte descriptor from c.
func readGroupDescriptor(c *ByteCursor) (*GroupDescriptor, error) {
	gd := &GroupDescriptor{}
	var err error
	gd.BlockBitmap, err = c.read32()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	gd.InodeBitmap, err = c.read32()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	gd.InodeTable, err = c.read32()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	gd.FreeBlocks, err = c.read16()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	gd.FreeInodes, err = c.read16()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	gd.DirInodes, err = c.read16()
	if err != nil {
		return nil, errors.Wrap(err, "reading block-group descriptor")
	}
	if err := c.skip(14); err != nil {
		return nil, errors.Wrap(err, "skipping block-group descriptor reserved bytes")
	}
	return gd, nil
}
