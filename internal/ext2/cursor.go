package ext2

import (
	"encoding/binary"
	"io/ioutil"

	"github.com/pkg/errors"
)

// ByteCursor is a mutable position over an in-memory byte image. It never
// allocates a second copy of the image for a clone; clones share the
// backing slice and only carry their own offset.
type ByteCursor struct {
	buf []byte
	off int64
}

// openCursor reads path fully into memory and returns a cursor positioned
// at the start of the buffer.
func openCursor(path string) (*ByteCursor, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image %q", path)
	}
	return &ByteCursor{buf: buf}, nil
}

// clone produces a second cursor over the same backing buffer with an
// independent position. The clone must never outlive the source buffer.
func (c *ByteCursor) clone() *ByteCursor {
	return &ByteCursor{buf: c.buf, off: c.off}
}

func (c *ByteCursor) pos() int64 { return c.off }

func (c *ByteCursor) len() int64 { return int64(len(c.buf)) }

func (c *ByteCursor) checkBounds(n int64) error {
	if c.off < 0 || n < 0 || c.off+n > c.len() {
		return errors.Wrapf(ErrOutOfBounds, "offset %d len %d buffer size %d", c.off, n, c.len())
	}
	return nil
}

// seekStart moves the cursor to offset 0.
func (c *ByteCursor) seekStart() { c.off = 0 }

// seek moves the cursor to an absolute offset from the buffer start.
func (c *ByteCursor) seek(pos int64) error {
	if pos < 0 || pos > c.len() {
		return errors.Wrapf(ErrOutOfBounds, "seek to %d in buffer of size %d", pos, c.len())
	}
	c.off = pos
	return nil
}

// skip advances the cursor n bytes relative to its current position.
func (c *ByteCursor) skip(n int64) error {
	return c.seek(c.off + n)
}

// rewind moves the cursor back n bytes relative to its current position.
func (c *ByteCursor) rewind(n int64) error {
	return c.seek(c.off - n)
}

func (c *ByteCursor) read8() (uint8, error) {
	if err := c.checkBounds(1); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

func (c *ByteCursor) read16() (uint16, error) {
	if err := c.checkBounds(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

func (c *ByteCursor) read32() (uint32, error) {
	if err := c.checkBounds(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

func (c *ByteCursor) read64() (uint64, error) {
	if err := c.checkBounds(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.off:])
	c.off += 8
	return v, nil
}

// copyBytes performs a raw memcpy of n bytes starting at the current
// position into a freshly allocated slice, then skips n bytes.
func (c *ByteCursor) copyBytes(n int) ([]byte, error) {
	if err := c.checkBounds(int64(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+int64(n)])
	c.off += int64(n)
	return out, nil
}

// viewBytes returns a live sub-slice of n bytes starting at the current
// position, sharing the backing array rather than copying it, then skips n
// bytes. Unlike copyBytes, writes through the returned slice mutate the
// cursor's underlying buffer — used for the block/inode bitmaps, which
// deleteFile/deleteDir must be able to clear bits in and have that survive
// a subsequent save.
func (c *ByteCursor) viewBytes(n int) ([]byte, error) {
	if err := c.checkBounds(int64(n)); err != nil {
		return nil, err
	}
	out := c.buf[c.off : c.off+int64(n)]
	c.off += int64(n)
	return out, nil
}

func (c *ByteCursor) write8(v uint8) {
	c.buf[c.off] = v
	c.off++
}

func (c *ByteCursor) write16(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[c.off:], v)
	c.off += 2
}

func (c *ByteCursor) write32(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[c.off:], v)
	c.off += 4
}

// writeBytes writes raw bytes at the current position with no growth and
// no bounds check, advancing the position by len(data). Used only by the
// save/mutation paths, which are responsible for size-checking first.
func (c *ByteCursor) writeBytes(data []byte) {
	copy(c.buf[c.off:], data)
	c.off += int64(len(data))
}

func (c *ByteCursor) write64(v uint64) {
	binary.LittleEndian.PutUint64(c.buf[c.off:], v)
	c.off += 8
}

// save writes the entire buffer, not the suffix from the current position,
// to path.
func (c *ByteCursor) save(path string) error {
	return errors.Wrapf(ioutil.WriteFile(path, c.buf, 0644), "saving image to %q", path)
}
