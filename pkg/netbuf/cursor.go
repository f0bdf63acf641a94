package netbuf

import "encoding/binary"

// Mode controls which operations a Cursor permits.
type Mode int

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	ModeReadWrite = ModeRead | ModeWrite
)

// Cursor is a (buffer, mode, head) triple. Reads consume bytes starting at
// head; writes append at buffer.Size(), growing it (capped at capacity).
type Cursor struct {
	buf  *Buffer
	mode Mode
	head int
}

// Acquire creates a cursor over buf with the given mode.
func Acquire(buf *Buffer, mode Mode) *Cursor {
	return &Cursor{buf: buf, mode: mode}
}

// Buffer returns the underlying buffer.
func (c *Cursor) Buffer() *Buffer {
	return c.buf
}

// Head returns the current cursor offset.
func (c *Cursor) Head() int {
	return c.head
}

// Reset moves head back to zero; if the cursor is writable it also resets
// the buffer's logical size to zero.
func (c *Cursor) Reset() {
	c.head = 0
	if c.mode&ModeWrite != 0 {
		c.buf.size = 0
	}
}

// Can reports whether the cursor's mode permits the given mode bits.
func (c *Cursor) Can(mode Mode) bool {
	return c.mode&mode == mode
}

// EOF reports whether head has reached the buffer's logical size.
func (c *Cursor) EOF() bool {
	return c.head == c.buf.size
}

// Jump advances head by length. It clamps to the buffer's logical size
// rather than erroring on overrun (preserving the original's documented
// quirk, spec.md §9 item 5): if head is already at size, a zero-length
// jump fails, but a jump that would overrun is silently clamped and
// reports success as long as it advanced head at all.
func (c *Cursor) Jump(length int) bool {
	offset := length
	if c.head+offset > c.buf.size {
		offset = c.buf.size - c.head
	}
	if offset == 0 {
		return false
	}
	c.head += offset
	return true
}

func (c *Cursor) readRaw(n int) ([]byte, bool) {
	if !c.Can(ModeRead) {
		return nil, false
	}
	if c.head+n > c.buf.size {
		return nil, false
	}
	b := c.buf.data[c.head : c.head+n]
	c.head += n
	return b, true
}

// ReadRaw reads up to len(out) bytes into out, reporting how many bytes
// were short of the request in remaining (0 if the full read succeeded).
func (c *Cursor) ReadRaw(out []byte) (remaining int, ok bool) {
	if !c.Can(ModeRead) {
		return len(out), false
	}
	avail := c.buf.size - c.head
	n := len(out)
	if avail < n {
		n = avail
		remaining = len(out) - n
	}
	copy(out, c.buf.data[c.head:c.head+n])
	c.head += n
	return remaining, true
}

// WriteRaw appends up to len(data) bytes, reporting how many bytes did not
// fit in remaining (0 if the full write succeeded). Writes never grow the
// buffer's capacity.
func (c *Cursor) WriteRaw(data []byte) (remaining int, ok bool) {
	if !c.Can(ModeWrite) {
		return len(data), false
	}
	avail := len(c.buf.data) - c.buf.size
	n := len(data)
	if avail < n {
		n = avail
		remaining = len(data) - n
	}
	copy(c.buf.data[c.buf.size:c.buf.size+n], data[:n])
	c.buf.size += n
	c.head = c.buf.size
	return remaining, true
}

func (c *Cursor) write(b []byte) bool {
	if !c.Can(ModeWrite) {
		return false
	}
	if len(c.buf.data)-c.buf.size < len(b) {
		return false
	}
	copy(c.buf.data[c.buf.size:c.buf.size+len(b)], b)
	c.buf.size += len(b)
	c.head = c.buf.size
	return true
}

// ReadU8 reads a big-endian uint8.
func (c *Cursor) ReadU8() (uint8, bool) {
	b, ok := c.readRaw(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// ReadI8 reads a big-endian int8.
func (c *Cursor) ReadI8() (int8, bool) {
	v, ok := c.ReadU8()
	return int8(v), ok
}

// ReadU16 reads a big-endian uint16.
func (c *Cursor) ReadU16() (uint16, bool) {
	b, ok := c.readRaw(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(b), true
}

// ReadI16 reads a big-endian int16.
func (c *Cursor) ReadI16() (int16, bool) {
	v, ok := c.ReadU16()
	return int16(v), ok
}

// ReadU32 reads a big-endian uint32.
func (c *Cursor) ReadU32() (uint32, bool) {
	b, ok := c.readRaw(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// ReadI32 reads a big-endian int32.
func (c *Cursor) ReadI32() (int32, bool) {
	v, ok := c.ReadU32()
	return int32(v), ok
}

// ReadU64 reads a big-endian uint64.
func (c *Cursor) ReadU64() (uint64, bool) {
	b, ok := c.readRaw(8)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}

// ReadI64 reads a big-endian int64.
func (c *Cursor) ReadI64() (int64, bool) {
	v, ok := c.ReadU64()
	return int64(v), ok
}

// WriteU8 writes a big-endian uint8.
func (c *Cursor) WriteU8(v uint8) bool {
	return c.write([]byte{v})
}

// WriteI8 writes a big-endian int8.
func (c *Cursor) WriteI8(v int8) bool {
	return c.WriteU8(uint8(v))
}

// WriteU16 writes a big-endian uint16.
func (c *Cursor) WriteU16(v uint16) bool {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return c.write(b[:])
}

// WriteI16 writes a big-endian int16.
func (c *Cursor) WriteI16(v int16) bool {
	return c.WriteU16(uint16(v))
}

// WriteU32 writes a big-endian uint32.
func (c *Cursor) WriteU32(v uint32) bool {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return c.write(b[:])
}

// WriteI32 writes a big-endian int32.
func (c *Cursor) WriteI32(v int32) bool {
	return c.WriteU32(uint32(v))
}

// WriteU64 writes a big-endian uint64.
func (c *Cursor) WriteU64(v uint64) bool {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return c.write(b[:])
}

// WriteI64 writes a big-endian int64.
func (c *Cursor) WriteI64(v int64) bool {
	return c.WriteU64(uint64(v))
}
