package dnswire

import "encoding/binary"

// cursor walks a received datagram. Every read is bounds-checked
// against the full buffer and fails with ErrTruncated when it would
// run past the end. Name decoding walks the buffer by offset and does
// its own bounds checks.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) need(n int) error {
	if c.off+n > len(c.data) {
		return ErrTruncated
	}
	return nil
}

func (c *cursor) uint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.data[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) uint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func appendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

func appendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}
