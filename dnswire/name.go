package dnswire

import "strings"

// compressionTable maps a dotted-name suffix to the absolute offset in
// the datagram where that suffix was first written. Offsets are
// measured from byte 0 of the whole message, never from the start of a
// section.
type compressionTable map[string]int

// decodeName reads a domain name starting at off. It returns the
// dotted name and the position just past the name as seen by the
// caller: past the terminating zero if no pointer was followed, or two
// bytes past the first pointer otherwise. Case is preserved;
// normalisation happens at match time, not here.
func decodeName(data []byte, off int) (string, int, error) {
	var name strings.Builder
	pos := off
	next := off // caller-visible position, frozen by the first pointer
	jumped := false
	hops := 0

	for {
		if pos >= len(data) {
			return "", 0, ErrTruncated
		}
		labelLen := int(data[pos])

		if labelLen == 0 {
			if !jumped {
				next = pos + 1
			}
			break
		}

		if labelLen&0xC0 == 0xC0 {
			if pos+1 >= len(data) {
				return "", 0, ErrPtrOOB
			}
			ptr := (labelLen&0x3F)<<8 | int(data[pos+1])
			if ptr >= len(data) {
				return "", 0, ErrPtrOOB
			}
			if !jumped {
				next = pos + 2
			}
			jumped = true
			pos = ptr

			// Also bounds forward-walking chains that never cycle.
			hops++
			if hops > maxPtrHops {
				return "", 0, ErrPtrLoop
			}
			continue
		}

		// Top bits 01 and 10 are reserved tags.
		if labelLen > maxLabelLen {
			return "", 0, ErrBadLabel
		}

		pos++
		if pos+labelLen > len(data) {
			return "", 0, ErrTruncated
		}
		if name.Len() > 0 {
			name.WriteByte('.')
		}
		name.Write(data[pos : pos+labelLen])
		pos += labelLen

		if name.Len() > maxNameLen {
			return "", 0, ErrNameTooLong
		}
	}

	return name.String(), next, nil
}

// appendName serialises name onto dst, which must be the datagram
// being built from byte 0 so that table offsets stay datagram-absolute.
// For each suffix not yet in the table the label is written and the
// suffix registered; the first suffix already present is replaced by a
// two-byte pointer and encoding stops there. With a nil table names
// are always written in full.
func appendName(dst []byte, name string, table compressionTable) ([]byte, error) {
	start := len(dst)
	pos := 0

	for {
		remaining := name[pos:]

		if table != nil {
			if ptr, ok := table[remaining]; ok {
				dst = append(dst, 0xC0|byte(ptr>>8&0x3F), byte(ptr))
				return dst, nil
			}
			table[remaining] = len(dst)
		}

		if pos >= len(name) {
			dst = append(dst, 0x00)
			break
		}

		labelEnd := len(name)
		if dot := strings.IndexByte(remaining, '.'); dot >= 0 {
			labelEnd = pos + dot
		}
		labelLen := labelEnd - pos
		if labelLen == 0 || labelLen > maxLabelLen {
			return nil, ErrEncodeLabelTooLong
		}

		dst = append(dst, byte(labelLen))
		dst = append(dst, name[pos:labelEnd]...)

		if labelEnd == len(name) {
			pos = len(name)
		} else {
			pos = labelEnd + 1
		}
	}

	if len(dst)-start > maxNameLen {
		return nil, ErrEncodeNameTooLong
	}
	return dst, nil
}
