package dnswire

// Question is one entry of the question section.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

func decodeQuestion(c *cursor) (Question, error) {
	name, next, err := decodeName(c.data, c.off)
	if err != nil {
		return Question{}, err
	}
	c.off = next

	q := Question{Name: name}
	if q.Type, err = c.uint16(); err != nil {
		return Question{}, err
	}
	if q.Class, err = c.uint16(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (q Question) append(dst []byte, table compressionTable) ([]byte, error) {
	dst, err := appendName(dst, q.Name, table)
	if err != nil {
		return nil, err
	}
	dst = appendUint16(dst, q.Type)
	dst = appendUint16(dst, q.Class)
	return dst, nil
}

// ResourceRecord is one answer, authority, or additional entry. Data
// is kept as raw bytes; the codec never interprets RDATA. RDLENGTH is
// derived from Data at encode time, so the two cannot disagree on the
// wire.
type ResourceRecord struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	Data  []byte
}

func decodeRecord(c *cursor) (ResourceRecord, error) {
	name, next, err := decodeName(c.data, c.off)
	if err != nil {
		return ResourceRecord{}, err
	}
	c.off = next

	rr := ResourceRecord{Name: name}
	if rr.Type, err = c.uint16(); err != nil {
		return ResourceRecord{}, err
	}
	if rr.Class, err = c.uint16(); err != nil {
		return ResourceRecord{}, err
	}
	if rr.TTL, err = c.uint32(); err != nil {
		return ResourceRecord{}, err
	}
	rdlength, err := c.uint16()
	if err != nil {
		return ResourceRecord{}, err
	}
	rdata, err := c.bytes(int(rdlength))
	if err != nil {
		return ResourceRecord{}, err
	}
	rr.Data = append([]byte(nil), rdata...)
	return rr, nil
}

func (rr ResourceRecord) append(dst []byte, table compressionTable) ([]byte, error) {
	dst, err := appendName(dst, rr.Name, table)
	if err != nil {
		return nil, err
	}
	dst = appendUint16(dst, rr.Type)
	dst = appendUint16(dst, rr.Class)
	dst = appendUint32(dst, rr.TTL)
	dst = appendUint16(dst, uint16(len(rr.Data)))
	dst = append(dst, rr.Data...)
	return dst, nil
}

// Message is one datagram: the header plus the four ordered sections.
// Section slice lengths, not the header counts, are authoritative.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// Parse decodes a whole datagram. The sections share one cursor, so
// compression pointers in later sections may reference names emitted
// in earlier ones. Bytes beyond the last record are ignored; some
// stacks pad their datagrams.
func Parse(data []byte) (*Message, error) {
	if len(data) < HeaderLen {
		return nil, ErrTooShort
	}
	if len(data) > MaxPayload {
		return nil, ErrTruncated
	}

	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: hdr}
	c := cursor{data: data, off: HeaderLen}

	for i := 0; i < int(hdr.QDCount); i++ {
		q, err := decodeQuestion(&c)
		if err != nil {
			return nil, err
		}
		msg.Questions = append(msg.Questions, q)
	}
	for i := 0; i < int(hdr.ANCount); i++ {
		rr, err := decodeRecord(&c)
		if err != nil {
			return nil, err
		}
		msg.Answers = append(msg.Answers, rr)
	}
	for i := 0; i < int(hdr.NSCount); i++ {
		rr, err := decodeRecord(&c)
		if err != nil {
			return nil, err
		}
		msg.Authority = append(msg.Authority, rr)
	}
	for i := 0; i < int(hdr.ARCount); i++ {
		rr, err := decodeRecord(&c)
		if err != nil {
			return nil, err
		}
		msg.Additional = append(msg.Additional, rr)
	}

	return msg, nil
}

// Encode serialises the message. Header counts are overwritten from
// the section lengths first, and one compression table spans all four
// sections so repeated owner names share offsets.
func (m *Message) Encode() ([]byte, error) {
	hdr := m.Header
	hdr.QDCount = uint16(len(m.Questions))
	hdr.ANCount = uint16(len(m.Answers))
	hdr.NSCount = uint16(len(m.Authority))
	hdr.ARCount = uint16(len(m.Additional))

	buf := hdr.Encode()
	table := make(compressionTable)
	var err error

	for _, q := range m.Questions {
		if buf, err = q.append(buf, table); err != nil {
			return nil, err
		}
	}
	for _, rr := range m.Answers {
		if buf, err = rr.append(buf, table); err != nil {
			return nil, err
		}
	}
	for _, rr := range m.Authority {
		if buf, err = rr.append(buf, table); err != nil {
			return nil, err
		}
	}
	for _, rr := range m.Additional {
		if buf, err = rr.append(buf, table); err != nil {
			return nil, err
		}
	}

	if len(buf) > MaxPayload {
		return nil, ErrEncodeOverflow
	}
	return buf, nil
}
