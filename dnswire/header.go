package dnswire

// Flag word layout, MSB first:
// QR(1) opcode(4) AA(1) TC(1) RD(1) RA(1) Z(1) AD(1) CD(1) RCODE(4)
const (
	flagQR uint16 = 0x8000
	flagAA uint16 = 0x0400
	flagTC uint16 = 0x0200
	flagRD uint16 = 0x0100
	flagRA uint16 = 0x0080
	flagZ  uint16 = 0x0040
	flagAD uint16 = 0x0020
	flagCD uint16 = 0x0010
)

// Header is the fixed 12-byte prefix shared by queries and responses.
// The four counts are what the packet claimed on the wire; when a
// Message is encoded they are overwritten from the actual section
// lengths, so a stale count here never reaches the wire.
type Header struct {
	ID     uint16
	QR     bool
	Opcode uint8
	AA     bool
	TC     bool
	RD     bool
	RA     bool
	AD     bool
	CD     bool
	RCode  uint8

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func validOpcode(op uint8) bool {
	switch op {
	case OpcodeQuery, OpcodeIQuery, OpcodeStatus, OpcodeNotify, OpcodeUpdate, OpcodeDSO:
		return true
	}
	return false
}

// DecodeHeader reads and validates the 12-byte header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, ErrTooShort
	}

	c := cursor{data: data}
	id, _ := c.uint16()
	flags, _ := c.uint16()

	// The Z bit is reserved and must be zero in every packet.
	if flags&flagZ != 0 {
		return Header{}, ErrTruncated
	}

	h := Header{
		ID:     id,
		QR:     flags&flagQR != 0,
		Opcode: uint8(flags >> 11 & 0xF),
		AA:     flags&flagAA != 0,
		TC:     flags&flagTC != 0,
		RD:     flags&flagRD != 0,
		RA:     flags&flagRA != 0,
		AD:     flags&flagAD != 0,
		CD:     flags&flagCD != 0,
		RCode:  uint8(flags & 0xF),
	}

	if !validOpcode(h.Opcode) {
		return Header{}, ErrBadOpcode
	}

	// AA and RA are server capabilities; a stub query claiming either
	// is malformed.
	if !h.QR && (h.AA || h.RA) {
		return Header{}, ErrTruncated
	}

	h.QDCount, _ = c.uint16()
	h.ANCount, _ = c.uint16()
	h.NSCount, _ = c.uint16()
	h.ARCount, _ = c.uint16()

	if !h.QR && h.QDCount == 0 {
		return Header{}, ErrBadQDCount
	}
	// Multiple questions are RFC-legal but no real stub sends them.
	if h.QDCount > 1 {
		return Header{}, ErrBadQDCount
	}

	if h.ANCount > maxSectionCount || h.NSCount > maxSectionCount || h.ARCount > maxSectionCount {
		return Header{}, ErrTruncated
	}

	return h, nil
}

func (h Header) flags() uint16 {
	var f uint16
	if h.QR {
		f |= flagQR
	}
	f |= uint16(h.Opcode&0xF) << 11
	if h.AA {
		f |= flagAA
	}
	if h.TC {
		f |= flagTC
	}
	if h.RD {
		f |= flagRD
	}
	if h.RA {
		f |= flagRA
	}
	if h.AD {
		f |= flagAD
	}
	if h.CD {
		f |= flagCD
	}
	f |= uint16(h.RCode & 0xF)
	return f
}

// Encode packs the header into its 12-byte wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, 0, HeaderLen)
	buf = appendUint16(buf, h.ID)
	buf = appendUint16(buf, h.flags())
	buf = appendUint16(buf, h.QDCount)
	buf = appendUint16(buf, h.ANCount)
	buf = appendUint16(buf, h.NSCount)
	buf = appendUint16(buf, h.ARCount)
	return buf
}
