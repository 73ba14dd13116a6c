package dnswire

import "strconv"

// Record types. The wire value space is open; these are the ones the
// forwarder inspects or that show up in practice.
const (
	TypeA     uint16 = 1
	TypeNS    uint16 = 2
	TypeCNAME uint16 = 5
	TypeSOA   uint16 = 6
	TypePTR   uint16 = 12
	TypeMX    uint16 = 15
	TypeTXT   uint16 = 16
	TypeAAAA  uint16 = 28
	TypeSRV   uint16 = 33
	TypeOPT   uint16 = 41
	TypeHTTPS uint16 = 65
	TypeANY   uint16 = 255
)

// Classes.
const (
	ClassIN  uint16 = 1
	ClassCH  uint16 = 3
	ClassANY uint16 = 255
)

// Opcodes. The 4-bit field could hold 0-15; only these are recognised.
const (
	OpcodeQuery  uint8 = 0
	OpcodeIQuery uint8 = 1
	OpcodeStatus uint8 = 2
	OpcodeNotify uint8 = 4
	OpcodeUpdate uint8 = 5
	OpcodeDSO    uint8 = 6
)

// Response codes.
const (
	RcodeNoError  uint8 = 0
	RcodeFormErr  uint8 = 1
	RcodeServFail uint8 = 2
	RcodeNXDomain uint8 = 3
	RcodeNotImp   uint8 = 4
	RcodeRefused  uint8 = 5
)

// Wire limits.
const (
	HeaderLen  = 12
	MaxPayload = 4096 // EDNS0 extended UDP; the classic 512 cap is not enforced

	maxLabelLen     = 63
	maxNameLen      = 255
	maxSectionCount = 500 // counts above this are treated as header corruption
	maxPtrHops      = 20
)

var typeNames = map[uint16]string{
	TypeA:     "A",
	TypeNS:    "NS",
	TypeCNAME: "CNAME",
	TypeSOA:   "SOA",
	TypePTR:   "PTR",
	TypeMX:    "MX",
	TypeTXT:   "TXT",
	TypeAAAA:  "AAAA",
	TypeSRV:   "SRV",
	TypeOPT:   "OPT",
	TypeHTTPS: "HTTPS",
	TypeANY:   "ANY",
}

// TypeString returns the mnemonic for a record type, or the decimal
// value for types outside the named set.
func TypeString(t uint16) string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}
