package dnswire

import "errors"

// Parse errors. A datagram that trips any of these is dropped by the
// caller; no response is sent back to the source address.
var (
	ErrTooShort    = errors.New("dnswire: packet shorter than header")
	ErrBadOpcode   = errors.New("dnswire: unsupported opcode")
	ErrBadLabel    = errors.New("dnswire: reserved label tag")
	ErrNameTooLong = errors.New("dnswire: name exceeds 255 bytes")
	ErrPtrLoop     = errors.New("dnswire: compression pointer loop")
	ErrPtrOOB      = errors.New("dnswire: compression pointer out of bounds")
	ErrTruncated   = errors.New("dnswire: packet ends mid-field")
	ErrBadQType    = errors.New("dnswire: unrecognised qtype")
	ErrBadQClass   = errors.New("dnswire: unrecognised qclass")
	ErrBadQDCount  = errors.New("dnswire: unsupported qdcount")
)

// Encode errors.
var (
	ErrEncodeLabelTooLong = errors.New("dnswire: label empty or exceeds 63 bytes")
	ErrEncodeNameTooLong  = errors.New("dnswire: encoded name exceeds 255 bytes")
	ErrEncodeOverflow     = errors.New("dnswire: encoded packet exceeds max payload")
)
