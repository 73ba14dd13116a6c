package server

import "github.com/mohe22/ads-blocker/dnswire"

// blockedResponse mutates a parsed query in place into the response
// for a denylisted question. RD and TC are left as the client sent
// them; the transaction id is already correct.
func blockedResponse(msg *dnswire.Message, q dnswire.Question) {
	msg.Header.QR = true
	msg.Header.RA = true
	msg.Header.AA = false
	msg.Header.RCode = dnswire.RcodeNoError

	// Authority and additional records would belong to the real zone.
	// This also discards any OPT pseudo-record the client attached, so
	// blocked replies carry no EDNS signalling.
	msg.Authority = nil
	msg.Additional = nil

	if q.Type == dnswire.TypeHTTPS {
		// A structurally valid HTTPS record needs ALPN/ECH metadata we
		// cannot fabricate. An empty NOERROR answer means "no HTTPS
		// binding exists"; clients fall back to A/AAAA lookups, which
		// this forwarder intercepts as well.
		msg.Answers = nil
		return
	}

	// Null route: 0.0.0.0 or ::. Types other than AAAA get the 4-byte
	// form; clients that cannot interpret it discard the rdata. TTL=0
	// keeps downstream caches from pinning the block across denylist
	// changes.
	size := 4
	if q.Type == dnswire.TypeAAAA {
		size = 16
	}
	msg.Answers = []dnswire.ResourceRecord{{
		Name:  q.Name,
		Type:  q.Type,
		Class: q.Class,
		TTL:   0,
		Data:  make([]byte, size),
	}}
}
