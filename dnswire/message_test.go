package dnswire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// A? google.com, id=0x1234, RD=1.
var queryGoogleA = []byte{
	0x12, 0x34, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x06, 0x67, 0x6f, 0x6f, 0x67, 0x6c, 0x65, 0x03, 0x63, 0x6f, 0x6d, 0x00,
	0x00, 0x01, 0x00, 0x01,
}

func TestParseQueryRoundTrip(t *testing.T) {
	msg, err := Parse(queryGoogleA)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &Message{
		Header: Header{ID: 0x1234, RD: true, QDCount: 1},
		Questions: []Question{
			{Name: "google.com", Type: TypeA, Class: ClassIN},
		},
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}

	out, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(out, queryGoogleA) {
		t.Errorf("re-encode:\n got %x\nwant %x", out, queryGoogleA)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "eight bytes",
			data: queryGoogleA[:8],
			want: ErrTooShort,
		},
		{
			name: "over max payload",
			data: make([]byte, MaxPayload+1),
			want: ErrTruncated,
		},
		{
			name: "question crosses end",
			data: queryGoogleA[:26],
			want: ErrTruncated,
		},
		{
			name: "rdata longer than datagram",
			data: []byte{
				0x00, 0x01, 0x80, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
				0x03, 0x66, 0x6f, 0x6f, 0x00, 0x00, 0x01, 0x00, 0x01,
				0xC0, 0x0C, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x3C,
				0x00, 0x10, // RDLENGTH=16 with only 4 bytes left
				0x7F, 0x00, 0x00, 0x01,
			},
			want: ErrTruncated,
		},
		{
			name: "pointer loop in question name",
			data: []byte{
				0x12, 0x34, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0xC0, 0x0C, 0x00, 0x01, 0x00, 0x01,
			},
			want: ErrPtrLoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseIgnoresTrailingPadding(t *testing.T) {
	padded := append(append([]byte(nil), queryGoogleA...), 0x00, 0x00, 0x00)
	msg, err := Parse(padded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(out, queryGoogleA) {
		t.Errorf("padding leaked into re-encode: %x", out)
	}
}

// A response whose owner names repeat across sections must survive
// encode→decode field-for-field; compression layout is free to change,
// the content is not.
func TestMessageRoundTripWithCompression(t *testing.T) {
	msg := &Message{
		Header: Header{ID: 0xBEEF, QR: true, RD: true, RA: true},
		Questions: []Question{
			{Name: "cdn.example.com", Type: TypeA, Class: ClassIN},
		},
		Answers: []ResourceRecord{
			{Name: "cdn.example.com", Type: TypeCNAME, Class: ClassIN, TTL: 300,
				Data: []byte{0x04, 'e', 'd', 'g', 'e', 0xC0, 0x10}},
			{Name: "cdn.example.com", Type: TypeA, Class: ClassIN, TTL: 60,
				Data: []byte{192, 0, 2, 1}},
		},
		Authority: []ResourceRecord{
			{Name: "example.com", Type: TypeNS, Class: ClassIN, TTL: 3600,
				Data: []byte{0x02, 'n', 's', 0xC0, 0x10}},
		},
		Additional: []ResourceRecord{
			{Name: "ns.example.com", Type: TypeA, Class: ClassIN, TTL: 3600,
				Data: []byte{192, 0, 2, 53}},
		},
	}

	wire, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Parse(wire)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// Header counts in the decoded copy must match the section lengths.
	if got.Header.QDCount != 1 || got.Header.ANCount != 2 ||
		got.Header.NSCount != 1 || got.Header.ARCount != 1 {
		t.Errorf("decoded counts = %d/%d/%d/%d", got.Header.QDCount,
			got.Header.ANCount, got.Header.NSCount, got.Header.ARCount)
	}

	want := *msg
	want.Header.QDCount = 1
	want.Header.ANCount = 2
	want.Header.NSCount = 1
	want.Header.ARCount = 1
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// Stale header counts must never reach the wire; the section slices
// are authoritative.
func TestEncodeDerivesCounts(t *testing.T) {
	msg := &Message{
		Header: Header{ID: 7, QR: true, QDCount: 9, ANCount: 9, NSCount: 9, ARCount: 9},
		Questions: []Question{
			{Name: "example.org", Type: TypeA, Class: ClassIN},
		},
	}
	wire, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(wire)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Header.QDCount != 1 || got.Header.ANCount != 0 ||
		got.Header.NSCount != 0 || got.Header.ARCount != 0 {
		t.Errorf("counts on wire = %d/%d/%d/%d, want 1/0/0/0", got.Header.QDCount,
			got.Header.ANCount, got.Header.NSCount, got.Header.ARCount)
	}
}

func TestEncodeOverflow(t *testing.T) {
	msg := &Message{
		Header: Header{ID: 1, QR: true},
		Questions: []Question{
			{Name: "example.org", Type: TypeTXT, Class: ClassIN},
		},
	}
	for i := 0; i < 20; i++ {
		msg.Answers = append(msg.Answers, ResourceRecord{
			Name: "example.org", Type: TypeTXT, Class: ClassIN, TTL: 60,
			Data: bytes.Repeat([]byte{0xAA}, 400),
		})
	}
	if _, err := msg.Encode(); !errors.Is(err, ErrEncodeOverflow) {
		t.Errorf("Encode err = %v, want %v", err, ErrEncodeOverflow)
	}
}

// Any prefix of a real datagram must produce a defined parse error,
// never a panic or an out-of-bounds read.
func TestParseTruncationsAreDefinedErrors(t *testing.T) {
	parseErrs := []error{
		ErrTooShort, ErrBadOpcode, ErrBadLabel, ErrNameTooLong,
		ErrPtrLoop, ErrPtrOOB, ErrTruncated, ErrBadQDCount,
	}

	for i := 0; i < len(queryGoogleA); i++ {
		_, err := Parse(queryGoogleA[:i])
		if err == nil {
			t.Errorf("Parse of %d-byte prefix unexpectedly succeeded", i)
			continue
		}
		defined := false
		for _, pe := range parseErrs {
			if errors.Is(err, pe) {
				defined = true
				break
			}
		}
		if !defined {
			t.Errorf("prefix %d: undefined parse error %v", i, err)
		}
	}
}
