package dnsmsg

// RR is a resource record ready to be serialized into a response
// section. Name is pre-encoded wire bytes (almost always NamePointer).
type RR struct {
	Name  []byte
	Type  uint16
	Class uint16
	TTL   uint32
	RData []byte
}

func (r RR) encode() []byte {
	var buf []byte
	buf = append(buf, r.Name...)
	buf = appendUint16(buf, r.Type)
	buf = appendUint16(buf, r.Class)
	buf = appendUint32(buf, r.TTL)
	buf = appendUint16(buf, uint16(len(r.RData)))
	buf = append(buf, r.RData...)
	return buf
}

// Response is a DNS message being assembled for emission.
type Response struct {
	Header      Header
	QuestionRaw []byte
	Answer      []RR
	Authority   []RR
	Additional  []RR
}

// Encode serializes r into wire bytes: header, the question copied
// through unchanged, then each section's RRs in order. Section counts in
// the header are recomputed here from what is actually present so callers
// never have to keep them in sync by hand; a response with no question
// bytes (a header-only NOTIMP) gets QDCount=0.
func (r Response) Encode() []byte {
	h := r.Header
	h.QDCount = 0
	if len(r.QuestionRaw) > 0 {
		h.QDCount = 1
	}
	h.ANCount = uint16(len(r.Answer))
	h.NSCount = uint16(len(r.Authority))
	h.ARCount = uint16(len(r.Additional))

	buf := EncodeHeader(h)
	buf = append(buf, r.QuestionRaw...)
	for _, rr := range r.Answer {
		buf = append(buf, rr.encode()...)
	}
	for _, rr := range r.Authority {
		buf = append(buf, rr.encode()...)
	}
	for _, rr := range r.Additional {
		buf = append(buf, rr.encode()...)
	}
	return buf
}

// OPTRecord builds the OPT pseudo-RR echoed into a response's additional
// section whenever the request carried one: extended-RCODE 0, version 0,
// DO bit copied through, owner name root, CLASS = requester's payload size.
func OPTRecord(edns EDNS) RR {
	ttl := uint32(0)
	if edns.DOBit {
		ttl |= 0x00008000
	}
	return RR{
		Name:  []byte{0},
		Type:  41,
		Class: edns.PayloadSize,
		TTL:   ttl,
		RData: nil,
	}
}
