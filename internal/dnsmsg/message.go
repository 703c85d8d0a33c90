package dnsmsg

import "encoding/binary"

// Question is a parsed DNS question section entry.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// EDNS carries the requester's OPT pseudo-RR parameters.
type EDNS struct {
	Present     bool
	PayloadSize uint16
	DOBit       bool
}

// Query is the result of parsing an inbound message: just enough of it
// to drive the resolver. The core never needs to deserialize the answer
// section of an inbound query, only the header and question (spec §3).
type Query struct {
	Header   Header
	Question Question
	EDNS     EDNS
	// QuestionRaw is the exact on-the-wire question bytes (name through
	// QCLASS), copied unchanged into the response per the framing rule.
	QuestionRaw []byte
}

// ParseQuery parses the header and single question of an inbound query,
// plus any OPT pseudo-RR present in the additional section. Answer/
// authority sections of inbound queries are never deserialized, matching
// spec §3.
func ParseQuery(msg []byte) (*Query, error) {
	if len(msg) < HeaderSize {
		return nil, ErrMessageTooShort
	}

	h, err := DecodeHeader(msg)
	if err != nil {
		return nil, err
	}

	q := &Query{Header: h, EDNS: EDNS{PayloadSize: DefaultEDNSPayloadSize}}

	if h.QDCount == 0 {
		return q, nil
	}

	qnameStart := HeaderSize
	name, off, err := DecodeName(msg, qnameStart)
	if err != nil {
		return nil, err
	}
	if off+4 > len(msg) {
		return nil, ErrMessageTooShort
	}

	q.Question = Question{
		Name:  name,
		Type:  binary.BigEndian.Uint16(msg[off : off+2]),
		Class: binary.BigEndian.Uint16(msg[off+2 : off+4]),
	}
	q.QuestionRaw = msg[qnameStart : off+4]
	afterQuestion := off + 4

	// Walk remaining RR sections (answer/authority/additional) only to
	// locate an OPT record; contents beyond that are not interpreted.
	edns, err := findOPT(msg, afterQuestion, int(h.ANCount)+int(h.NSCount)+int(h.ARCount))
	if err != nil {
		// A malformed trailing section must not block resolving a
		// perfectly good question; EDNS is simply treated as absent.
		return q, nil
	}
	if edns.Present {
		q.EDNS = edns
	}

	return q, nil
}

func findOPT(msg []byte, offset, count int) (EDNS, error) {
	off := offset
	for i := 0; i < count; i++ {
		name, next, err := DecodeName(msg, off)
		if err != nil {
			return EDNS{}, err
		}
		if next+10 > len(msg) {
			return EDNS{}, ErrMessageTooShort
		}

		typ := binary.BigEndian.Uint16(msg[next : next+2])
		class := binary.BigEndian.Uint16(msg[next+2 : next+4])
		ttl := binary.BigEndian.Uint32(msg[next+4 : next+8])
		rdlength := binary.BigEndian.Uint16(msg[next+8 : next+10])
		rdataEnd := next + 10 + int(rdlength)
		if rdataEnd > len(msg) {
			return EDNS{}, ErrMessageTooShort
		}

		isRoot := name == "."
		if isRoot && typ == 41 {
			return EDNS{
				Present:     true,
				PayloadSize: class,
				DOBit:       ttl&0x00008000 != 0,
			}, nil
		}

		off = rdataEnd
	}
	return EDNS{}, nil
}

// DefaultEDNSPayloadSize is used when a request carries no OPT record.
const DefaultEDNSPayloadSize = 4096
