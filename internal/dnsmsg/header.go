// Package dnsmsg is the hand-rolled DNS wire codec: header, name, OPT, and
// per-type RDATA encoding/decoding. It is deliberately independent of any
// third-party DNS library (github.com/miekg/dns is used elsewhere in this
// module for name-algebra utilities only, never for wire parsing), matching
// the teacher's own internal/packet parser in structure and naming.
package dnsmsg

import (
	"encoding/binary"
	"fmt"

	dnserrors "github.com/nexusdns/nexusdns/internal/errors"
)

// HeaderSize is the fixed 12-byte DNS message header.
const HeaderSize = 12

// Opcodes and RCODEs referenced by the resolver and transport layers.
const (
	OpcodeQuery = 0

	RcodeSuccess  = 0
	RcodeNXDomain = 3
	RcodeNotImp   = 4
)

// QTYPE numeric codes used throughout the resolver and codec.
const (
	TypeA      = 1
	TypeNS     = 2
	TypeCNAME  = 5
	TypeSOA    = 6
	TypePTR    = 12
	TypeMX     = 15
	TypeTXT    = 16
	TypeAAAA   = 28
	TypeRRSIG  = 46
	TypeDS     = 43
	TypeDNSKEY = 48
)

// Every codec-level error wraps the shared internal/errors.ErrProtocol
// sentinel, so callers anywhere in the module can test for "this was a
// protocol-level problem" with errors.Is(err, dnserrors.ErrProtocol)
// without caring which specific codec error occurred (spec §7's
// "encoder failure for a specific record ... returns a protocol error to
// the Resolver").
var (
	// ErrMessageTooShort indicates a query shorter than the fixed header.
	ErrMessageTooShort = fmt.Errorf("dnsmsg: message too short: %w", dnserrors.ErrProtocol)

	// ErrInvalidOffset indicates a compression pointer outside the message.
	ErrInvalidOffset = fmt.Errorf("dnsmsg: invalid compression pointer offset: %w", dnserrors.ErrProtocol)

	// ErrCompressionLoop indicates a cyclic or excessively deep pointer chain.
	ErrCompressionLoop = fmt.Errorf("dnsmsg: compression pointer loop: %w", dnserrors.ErrProtocol)

	// ErrLabelTooLong indicates a label exceeding 63 bytes on decode.
	ErrLabelTooLong = fmt.Errorf("dnsmsg: label too long: %w", dnserrors.ErrProtocol)

	// ErrNameTooLong indicates a decoded name exceeding 255 bytes.
	ErrNameTooLong = fmt.Errorf("dnsmsg: name too long: %w", dnserrors.ErrProtocol)

	// ErrInvalidLabel indicates a label with invalid UTF-8 bytes.
	ErrInvalidLabel = fmt.Errorf("dnsmsg: invalid label bytes: %w", dnserrors.ErrProtocol)

	// ErrBadRData indicates a record's textual form could not be encoded.
	ErrBadRData = fmt.Errorf("dnsmsg: malformed rdata: %w", dnserrors.ErrProtocol)
)

const (
	maxCompressionDepth = 20
	maxLabelLength      = 63
	maxDomainLength     = 255
)

// Header is the fixed 12-byte DNS message header (RFC 1035 §4.1.1).
type Header struct {
	ID      uint16
	QR      bool
	Opcode  uint8
	AA      bool
	TC      bool
	RD      bool
	RA      bool
	Z       uint8
	Rcode   uint8
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Opcode extracts the OPCODE nibble directly from the raw flags byte at
// offset 2, the way the transport's gating check does before any full
// header parse: `(flagsByte0 >> 3) & 0x0F`.
func Opcode(msg []byte) (uint8, error) {
	if len(msg) < HeaderSize {
		return 0, ErrMessageTooShort
	}
	return (msg[2] >> 3) & 0x0F, nil
}

// DecodeHeader parses the 12-byte header at the start of msg.
func DecodeHeader(msg []byte) (Header, error) {
	var h Header
	if len(msg) < HeaderSize {
		return h, ErrMessageTooShort
	}

	h.ID = binary.BigEndian.Uint16(msg[0:2])

	flags := binary.BigEndian.Uint16(msg[2:4])
	h.QR = flags&0x8000 != 0
	h.Opcode = uint8((flags >> 11) & 0x0F)
	h.AA = flags&0x0400 != 0
	h.TC = flags&0x0200 != 0
	h.RD = flags&0x0100 != 0
	h.RA = flags&0x0080 != 0
	h.Z = uint8((flags >> 4) & 0x07)
	h.Rcode = uint8(flags & 0x0F)

	h.QDCount = binary.BigEndian.Uint16(msg[4:6])
	h.ANCount = binary.BigEndian.Uint16(msg[6:8])
	h.NSCount = binary.BigEndian.Uint16(msg[8:10])
	h.ARCount = binary.BigEndian.Uint16(msg[10:12])

	return h, nil
}

// EncodeHeader writes h into a fresh 12-byte slice.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.ID)

	var flags uint16
	if h.QR {
		flags |= 0x8000
	}
	flags |= uint16(h.Opcode&0x0F) << 11
	if h.AA {
		flags |= 0x0400
	}
	if h.TC {
		flags |= 0x0200
	}
	if h.RD {
		flags |= 0x0100
	}
	if h.RA {
		flags |= 0x0080
	}
	flags |= uint16(h.Z&0x07) << 4
	flags |= uint16(h.Rcode & 0x0F)
	binary.BigEndian.PutUint16(buf[2:4], flags)

	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)

	return buf
}
