package dnsmsg

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// EncodeA encodes an A record's dotted-quad value; the value must parse
// to exactly 4 octets.
func EncodeA(value string) ([]byte, error) {
	ip := net.ParseIP(strings.TrimSpace(value)).To4()
	if ip == nil {
		return nil, fmt.Errorf("%w: bad A value %q", ErrBadRData, value)
	}
	return ip, nil
}

// EncodeDomainRData encodes NS/CNAME/PTR RDATA, which is just an encoded
// domain name.
func EncodeDomainRData(value string) []byte {
	return EncodeName(value)
}

// EncodeSOA encodes an SOA value of the textual form
// "mname rname serial refresh retry expire minimum". Any field that fails
// to parse falls back to the defaults given in spec §4.A.
func EncodeSOA(value string) []byte {
	fields := strings.Fields(value)
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	mname := get(0)
	rname := get(1)
	serial := parseUint32Default(get(2), 1)
	refresh := parseUint32Default(get(3), 10800)
	retry := parseUint32Default(get(4), 3600)
	expire := parseUint32Default(get(5), 604800)
	minimum := parseUint32Default(get(6), 86400)

	var buf []byte
	buf = append(buf, EncodeName(mname)...)
	buf = append(buf, EncodeName(rname)...)
	buf = appendUint32(buf, serial)
	buf = appendUint32(buf, refresh)
	buf = appendUint32(buf, retry)
	buf = appendUint32(buf, expire)
	buf = appendUint32(buf, minimum)
	return buf
}

func parseUint32Default(s string, def uint32) uint32 {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return def
	}
	return uint32(n)
}

func appendUint32(buf []byte, v uint32) []byte {
	tmp := make([]byte, 4)
	binary.BigEndian.PutUint32(tmp, v)
	return append(buf, tmp...)
}

func appendUint16(buf []byte, v uint16) []byte {
	tmp := make([]byte, 2)
	binary.BigEndian.PutUint16(tmp, v)
	return append(buf, tmp...)
}

// EncodeMX encodes an MX value of the form "preference exchange"; a
// missing or unparseable preference defaults to 10.
func EncodeMX(value string) []byte {
	fields := strings.Fields(value)
	pref := uint16(10)
	exchange := ""
	if len(fields) == 1 {
		exchange = fields[0]
	} else if len(fields) >= 2 {
		if n, err := strconv.ParseUint(fields[0], 10, 16); err == nil {
			pref = uint16(n)
		}
		exchange = fields[1]
	}

	var buf []byte
	buf = appendUint16(buf, pref)
	buf = append(buf, EncodeName(exchange)...)
	return buf
}

// EncodeTXT encodes a single character-string, stripping surrounding
// ASCII double quotes from the stored value before measuring its length.
func EncodeTXT(value string) []byte {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	if len(s) > 255 {
		s = s[:255]
	}
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, byte(len(s)))
	buf = append(buf, s...)
	return buf
}

// EncodeDS encodes a DS value of the form "key_tag algorithm digest_type
// digest_hex".
func EncodeDS(value string) ([]byte, error) {
	fields := strings.Fields(value)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: bad DS value %q", ErrBadRData, value)
	}
	keyTag, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DS key tag", ErrBadRData)
	}
	algorithm, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DS algorithm", ErrBadRData)
	}
	digestType, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DS digest type", ErrBadRData)
	}
	digest, err := hex.DecodeString(fields[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad DS digest hex", ErrBadRData)
	}

	var buf []byte
	buf = appendUint16(buf, uint16(keyTag))
	buf = append(buf, byte(algorithm), byte(digestType))
	buf = append(buf, digest...)
	return buf, nil
}

// EncodeDNSKEY encodes a DNSKEY value of the form
// "flags protocol algorithm base64pubkey".
func EncodeDNSKEY(value string) ([]byte, error) {
	fields := strings.Fields(value)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: bad DNSKEY value %q", ErrBadRData, value)
	}
	flags, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DNSKEY flags", ErrBadRData)
	}
	protocol, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DNSKEY protocol", ErrBadRData)
	}
	algorithm, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DNSKEY algorithm", ErrBadRData)
	}
	pubKey, err := base64.StdEncoding.DecodeString(fields[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad DNSKEY public key", ErrBadRData)
	}

	var buf []byte
	buf = appendUint16(buf, uint16(flags))
	buf = append(buf, byte(protocol), byte(algorithm))
	buf = append(buf, pubKey...)
	return buf, nil
}

// RRSIGTimeLayout is the literal textual format signature times parse
// from, matching the original implementation's YYYYMMDDHHMMSS convention.
const RRSIGTimeLayout = "20060102150405"

// EncodeRRSIG encodes an RRSIG value of the form
// "type_covered algorithm labels original_ttl expiration inception key_tag signer base64sig",
// where expiration/inception are YYYYMMDDHHMMSS UTC timestamps truncated
// to 32 bits on conversion to epoch seconds.
func EncodeRRSIG(value string) ([]byte, error) {
	fields := strings.Fields(value)
	if len(fields) < 9 {
		return nil, fmt.Errorf("%w: bad RRSIG value %q", ErrBadRData, value)
	}

	typeCovered, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG type covered", ErrBadRData)
	}
	algorithm, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG algorithm", ErrBadRData)
	}
	labels, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG labels", ErrBadRData)
	}
	originalTTL, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG original TTL", ErrBadRData)
	}
	expiration, err := parseRRSIGTime(fields[4])
	if err != nil {
		return nil, err
	}
	inception, err := parseRRSIGTime(fields[5])
	if err != nil {
		return nil, err
	}
	keyTag, err := strconv.ParseUint(fields[6], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG key tag", ErrBadRData)
	}
	signer := fields[7]
	sig, err := base64.StdEncoding.DecodeString(fields[8])
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRSIG signature", ErrBadRData)
	}

	var buf []byte
	buf = appendUint16(buf, uint16(typeCovered))
	buf = append(buf, byte(algorithm), byte(labels))
	buf = appendUint32(buf, uint32(originalTTL))
	buf = appendUint32(buf, expiration)
	buf = appendUint32(buf, inception)
	buf = appendUint16(buf, uint16(keyTag))
	buf = append(buf, EncodeName(signer)...)
	buf = append(buf, sig...)
	return buf, nil
}

func parseRRSIGTime(s string) (uint32, error) {
	t, err := time.ParseInLocation(RRSIGTimeLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: bad RRSIG timestamp %q", ErrBadRData, s)
	}
	return uint32(t.Unix()), nil
}
